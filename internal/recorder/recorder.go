// Package recorder keeps a history of data loads for later analysis.
package recorder

import "time"

// LoadEvent describes one data request served to a session.
type LoadEvent struct {
	Operation string
	Duration  time.Duration
	Cached    bool
	Rows      int
	Offline   bool
}

// FailureEvent describes a load that produced no data.
type FailureEvent struct {
	Operation    string
	Message      string
	FromSnapshot bool
	Recovery     []string
}

// Recorder persists load history.
type Recorder interface {
	RecordLoad(evt *LoadEvent) error
	RecordFailure(evt *FailureEvent) error
	Close() error
}
