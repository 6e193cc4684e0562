package format

import (
	"log"
	"time"
)

// MarketStatus reports whether the exchange is in regular trading hours.
type MarketStatus struct {
	Open        bool   `json:"is_open"`
	CurrentTime string `json:"current_time"`
	Weekday     bool   `json:"is_weekday"`
	OpenTime    string `json:"market_open_time"`
	CloseTime   string `json:"market_close_time"`
}

var eastern = func() *time.Location {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		log.Printf("[WARN] load America/New_York, market hours fall back to UTC-5: %v", err)
		return time.FixedZone("ET", -5*3600)
	}
	return loc
}()

// MarketStatusAt evaluates regular hours (09:30 to 16:00 ET, Monday to
// Friday) at the given instant. Holidays are not considered.
func MarketStatusAt(now time.Time) MarketStatus {
	et := now.In(eastern)
	weekday := et.Weekday() >= time.Monday && et.Weekday() <= time.Friday
	minutes := et.Hour()*60 + et.Minute()
	secondsPastClose := minutes == 16*60 && (et.Second() > 0 || et.Nanosecond() > 0)
	open := weekday && minutes >= 9*60+30 && minutes <= 16*60 && !secondsPastClose
	return MarketStatus{
		Open:        open,
		CurrentTime: et.Format("2006-01-02 15:04:05 MST"),
		Weekday:     weekday,
		OpenTime:    "09:30 ET",
		CloseTime:   "16:00 ET",
	}
}
