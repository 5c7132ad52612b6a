package file

import "time"

// RotateInterval names a time-based rotation cadence (spec §4.9). Empty
// string means size-only rotation.
type RotateInterval string

const (
	RotateNone   RotateInterval = ""
	RotateHourly RotateInterval = "hourly"
	RotateDaily  RotateInterval = "daily"
	RotateWeekly RotateInterval = "weekly"
)

func rotationBoundary(now time.Time, interval RotateInterval) time.Time {
	switch interval {
	case RotateHourly:
		return now.Truncate(time.Hour)
	case RotateDaily:
		y, m, d := now.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	case RotateWeekly:
		y, m, d := now.Date()
		day := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
		offset := int(day.Weekday())
		return day.AddDate(0, 0, -offset)
	default:
		return time.Time{}
	}
}
