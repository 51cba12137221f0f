package analytics

import "math"

// PerEventStats is one row of the attendance report the admin portal renders.
type PerEventStats struct {
	EventID         int64   `json:"event_id"`
	EventTitle      string  `json:"event_title"`
	MaxParticipants int     `json:"max_participants"`
	Registered      int     `json:"registered"`
	CheckedIn       int     `json:"checked_in"`
	AttendanceRate  float64 `json:"attendance_rate"`
}

// Rate computes checked-in over registered as a percentage with one decimal.
// A zero denominator reports 0, not NaN.
func Rate(checkedIn, registered int) float64 {
	if registered <= 0 {
		return 0
	}

	rate := float64(checkedIn) / float64(registered) * 100

	return math.Round(rate*10) / 10
}
