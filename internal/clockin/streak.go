package clockin

import "github.com/example/wordtrail/pkg/models"

// NextStreak returns the streak for a day whose previous calendar day is yesterday.
// A missing or unsuccessful yesterday resets the streak to zero.
func NextStreak(yesterday *models.ClockIn) int {
	if yesterday == nil || !yesterday.Status {
		return 0
	}
	return yesterday.StreakDays + 1
}
