package scheduler

import (
	"time"

	"github.com/robfig/cron/v3"
)

// Schedules use the classic five-field format: minute hour dom month dow.
var scheduleParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

func ValidateCronSchedule(schedule string) error {
	_, err := scheduleParser.Parse(schedule)
	return err
}

// DescribeSchedule returns a human-readable label for common schedules.
func DescribeSchedule(schedule string) string {
	switch schedule {
	case "* * * * *":
		return "Every minute"
	case "*/5 * * * *":
		return "Every 5 minutes"
	case "*/15 * * * *":
		return "Every 15 minutes"
	case "0 * * * *":
		return "Every hour at :00"
	case "0 0 * * *":
		return "Daily at midnight"
	default:
		return "Custom schedule: " + schedule
	}
}

// NextRunTime returns when schedule fires next after now.
func NextRunTime(schedule string, now time.Time) (time.Time, error) {
	sched, err := scheduleParser.Parse(schedule)
	if err != nil {
		return time.Time{}, err
	}
	return sched.Next(now), nil
}
