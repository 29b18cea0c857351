package recovery

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/robfig/cron/v3"
)

// Standard 5-field cron parser; the daily reconnect only needs
// minute-of-hour and hour-of-day.
var standardCronParser = cron.NewParser(
	cron.Minute |
		cron.Hour |
		cron.Dom |
		cron.Month |
		cron.Dow,
)

// dailySchedule fires fn once per day at a fixed local time of day.
type dailySchedule struct {
	cron *cron.Cron
}

// newDailySchedule accepts "HH:MM" or "HH:MM:SS" (seconds are ignored; cron
// granularity is one minute).
func newDailySchedule(timeOfDay string, fn func()) (*dailySchedule, error) {
	hour, minute, err := parseTimeOfDay(timeOfDay)
	if err != nil {
		return nil, err
	}

	c := cron.New(cron.WithParser(standardCronParser))
	if _, err := c.AddFunc(fmt.Sprintf("%d %d * * *", minute, hour), fn); err != nil {
		return nil, fmt.Errorf("building daily schedule: %w", err)
	}

	return &dailySchedule{cron: c}, nil
}

func (d *dailySchedule) start() {
	d.cron.Start()
}

func (d *dailySchedule) stop() {
	<-d.cron.Stop().Done()
}

func parseTimeOfDay(s string) (hour, minute int, err error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, 0, fmt.Errorf("expected HH:MM or HH:MM:SS, got %q", s)
	}

	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", s)
	}

	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", s)
	}

	if len(parts) == 3 {
		sec, secErr := strconv.Atoi(parts[2])
		if secErr != nil || sec < 0 || sec > 59 {
			return 0, 0, fmt.Errorf("invalid second in %q", s)
		}
	}

	return hour, minute, nil
}
