package signals

import (
	"fmt"
	"time"
)

// Clock reports the local time of day in the bot's configured timezone
// and formats gaps between messages for prompt hints.
type Clock struct {
	loc *time.Location
	now func() time.Time
}

func NewClock(timezone string) (*Clock, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", timezone, err)
	}
	return &Clock{loc: loc, now: time.Now}, nil
}

func (c *Clock) Now() time.Time {
	return c.now().In(c.loc)
}

func (c *Clock) LocalTime() string {
	return c.Now().Format("Monday, 2 January 2006, 15:04")
}

// TimeOfDay buckets the current hour into morning, afternoon, evening
// or night.
func (c *Clock) TimeOfDay() string {
	switch h := c.Now().Hour(); {
	case h >= 6 && h < 12:
		return "morning"
	case h >= 12 && h < 18:
		return "afternoon"
	case h >= 18 && h < 22:
		return "evening"
	default:
		return "night"
	}
}

// FormatSince renders the gap since a chat's previous message. Returns
// an empty string when the gap is too small to matter.
func (c *Clock) FormatSince(last time.Time) string {
	if last.IsZero() {
		return ""
	}
	gap := c.now().Sub(last)
	switch {
	case gap < time.Minute:
		return ""
	case gap < time.Hour:
		return fmt.Sprintf("%d minutes ago", int(gap.Minutes()))
	case gap < 24*time.Hour:
		hours := int(gap.Hours())
		if hours == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", hours)
	default:
		days := int(gap.Hours() / 24)
		if days == 1 {
			return "1 day ago"
		}
		return fmt.Sprintf("%d days ago", days)
	}
}
