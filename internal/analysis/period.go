package analysis

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// Period is a reporting window. A zero From means unbounded; To is inclusive.
type Period struct {
	Label string    `json:"label"`
	From  time.Time `json:"from,omitempty"`
	To    time.Time `json:"to"`
}

var periodAliases = map[string]string{
	"":        "30d",
	"week":    "7d",
	"month":   "30d",
	"quarter": "90d",
	"year":    "365d",
}

// ParsePeriod accepts "<n>d", "week", "month", "quarter", "year", "all", an
// explicit "YYYY-MM-DD..YYYY-MM-DD" range or an open-ended "YYYY-MM-DD.." that
// runs to now. Relative windows end at now and start at midnight UTC so they
// cover exactly n calendar days.
func ParsePeriod(raw string, now time.Time) (Period, error) {
	now = now.UTC()
	label := strings.ToLower(strings.TrimSpace(raw))
	if alias, ok := periodAliases[label]; ok {
		label = alias
	}

	if label == "all" {
		return Period{Label: "all", To: now}, nil
	}

	if from, to, ok := strings.Cut(label, ".."); ok {
		start, err := time.Parse(dateLayout, from)
		if err != nil {
			return Period{}, fmt.Errorf("invalid period start %q: %w", from, err)
		}
		if to == "" {
			if start.After(now) {
				return Period{}, fmt.Errorf("period start %s is in the future", from)
			}
			return Period{Label: label, From: start, To: now}, nil
		}
		end, err := time.Parse(dateLayout, to)
		if err != nil {
			return Period{}, fmt.Errorf("invalid period end %q: %w", to, err)
		}
		if end.Before(start) {
			return Period{}, fmt.Errorf("period end %s is before start %s", to, from)
		}
		return Period{
			Label: label,
			From:  start,
			To:    end.Add(24*time.Hour - time.Nanosecond),
		}, nil
	}

	if days, ok := strings.CutSuffix(label, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil || n <= 0 || n > 3660 {
			return Period{}, fmt.Errorf("invalid period %q", raw)
		}
		return Period{
			Label: label,
			From:  startOfDay(now).AddDate(0, 0, -(n - 1)),
			To:    now,
		}, nil
	}

	return Period{}, fmt.Errorf("invalid period %q", raw)
}

// resolve closes a period without an end at now. An unlabelled period keeps
// its start in the label.
func (p Period) resolve(now time.Time) Period {
	if !p.To.IsZero() {
		return p
	}
	p.To = now.UTC()
	if p.Label == "" {
		p.Label = "all"
		if !p.From.IsZero() {
			p.Label = p.From.UTC().Format(dateLayout) + ".."
		}
	}
	return p
}

// Contains reports whether t falls inside the window
func (p Period) Contains(t time.Time) bool {
	if !p.From.IsZero() && t.Before(p.From) {
		return false
	}
	return !t.After(p.To)
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
