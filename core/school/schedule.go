package school

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/pkg/errors"
)

// A class schedule is stored as a JSON array of weekly slots:
//
//	[{"day": "monday", "start": "09:00", "end": "10:30", "room": "B12"}]
//
// The raw shape is loosely typed in the store; ParseSchedule validates it
// into a Schedule value. Callers that must not blow up on bad data (the
// weekly job) treat a parse failure as an empty schedule instead.

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

type (
	// ScheduleSlot is one weekly occurrence of a class.
	// Start and End are minutes since midnight, UTC.
	ScheduleSlot struct {
		Day   time.Weekday
		Start int
		End   int
		Room  string
	}

	Schedule []ScheduleSlot

	// Session is a single occurrence of a slot on a concrete date.
	Session struct {
		Start time.Time
		End   time.Time
		Room  string
	}

	rawSlot struct {
		Day   string `json:"day"`
		Start string `json:"start"`
		End   string `json:"end"`
		Room  string `json:"room"`
	}
)

// ParseSchedule validates raw schedule JSON into a Schedule.
// An empty or "null" payload yields an empty schedule without error.
func ParseSchedule(raw []byte) (Schedule, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var rawSlots []rawSlot
	if err := json.Unmarshal(raw, &rawSlots); err != nil {
		return nil, errors.Wrap(err, "unmarshalling schedule")
	}

	sched := make(Schedule, 0, len(rawSlots))
	for i, rs := range rawSlots {
		day, ok := weekdays[rs.Day]
		if !ok {
			return nil, errors.Errorf("slot %d: unknown weekday %q", i, rs.Day)
		}
		start, err := parseClock(rs.Start)
		if err != nil {
			return nil, errors.Wrapf(err, "slot %d: start", i)
		}
		end, err := parseClock(rs.End)
		if err != nil {
			return nil, errors.Wrapf(err, "slot %d: end", i)
		}
		if end <= start {
			return nil, errors.Errorf("slot %d: end %q not after start %q", i, rs.End, rs.Start)
		}
		sched = append(sched, ScheduleSlot{Day: day, Start: start, End: end, Room: rs.Room})
	}
	return sched, nil
}

// parseClock parses "HH:MM" into minutes since midnight.
func parseClock(s string) (int, error) {
	var hh, mm int
	if _, err := fmt.Sscanf(s, "%d:%d", &hh, &mm); err != nil {
		return 0, errors.Errorf("invalid clock time %q", s)
	}
	if hh < 0 || hh > 23 || mm < 0 || mm > 59 {
		return 0, errors.Errorf("invalid clock time %q", s)
	}
	return hh*60 + mm, nil
}

func (sched Schedule) MarshalJSON() ([]byte, error) {
	rawSlots := make([]rawSlot, 0, len(sched))
	for _, slot := range sched {
		rawSlots = append(rawSlots, rawSlot{
			Day:   dayName(slot.Day),
			Start: clockString(slot.Start),
			End:   clockString(slot.End),
			Room:  slot.Room,
		})
	}
	return json.Marshal(rawSlots)
}

func (sched *Schedule) UnmarshalJSON(raw []byte) error {
	parsed, err := ParseSchedule(raw)
	if err != nil {
		return err
	}
	*sched = parsed
	return nil
}

func dayName(d time.Weekday) string {
	for name, wd := range weekdays {
		if wd == d {
			return name
		}
	}
	return ""
}

func clockString(mins int) string {
	return fmt.Sprintf("%02d:%02d", mins/60, mins%60)
}

// occurrence materializes the slot on the given date.
func (slot ScheduleSlot) occurrence(year int, month time.Month, day int) Session {
	start := time.Date(year, month, day, slot.Start/60, slot.Start%60, 0, 0, time.UTC)
	return Session{
		Start: start,
		End:   start.Add(time.Duration(slot.End-slot.Start) * time.Minute),
		Room:  slot.Room,
	}
}

// SessionAt finds the session whose window, extended by grace on both
// ends, contains t. Both extended boundaries are inclusive.
func (sched Schedule) SessionAt(t time.Time, grace time.Duration) (Session, bool) {
	t = t.UTC()
	// a slot's graced window may spill past midnight, so the previous
	// day's occurrences are candidates too
	for _, date := range []time.Time{t.AddDate(0, 0, -1), t} {
		for _, slot := range sched {
			if slot.Day != date.Weekday() {
				continue
			}
			s := slot.occurrence(date.Year(), date.Month(), date.Day())
			if !t.Before(s.Start.Add(-grace)) && !t.After(s.End.Add(grace)) {
				return s, true
			}
		}
	}
	return Session{}, false
}

// Occurrences returns the start times of all scheduled sessions with
// Start in [from, to].
func (sched Schedule) Occurrences(from, to time.Time) []time.Time {
	from, to = from.UTC(), to.UTC()
	var starts []time.Time
	for date := from; !date.After(to.Add(24 * time.Hour)); date = date.AddDate(0, 0, 1) {
		for _, slot := range sched {
			if slot.Day != date.Weekday() {
				continue
			}
			s := slot.occurrence(date.Year(), date.Month(), date.Day())
			if !s.Start.Before(from) && !s.Start.After(to) {
				starts = append(starts, s.Start)
			}
		}
	}
	return starts
}
