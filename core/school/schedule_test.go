package school

import (
	"testing"
	"time"
)

func TestParseSchedule(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    Schedule
		wantErr bool
	}{
		{name: "empty payload", raw: ""},
		{name: "null payload", raw: "null"},
		{name: "empty array", raw: "[]", want: Schedule{}},
		{
			name: "valid slots",
			raw:  `[{"day":"monday","start":"09:00","end":"10:30","room":"B12"},{"day":"friday","start":"14:00","end":"16:00"}]`,
			want: Schedule{
				{Day: time.Monday, Start: 9 * 60, End: 10*60 + 30, Room: "B12"},
				{Day: time.Friday, Start: 14 * 60, End: 16 * 60},
			},
		},
		{name: "malformed json", raw: `[{"day":`, wantErr: true},
		{name: "unknown weekday", raw: `[{"day":"funday","start":"09:00","end":"10:00"}]`, wantErr: true},
		{name: "bad clock", raw: `[{"day":"monday","start":"9am","end":"10:00"}]`, wantErr: true},
		{name: "out-of-range clock", raw: `[{"day":"monday","start":"25:00","end":"26:00"}]`, wantErr: true},
		{name: "end before start", raw: `[{"day":"monday","start":"10:00","end":"09:00"}]`, wantErr: true},
		{name: "end equals start", raw: `[{"day":"monday","start":"10:00","end":"10:00"}]`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSchedule([]byte(tt.raw))
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseSchedule() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if len(got) != len(tt.want) {
				t.Fatalf("ParseSchedule() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("ParseSchedule()[%d] = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestSchedule_SessionAt(t *testing.T) {
	// Monday 09:00-10:30 and a late slot that spills past midnight once graced
	sched := Schedule{
		{Day: time.Monday, Start: 9 * 60, End: 10*60 + 30, Room: "B12"},
		{Day: time.Monday, Start: 23 * 60, End: 23*60 + 59},
	}
	grace := 10 * time.Minute

	// 2026-01-05 is a Monday
	day := func(d int, hh, mm, ss int) time.Time {
		return time.Date(2026, time.January, d, hh, mm, ss, 0, time.UTC)
	}
	wantStart := day(5, 9, 0, 0)

	tests := []struct {
		name      string
		t         time.Time
		wantOK    bool
		wantStart time.Time
	}{
		{name: "inside session", t: day(5, 9, 30, 0), wantOK: true, wantStart: wantStart},
		{name: "graced start boundary", t: day(5, 8, 50, 0), wantOK: true, wantStart: wantStart},
		{name: "one second before graced start", t: day(5, 8, 49, 59)},
		{name: "graced end boundary", t: day(5, 10, 40, 0), wantOK: true, wantStart: wantStart},
		{name: "one second after graced end", t: day(5, 10, 40, 1)},
		{name: "wrong day", t: day(6, 9, 30, 0)},
		{name: "grace spillover past midnight", t: day(6, 0, 5, 0), wantOK: true, wantStart: day(5, 23, 0, 0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, ok := sched.SessionAt(tt.t, grace)
			if ok != tt.wantOK {
				t.Fatalf("SessionAt(%v) ok = %v, want %v", tt.t, ok, tt.wantOK)
			}
			if ok && !s.Start.Equal(tt.wantStart) {
				t.Errorf("SessionAt(%v) start = %v, want %v", tt.t, s.Start, tt.wantStart)
			}
		})
	}
}

func TestSchedule_Occurrences(t *testing.T) {
	sched := Schedule{
		{Day: time.Monday, Start: 9 * 60, End: 10 * 60},
		{Day: time.Wednesday, Start: 14 * 60, End: 16 * 60},
	}

	// Mon 2026-01-05 .. Sun 2026-01-11
	from := time.Date(2026, time.January, 5, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 7).Add(-time.Nanosecond)

	starts := sched.Occurrences(from, to)
	if len(starts) != 2 {
		t.Fatalf("Occurrences() = %d starts, want 2", len(starts))
	}
	wantFirst := time.Date(2026, time.January, 5, 9, 0, 0, 0, time.UTC)
	wantSecond := time.Date(2026, time.January, 7, 14, 0, 0, 0, time.UTC)
	if !starts[0].Equal(wantFirst) || !starts[1].Equal(wantSecond) {
		t.Errorf("Occurrences() = %v, want [%v %v]", starts, wantFirst, wantSecond)
	}

	// a window before any slot
	if starts := sched.Occurrences(from.Add(-48*time.Hour), from.Add(-24*time.Hour)); len(starts) != 0 {
		t.Errorf("Occurrences() outside window = %v, want none", starts)
	}

	// two full weeks double the count
	if starts := sched.Occurrences(from, from.AddDate(0, 0, 14).Add(-time.Nanosecond)); len(starts) != 4 {
		t.Errorf("Occurrences() over two weeks = %d starts, want 4", len(starts))
	}
}
