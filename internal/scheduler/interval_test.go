package scheduler

import (
	"errors"
	"testing"
	"time"
)

func at(hour, minute int) time.Time {
	return time.Date(2024, time.March, 1, hour, minute, 0, 0, time.UTC)
}

func TestOverlaps(t *testing.T) {
	cases := []struct {
		name string
		a    Interval
		b    Interval
		want bool
	}{
		{name: "touching intervals do not overlap", a: Interval{at(10, 0), at(11, 0)}, b: Interval{at(11, 0), at(12, 0)}, want: false},
		{name: "partial overlap", a: Interval{at(10, 0), at(11, 0)}, b: Interval{at(10, 30), at(11, 30)}, want: true},
		{name: "containment", a: Interval{at(9, 0), at(12, 0)}, b: Interval{at(10, 0), at(10, 30)}, want: true},
		{name: "identical", a: Interval{at(9, 0), at(9, 30)}, b: Interval{at(9, 0), at(9, 30)}, want: true},
		{name: "disjoint", a: Interval{at(8, 0), at(8, 30)}, b: Interval{at(15, 0), at(16, 0)}, want: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Overlaps(tc.a, tc.b); got != tc.want {
				t.Fatalf("Overlaps(a, b) = %v, want %v", got, tc.want)
			}
			if got := Overlaps(tc.b, tc.a); got != tc.want {
				t.Fatalf("Overlaps(b, a) = %v, want %v", got, tc.want)
			}
			if got := tc.a.Overlaps(tc.b); got != tc.want {
				t.Fatalf("a.Overlaps(b) = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestCombine(t *testing.T) {
	t.Run("joins date and time in the location", func(t *testing.T) {
		loc := time.FixedZone("AST", 3*60*60)
		got, err := Combine("2024-03-01", "09:30", loc)
		if err != nil {
			t.Fatalf("Combine returned error: %v", err)
		}
		want := time.Date(2024, time.March, 1, 9, 30, 0, 0, loc)
		if !got.Equal(want) {
			t.Fatalf("expected %v, got %v", want, got)
		}
	})

	t.Run("defaults to UTC", func(t *testing.T) {
		got, err := Combine("2024-03-01", "09:00", nil)
		if err != nil {
			t.Fatalf("Combine returned error: %v", err)
		}
		if !got.Equal(at(9, 0)) {
			t.Fatalf("expected %v, got %v", at(9, 0), got)
		}
	})

	t.Run("rejects malformed date", func(t *testing.T) {
		if _, err := Combine("01/03/2024", "09:00", nil); !errors.Is(err, ErrInvalidDate) {
			t.Fatalf("expected ErrInvalidDate, got %v", err)
		}
	})

	t.Run("rejects malformed time", func(t *testing.T) {
		for _, clock := range []string{"9am", "25:00", "9:00", ""} {
			if _, err := Combine("2024-03-01", clock, nil); !errors.Is(err, ErrInvalidClock) {
				t.Fatalf("expected ErrInvalidClock for %q, got %v", clock, err)
			}
		}
	})
}

func TestAddMinutesAndSplit(t *testing.T) {
	end := AddMinutes(at(9, 0), 45)
	if !end.Equal(at(9, 45)) {
		t.Fatalf("expected 09:45, got %v", end)
	}

	date, clock := Split(AddMinutes(at(23, 30), 60), time.UTC)
	if date != "2024-03-02" || clock != "00:30" {
		t.Fatalf("expected 2024-03-02 00:30, got %s %s", date, clock)
	}

	if d := NewInterval(at(9, 0), 90).Duration(); d != 90*time.Minute {
		t.Fatalf("expected 90m interval, got %s", d)
	}
}
