package interest

import "testing"

func TestStartAndEndOfWeek(t *testing.T) {
	cases := []struct {
		in, start, end string
	}{
		{"2024-01-01", "2024-01-01", "2024-01-07"}, // Monday
		{"2024-01-03", "2024-01-01", "2024-01-07"},
		{"2024-01-07", "2024-01-01", "2024-01-07"}, // Sunday stays in the same week
		{"2024-01-08", "2024-01-08", "2024-01-14"},
		{"2024-03-01", "2024-02-26", "2024-03-03"}, // across a leap day
	}
	for _, tc := range cases {
		in := mustDate(t, tc.in)
		if got := startOfWeek(in).String(); got != tc.start {
			t.Errorf("startOfWeek(%s) = %s, want %s", tc.in, got, tc.start)
		}
		if got := endOfWeek(in).String(); got != tc.end {
			t.Errorf("endOfWeek(%s) = %s, want %s", tc.in, got, tc.end)
		}
	}
}

func TestWholeWeeksBetween(t *testing.T) {
	cases := []struct {
		later, earlier string
		want           int64
	}{
		{"2024-01-01", "2024-01-01", 0},
		{"2024-01-07", "2024-01-01", 0},
		{"2024-01-08", "2024-01-01", 1},
		{"2024-01-14", "2024-01-01", 1},
		{"2024-01-15", "2024-01-01", 2},
		{"2024-01-01", "2024-01-14", -1},
		{"2024-12-30", "2023-12-31", 52},
	}
	for _, tc := range cases {
		got := wholeWeeksBetween(mustDate(t, tc.later), mustDate(t, tc.earlier))
		if got != tc.want {
			t.Errorf("wholeWeeksBetween(%s, %s) = %d, want %d", tc.later, tc.earlier, got, tc.want)
		}
	}
}

func TestFilterContains(t *testing.T) {
	f := Filter{Start: d(2024, 1, 5), End: d(2024, 1, 10)}
	cases := map[string]bool{
		"2024-01-04": false,
		"2024-01-05": true,
		"2024-01-10": true,
		"2024-01-11": false,
	}
	for in, want := range cases {
		if got := f.Contains(mustDate(t, in)); got != want {
			t.Errorf("Contains(%s) = %v, want %v", in, got, want)
		}
	}
	if !(Filter{}).Contains(d(1999, 1, 1)) {
		t.Fatalf("open filter should contain every date")
	}
}
