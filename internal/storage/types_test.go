package storage

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestParseTimeframe(t *testing.T) {
	tests := []struct {
		input   string
		want    Timeframe
		wantErr bool
	}{
		{"daily", TimeframeDaily, false},
		{" Week ", TimeframeWeekly, false},
		{"MONTHLY", TimeframeMonthly, false},
		{"month", TimeframeMonthly, false},
		{"yearly", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		got, err := ParseTimeframe(tt.input)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalid) {
				t.Errorf("ParseTimeframe(%q): expected ErrInvalid, got %v", tt.input, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParseTimeframe(%q) = %q, %v; want %q", tt.input, got, err, tt.want)
		}
	}
}

func TestTimeframeUnmarshalJSON(t *testing.T) {
	var goal Goal
	if err := json.Unmarshal([]byte(`{"id":"g1","timeframe":"Weekly"}`), &goal); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if goal.Timeframe != TimeframeWeekly {
		t.Errorf("expected weekly, got %q", goal.Timeframe)
	}

	if err := json.Unmarshal([]byte(`{"timeframe":"fortnightly"}`), &goal); !errors.Is(err, ErrInvalid) {
		t.Errorf("expected ErrInvalid, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		check   func() error
		wantErr bool
	}{
		{"activity ok", Activity{ID: "a", Name: "Reading"}.Validate, false},
		{"activity blank name", Activity{ID: "a", Name: "  "}.Validate, true},
		{"activity no id", Activity{Name: "Reading"}.Validate, true},
		{"entry ok", TimeEntry{ID: "e", ActivityID: "a"}.Validate, false},
		{"entry negative", TimeEntry{ID: "e", ActivityID: "a", Duration: -time.Second}.Validate, true},
		{"entry no activity", TimeEntry{ID: "e"}.Validate, true},
		{"goal ok", Goal{ID: "g", ActivityID: "a", TargetHours: 1.5, Timeframe: TimeframeDaily}.Validate, false},
		{"goal zero target", Goal{ID: "g", ActivityID: "a", Timeframe: TimeframeDaily}.Validate, true},
		{"goal bad timeframe", Goal{ID: "g", ActivityID: "a", TargetHours: 1, Timeframe: "hourly"}.Validate, true},
	}

	for _, tt := range tests {
		err := tt.check()
		if tt.wantErr && !errors.Is(err, ErrInvalid) {
			t.Errorf("%s: expected ErrInvalid, got %v", tt.name, err)
		}
		if !tt.wantErr && err != nil {
			t.Errorf("%s: unexpected error %v", tt.name, err)
		}
	}
}

func TestGoalTarget(t *testing.T) {
	g := Goal{TargetHours: 1.5}
	if got := g.Target(); got != 90*time.Minute {
		t.Errorf("expected 90m, got %v", got)
	}
}

func TestEntryFilterMatches(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC) }
	start, end := day(2), day(4)
	entry := func(activity string, d int) TimeEntry {
		return TimeEntry{ID: "e", ActivityID: activity, Date: day(d)}
	}

	filter := EntryFilter{ActivityID: "a", Start: &start, End: &end}

	tests := []struct {
		entry TimeEntry
		want  bool
	}{
		{entry("a", 2), true},
		{entry("a", 4), true},
		{entry("a", 1), false},
		{entry("a", 5), false},
		{entry("b", 3), false},
	}

	for _, tt := range tests {
		if got := filter.Matches(tt.entry); got != tt.want {
			t.Errorf("Matches(%s on %s) = %v, want %v", tt.entry.ActivityID, tt.entry.Date.Format(time.DateOnly), got, tt.want)
		}
	}

	if !(EntryFilter{}).Matches(entry("z", 9)) {
		t.Error("empty filter should match everything")
	}
}

func TestSortEntries(t *testing.T) {
	base := time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC)
	entries := []TimeEntry{
		{ID: "c", StartTime: base.Add(time.Hour)},
		{ID: "b", StartTime: base},
		{ID: "a", StartTime: base},
	}
	SortEntries(entries)

	got := entries[0].ID + entries[1].ID + entries[2].ID
	if got != "abc" {
		t.Errorf("expected order abc, got %s", got)
	}
}
