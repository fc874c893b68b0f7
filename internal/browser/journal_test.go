package browser

import "testing"

func TestJournal_RecordAndSnapshot(t *testing.T) {
	j := NewJournal()

	j.AddPage("https://example.com")
	j.Record("navigate", "https://example.com", "Navigated", true)
	j.Record("click", "a.broken", "No elements found", false)
	j.AddPage("https://example.com/page2")

	path := j.Path()
	if len(path) != 2 {
		t.Fatalf("Path() has %d entries, want 2", len(path))
	}
	if path[1] != "https://example.com/page2" {
		t.Errorf("Path()[1] = %q", path[1])
	}

	interactions := j.Interactions()
	if len(interactions) != 2 {
		t.Fatalf("Interactions() has %d entries, want 2", len(interactions))
	}
	if interactions[0].Action != "navigate" || !interactions[0].Success {
		t.Errorf("first interaction = %+v", interactions[0])
	}
	if interactions[1].Success {
		t.Error("failed click recorded as success")
	}
}

func TestJournal_AddPage_CollapsesRepeats(t *testing.T) {
	j := NewJournal()

	j.AddPage("https://example.com")
	j.AddPage("https://example.com")
	j.AddPage("https://example.com/next")
	j.AddPage("https://example.com")

	if got := len(j.Path()); got != 3 {
		t.Errorf("Path() has %d entries, want 3", got)
	}
}

func TestJournal_SuccessRate(t *testing.T) {
	tests := []struct {
		name    string
		outcome []bool
		want    float64
	}{
		{"empty journal", nil, 1.0},
		{"all successful", []bool{true, true}, 1.0},
		{"half successful", []bool{true, false}, 0.5},
		{"none successful", []bool{false, false, false}, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			j := NewJournal()
			for _, ok := range tt.outcome {
				j.Record("click", "a", "", ok)
			}
			if got := j.SuccessRate(); got != tt.want {
				t.Errorf("SuccessRate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestJournal_TruncatesLongOutcomes(t *testing.T) {
	j := NewJournal()

	long := make([]byte, 1000)
	for i := range long {
		long[i] = 'x'
	}
	j.Record("extract_text", "body", string(long), true)

	got := j.Interactions()[0].Outcome
	if len(got) > 310 {
		t.Errorf("outcome length = %d, want truncated", len(got))
	}
}
