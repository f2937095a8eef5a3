package similarity

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  Review   Q3 Report ", "review q3 report"},
		{"Lunch w/ Sam!", "lunch w sam"},
		{"", ""},
	}
	for _, test := range tests {
		if got := Normalize(test.in); got != test.want {
			t.Fatalf("Normalize(%q) = %q, want %q", test.in, got, test.want)
		}
	}
}

func TestRatioBounds(t *testing.T) {
	if got := Ratio("Q4 budget review", "q4 Budget Review "); got != 1 {
		t.Fatalf("case/whitespace variants must score 1, got %f", got)
	}
	if got := Ratio("", ""); got != 1 {
		t.Fatalf("two empty titles score 1, got %f", got)
	}
	if got := Ratio("alpha", ""); got != 0 {
		t.Fatalf("empty against non-empty scores 0, got %f", got)
	}
	if got := Ratio("standup", "dentist"); got >= DefaultThreshold {
		t.Fatalf("unrelated titles must stay below the threshold, got %f", got)
	}
}

func TestTitlesAreSimilar(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
		want bool
	}{
		{"numbered_bulk_variants", "Bulk test task 1", "Bulk test task 2", false},
		{"numbered_prefix_variants", "1. Standup notes", "2. Standup notes", false},
		{"close_phrasing", "Review Q3 report", "Review the Q3 report", true},
		{"case_and_trailing_space", "Q4 budget review", "Q4 Budget Review ", true},
		{"same_numbers_kept", "Sprint 12 planning", "Sprint 12 planning!", true},
		{"unrelated", "Dentist appointment", "Quarterly earnings call", false},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := TitlesAreSimilar(test.a, test.b, 0); got != test.want {
				t.Fatalf("TitlesAreSimilar(%q, %q) = %v, want %v", test.a, test.b, got, test.want)
			}
		})
	}
}

func TestNumericExceptionBeatsRatio(t *testing.T) {
	// Ratio is far above any threshold, but the numeric tokens differ and the
	// stripped titles agree, so the pair must never be similar.
	if Ratio("Weekly report 7", "Weekly report 8") < DefaultThreshold {
		t.Fatal("precondition: the ratio itself should exceed the threshold")
	}
	if TitlesAreSimilar("Weekly report 7", "Weekly report 8", 0) {
		t.Fatal("numbered variants must not be similar")
	}
}

func TestGeneratedTitlesUseStrictThreshold(t *testing.T) {
	// Shares most of the text but differs in the trailing word; above 0.85
	// yet below 0.95, so the bulk/test leniency rejects it.
	a := "Bulk migration test run alpha"
	b := "Bulk migration test run bravo"
	ratio := Ratio(a, b)
	if ratio < DefaultThreshold || ratio >= StrictThreshold {
		t.Fatalf("precondition: ratio %f should sit between thresholds", ratio)
	}
	if TitlesAreSimilar(a, b, 0) {
		t.Fatal("generated titles below the strict threshold must not match")
	}
	if !TitlesAreSimilar("Bulk migration test run", "Bulk migration test run ", 0) {
		t.Fatal("identical generated titles must still match")
	}
}

func TestExplicitThresholdOverride(t *testing.T) {
	if !TitlesAreSimilar("Plan offsite", "Plan the offsite", 0.5) {
		t.Fatal("a permissive threshold should accept close titles")
	}
	if TitlesAreSimilar("Plan offsite", "Plan the offsite agenda review", 0.99) {
		t.Fatal("a strict threshold should reject loose matches")
	}
}
