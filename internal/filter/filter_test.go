package filter

import "testing"

func TestContainsProhibited(t *testing.T) {
	f := New()

	dirty := []string{
		"this is shit",
		"Fuck this assignment",
		"what the HELL",
		"sh1t happens",
		"b!tch",
		"a$$hole",
	}
	for _, text := range dirty {
		if !f.ContainsProhibited(text) {
			t.Fatalf("expected %q to be flagged", text)
		}
	}

	clean := []string{
		"",
		"when is the exam scheduled?",
		"the classic assessment was hard", // substrings must not match
		"I passed the class",
		"shell scripting question",
	}
	for _, text := range clean {
		if f.ContainsProhibited(text) {
			t.Fatalf("expected %q to be clean", text)
		}
	}
}

func TestContainsProhibitedExtraWords(t *testing.T) {
	f := New("verboten")
	if !f.ContainsProhibited("this is verboten content") {
		t.Fatalf("expected extra word to be flagged")
	}
	if New().ContainsProhibited("this is verboten content") {
		t.Fatalf("extra word must not leak into default list")
	}
}

func TestCensor(t *testing.T) {
	f := New()
	if got := f.Censor("this is shit, really"); got != "this is ****, really" {
		t.Fatalf("unexpected censor output %q", got)
	}
	if got := f.Censor("all clean here"); got != "all clean here" {
		t.Fatalf("clean text must be untouched, got %q", got)
	}
	if got := f.Censor("sh1t"); got != "****" {
		t.Fatalf("expected normalized token censored, got %q", got)
	}
}
