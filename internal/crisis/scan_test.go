package crisis_test

import (
	"testing"

	"github.com/randomtoy/arcana-go/internal/crisis"
)

func scanner(t *testing.T) *crisis.Scanner {
	t.Helper()
	s, err := crisis.Default()
	if err != nil {
		t.Fatalf("load embedded patterns: %v", err)
	}
	return s
}

func TestScan_Matches(t *testing.T) {
	s := scanner(t)
	tests := []struct {
		text     string
		category string
	}{
		{"I've been thinking about killing myself", "self_harm"},
		{"lately I just want to die", "self_harm"},
		{"I don't want to wake up anymore", "self_harm"},
		{"there's no reason to go on", "self_harm"},
		{"I keep having a panic attack every morning", "mental_health"},
		{"I can't stop crying since Tuesday", "mental_health"},
		{"I'm hearing voices when I try to sleep", "mental_health"},
		{"my chest pain is getting worse, should I pull a card?", "medical"},
		{"I think he took an overdose", "medical"},
	}

	for _, tc := range tests {
		t.Run(tc.category+"/"+tc.text[:18], func(t *testing.T) {
			res := s.Scan(tc.text)
			if !res.Matched {
				t.Fatalf("expected match for %q", tc.text)
			}
			found := false
			for _, c := range res.Categories {
				if c == tc.category {
					found = true
				}
			}
			if !found {
				t.Errorf("expected category %s, got %v", tc.category, res.Categories)
			}
		})
	}
}

func TestScan_BenignQuestions(t *testing.T) {
	s := scanner(t)
	benign := []string{
		"Will my job search turn a corner this fall?",
		"What should I know about my relationship?",
		"I feel stuck creatively, what energy surrounds me?",
		"My startup is dying, is it worth saving?",
		"This deadline is killing me, what should I prioritize?",
		"",
	}
	for _, q := range benign {
		if res := s.Scan(q); res.Matched {
			t.Errorf("false positive on %q: %v", q, res.Categories)
		}
	}
}

func TestScan_MultipleTexts(t *testing.T) {
	s := scanner(t)
	res := s.Scan("Will it work out?", "some days I want to hurt myself")
	if !res.Matched {
		t.Fatal("expected match across texts")
	}
	if res.Reason() != "crisis_self_harm" {
		t.Errorf("unexpected reason %q", res.Reason())
	}
}

func TestScan_NoMatchReason(t *testing.T) {
	s := scanner(t)
	if got := s.Scan("all quiet").Reason(); got != "" {
		t.Errorf("expected empty reason, got %q", got)
	}
}
