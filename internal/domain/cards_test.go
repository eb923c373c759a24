package domain_test

import (
	"testing"

	"github.com/randomtoy/arcana-go/internal/domain"
)

func TestNormalizeCardName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"The Fool", "fool"},
		{"the fool,", "fool"},
		{"Fool", "fool"},
		{"  The  High  Priestess  ", "high priestess"},
		{"The Tower!", "tower"},
		{"'The Star'", "star"},
		{"", ""},
	}
	for _, tc := range tests {
		if got := domain.NormalizeCardName(tc.in); got != tc.want {
			t.Errorf("NormalizeCardName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSuitElement(t *testing.T) {
	tests := []struct {
		suit domain.Suit
		want domain.Element
	}{
		{domain.SuitWands, domain.Fire},
		{domain.SuitCups, domain.Water},
		{domain.SuitSwords, domain.Air},
		{domain.SuitPentacles, domain.Earth},
		{domain.SuitMajor, ""},
	}
	for _, tc := range tests {
		if got := domain.SuitElement(tc.suit); got != tc.want {
			t.Errorf("SuitElement(%s) = %s, want %s", tc.suit, got, tc.want)
		}
	}
}

func TestCardHook(t *testing.T) {
	c := domain.Card{Upright: "a beginning", Reversed: "a hesitation"}
	if got := c.Hook(domain.Upright); got != "a beginning" {
		t.Errorf("upright hook %q", got)
	}
	if got := c.Hook(domain.Reversed); got != "a hesitation" {
		t.Errorf("reversed hook %q", got)
	}
}
