package domain

import "fmt"

// Weight is the narrative emphasis a spread assigns to a position.
type Weight string

const (
	WeightHigh   Weight = "high"
	WeightMedium Weight = "medium"
	WeightLow    Weight = "low"
)

// Position is one slot in a spread topology. Index is 1-based and matches
// DrawnCard.Position.
type Position struct {
	Index  int    `yaml:"index" json:"index"`
	Key    string `yaml:"key" json:"key"`
	Title  string `yaml:"title" json:"title"`
	Hook   string `yaml:"hook" json:"hook"`
	Weight Weight `yaml:"weight" json:"weight"`
}

// Pair declares a relationship between two positions that the analyzer
// tags (e.g. a core-tension pair or a timeline link).
type Pair struct {
	A   int    `yaml:"a" json:"a"`
	B   int    `yaml:"b" json:"b"`
	Tag string `yaml:"tag" json:"tag"`
}

// SpreadDefinition is the full topology of a named spread: its positions,
// the position pairs the analyzer relates, and the order narrative sections
// appear in.
type SpreadDefinition struct {
	Key       string     `yaml:"key" json:"key"`
	Name      string     `yaml:"name" json:"name"`
	Positions []Position `yaml:"positions" json:"positions"`
	Pairs     []Pair     `yaml:"pairs" json:"pairs"`
}

// Sections returns the narrative section titles in spread order. One
// section per position.
func (s SpreadDefinition) Sections() []string {
	out := make([]string, len(s.Positions))
	for i, p := range s.Positions {
		out[i] = p.Title
	}
	return out
}

// PositionAt returns the position with the given 1-based index.
func (s SpreadDefinition) PositionAt(index int) (Position, bool) {
	for _, p := range s.Positions {
		if p.Index == index {
			return p, true
		}
	}
	return Position{}, false
}

// Validate checks internal consistency of a spread definition. Definitions
// ship embedded with the binary, so a failure here is a build defect.
func (s SpreadDefinition) Validate() error {
	if s.Key == "" {
		return fmt.Errorf("spread has empty key")
	}
	if len(s.Positions) == 0 {
		return fmt.Errorf("spread %s has no positions", s.Key)
	}
	seen := make(map[int]bool, len(s.Positions))
	for i, p := range s.Positions {
		if p.Index != i+1 {
			return fmt.Errorf("spread %s: position %d has index %d, want %d", s.Key, i, p.Index, i+1)
		}
		if seen[p.Index] {
			return fmt.Errorf("spread %s: duplicate position index %d", s.Key, p.Index)
		}
		seen[p.Index] = true
		switch p.Weight {
		case WeightHigh, WeightMedium, WeightLow:
		default:
			return fmt.Errorf("spread %s position %d: invalid weight %q", s.Key, p.Index, p.Weight)
		}
	}
	for _, pr := range s.Pairs {
		if !seen[pr.A] || !seen[pr.B] {
			return fmt.Errorf("spread %s: pair %s references unknown position", s.Key, pr.Tag)
		}
		if pr.A == pr.B {
			return fmt.Errorf("spread %s: pair %s relates a position to itself", s.Key, pr.Tag)
		}
	}
	return nil
}
