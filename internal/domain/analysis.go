package domain

// ElementCounts tallies drawn cards per element. A struct rather than a map
// so two identical analyses compare byte-identical.
type ElementCounts struct {
	Fire  int `json:"fire"`
	Water int `json:"water"`
	Air   int `json:"air"`
	Earth int `json:"earth"`
}

// Of returns the count for a single element.
func (e ElementCounts) Of(el Element) int {
	switch el {
	case Fire:
		return e.Fire
	case Water:
		return e.Water
	case Air:
		return e.Air
	case Earth:
		return e.Earth
	}
	return 0
}

// Total returns the sum over all elements.
func (e ElementCounts) Total() int {
	return e.Fire + e.Water + e.Air + e.Earth
}

// Relationship is a tagged dynamic between two positions of the spread.
type Relationship struct {
	Tag     string `json:"tag"`
	A       int    `json:"a"`
	B       int    `json:"b"`
	Dynamic string `json:"dynamic"`
}

// Emphasis is the narrative weight of one position.
type Emphasis struct {
	Position int    `json:"position"`
	Weight   Weight `json:"weight"`
}

// ArchetypePattern is a recognized higher-order combination among the drawn
// cards.
type ArchetypePattern struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Cards       []string `json:"cards"`
}

// SymbolicAnalysis is the deterministic structural reading of a spread.
// Computed once per request and never mutated afterwards.
type SymbolicAnalysis struct {
	SpreadKey     string             `json:"spread_key"`
	Elements      ElementCounts      `json:"elements"`
	Dominant      Element            `json:"dominant,omitempty"`
	Missing       []Element          `json:"missing,omitempty"`
	MajorCount    int                `json:"major_count"`
	ReversedCount int                `json:"reversed_count"`
	Relationships []Relationship     `json:"relationships"`
	Emphasis      []Emphasis         `json:"emphasis"`
	Patterns      []ArchetypePattern `json:"patterns"`
}
