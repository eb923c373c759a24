// Package crisis runs the pre-generation safety scan over raw user text.
// It is the first pipeline stage: a match short-circuits analysis, retrieval,
// and generation entirely.
package crisis

import (
	_ "embed"
	"fmt"
	"regexp"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed patterns.yaml
var patternsYAML []byte

// Result is the scan outcome. Categories lists every matched category in
// table order.
type Result struct {
	Matched    bool
	Categories []string
}

// Reason returns the gate reason string for the first matched category.
func (r Result) Reason() string {
	if !r.Matched || len(r.Categories) == 0 {
		return ""
	}
	return "crisis_" + r.Categories[0]
}

type category struct {
	Name     string   `yaml:"name"`
	Patterns []string `yaml:"patterns"`
}

type patternFile struct {
	Categories []category `yaml:"categories"`
}

type compiledCategory struct {
	name     string
	patterns []*regexp.Regexp
}

// Scanner matches raw user text against the fixed crisis pattern table.
type Scanner struct {
	categories []compiledCategory
}

var (
	defaultOnce    sync.Once
	defaultScanner *Scanner
	defaultErr     error
)

// Default returns the scanner built from the embedded pattern table. The
// table ships with the binary, so a compile failure is a build defect.
func Default() (*Scanner, error) {
	defaultOnce.Do(func() {
		defaultScanner, defaultErr = Parse(patternsYAML)
	})
	return defaultScanner, defaultErr
}

// Parse builds a scanner from a YAML pattern table.
func Parse(raw []byte) (*Scanner, error) {
	var pf patternFile
	if err := yaml.Unmarshal(raw, &pf); err != nil {
		return nil, fmt.Errorf("parse crisis patterns: %w", err)
	}
	if len(pf.Categories) == 0 {
		return nil, fmt.Errorf("crisis pattern table is empty")
	}

	s := &Scanner{categories: make([]compiledCategory, 0, len(pf.Categories))}
	for _, cat := range pf.Categories {
		cc := compiledCategory{name: cat.Name}
		for _, p := range cat.Patterns {
			re, err := regexp.Compile(p)
			if err != nil {
				return nil, fmt.Errorf("crisis pattern %q in %s: %w", p, cat.Name, err)
			}
			cc.patterns = append(cc.patterns, re)
		}
		s.categories = append(s.categories, cc)
	}
	return s, nil
}

// Scan checks every text against every category. Each category is reported
// at most once regardless of how many texts match it.
func (s *Scanner) Scan(texts ...string) Result {
	var res Result
	for _, cat := range s.categories {
		if matchesAny(cat.patterns, texts) {
			res.Matched = true
			res.Categories = append(res.Categories, cat.name)
		}
	}
	return res
}

func matchesAny(patterns []*regexp.Regexp, texts []string) bool {
	for _, t := range texts {
		if t == "" {
			continue
		}
		for _, re := range patterns {
			if re.MatchString(t) {
				return true
			}
		}
	}
	return false
}
