package services

import (
	"fmt"
	"io"
	"os"

	"leetclone/internal/models"

	"gopkg.in/yaml.v3"
)

// FixtureSet indexes problem fixtures by slug. It is read-only after load.
type FixtureSet struct {
	bySlug map[string][]models.TestCase
}

// LoadFixtures reads a program skeleton file. JSON files are accepted since
// they are valid YAML.
func LoadFixtures(path string) (*FixtureSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open fixtures: %w", err)
	}
	defer f.Close()
	return ParseFixtures(f)
}

func ParseFixtures(r io.Reader) (*FixtureSet, error) {
	var fixtures []models.ProblemFixture
	if err := yaml.NewDecoder(r).Decode(&fixtures); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode fixtures: %w", err)
	}
	return NewFixtureSet(fixtures), nil
}

// NewFixtureSet keeps the first entry when a slug appears twice.
func NewFixtureSet(fixtures []models.ProblemFixture) *FixtureSet {
	set := &FixtureSet{bySlug: make(map[string][]models.TestCase, len(fixtures))}
	for _, fx := range fixtures {
		if fx.SlugName == "" {
			continue
		}
		if _, dup := set.bySlug[fx.SlugName]; dup {
			continue
		}
		set.bySlug[fx.SlugName] = fx.TestCases
	}
	return set
}

// Cases returns a copy of the fixture cases of titleSlug.
func (s *FixtureSet) Cases(titleSlug string) ([]models.TestCase, bool) {
	cases, ok := s.bySlug[titleSlug]
	if !ok {
		return nil, false
	}
	out := make([]models.TestCase, len(cases))
	copy(out, cases)
	return out, true
}

func (s *FixtureSet) Len() int {
	return len(s.bySlug)
}
