package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Catalog holds the taxonomies used to validate and filter submissions.
// It's easier to maintain these lists in YAML than in env vars.
type Catalog struct {
	SDGs               []SDG    `yaml:"sdgs"`
	IFRCChallenges     []Entry  `yaml:"ifrc_challenges"`
	ProjectCategories  []Entry  `yaml:"project_categories"`
	WatchdogCategories []Entry  `yaml:"watchdog_categories"`
	Currencies         []string `yaml:"currencies"`
}

// SDG is one UN Sustainable Development Goal.
type SDG struct {
	Number int    `yaml:"number"`
	Name   string `yaml:"name"`
}

// Entry is a slug/name pair.
type Entry struct {
	Slug string `yaml:"slug"`
	Name string `yaml:"name"`
}

// LoadCatalog loads the catalog from path, or the embedded default when path
// is empty.
func LoadCatalog(path string) (*Catalog, error) {
	data := defaultCatalog
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read catalog: %w", err)
		}
		data = b
	}
	return ParseCatalog(data)
}

// ParseCatalog decodes a YAML catalog.
func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	return &c, nil
}

// DefaultCatalog returns the embedded catalog. It panics if the embedded file
// is malformed.
func DefaultCatalog() *Catalog {
	c, err := ParseCatalog(defaultCatalog)
	if err != nil {
		panic(err)
	}
	return c
}

// HasSDG returns true if n is a known goal number.
func (c *Catalog) HasSDG(n int) bool {
	if c == nil {
		return false
	}
	for _, s := range c.SDGs {
		if s.Number == n {
			return true
		}
	}
	return false
}

// HasIFRCChallenge returns true if slug is a known IFRC challenge.
func (c *Catalog) HasIFRCChallenge(slug string) bool {
	return c != nil && hasSlug(c.IFRCChallenges, slug)
}

// HasProjectCategory returns true if slug is a known project category.
func (c *Catalog) HasProjectCategory(slug string) bool {
	return c != nil && hasSlug(c.ProjectCategories, slug)
}

// HasWatchdogCategory returns true if slug is a known watchdog category.
func (c *Catalog) HasWatchdogCategory(slug string) bool {
	return c != nil && hasSlug(c.WatchdogCategories, slug)
}

// HasCurrency returns true if code is an accepted ISO currency code.
func (c *Catalog) HasCurrency(code string) bool {
	if c == nil {
		return false
	}
	for _, cur := range c.Currencies {
		if cur == code {
			return true
		}
	}
	return false
}

// SDGName returns the display name for goal n.
func (c *Catalog) SDGName(n int) string {
	for _, s := range c.SDGs {
		if s.Number == n {
			return s.Name
		}
	}
	return ""
}

func hasSlug(entries []Entry, slug string) bool {
	for _, e := range entries {
		if e.Slug == slug {
			return true
		}
	}
	return false
}
