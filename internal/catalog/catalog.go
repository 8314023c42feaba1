// Package catalog holds the reference data the ledger and the classifier
// depend on: fame levels, truth ratings and expertise areas.
package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"famefeed/internal/models"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

//go:embed catalog.yml
var defaultCatalog []byte

// Level is a fame level entry.
type Level struct {
	Name         string `yaml:"name"`
	NumericValue int    `yaml:"numeric_value"`
}

// Rating is a truth rating plus the phrases that indicate it.
type Rating struct {
	Name         string   `yaml:"name"`
	NumericValue int      `yaml:"numeric_value"`
	Markers      []string `yaml:"markers"`
}

// Area is an expertise area plus the keywords that place content in it.
type Area struct {
	Label    string   `yaml:"label"`
	Keywords []string `yaml:"keywords"`
}

// Catalog is the full reference data set.
type Catalog struct {
	FameLevels     []Level  `yaml:"fame_levels"`
	TruthRatings   []Rating `yaml:"truth_ratings"`
	ExpertiseAreas []Area   `yaml:"expertise_areas"`
}

// Default returns the catalog embedded in the binary.
func Default() (*Catalog, error) {
	return Parse(defaultCatalog)
}

// Load reads a catalog file, or the embedded default when path is empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	return Parse(raw)
}

// Parse decodes and validates a YAML catalog.
func Parse(raw []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks the uniqueness rules the database also enforces.
func (c *Catalog) Validate() error {
	names := map[string]bool{}
	values := map[int]bool{}
	for _, l := range c.FameLevels {
		if strings.TrimSpace(l.Name) == "" {
			return fmt.Errorf("fame level with empty name")
		}
		if names[l.Name] {
			return fmt.Errorf("duplicate fame level %q", l.Name)
		}
		if values[l.NumericValue] {
			return fmt.Errorf("fame level %q reuses numeric value %d", l.Name, l.NumericValue)
		}
		names[l.Name] = true
		values[l.NumericValue] = true
	}

	ratings := map[string]bool{}
	for _, r := range c.TruthRatings {
		if strings.TrimSpace(r.Name) == "" || ratings[r.Name] {
			return fmt.Errorf("invalid or duplicate truth rating %q", r.Name)
		}
		ratings[r.Name] = true
	}

	labels := map[string]bool{}
	for _, a := range c.ExpertiseAreas {
		if strings.TrimSpace(a.Label) == "" || labels[a.Label] {
			return fmt.Errorf("invalid or duplicate expertise area %q", a.Label)
		}
		labels[a.Label] = true
	}
	return nil
}

// HasLevel reports whether the catalog defines a fame level called name.
func (c *Catalog) HasLevel(name string) bool {
	for _, l := range c.FameLevels {
		if l.Name == name {
			return true
		}
	}
	return false
}

// Seed upserts the catalog in one transaction. Rows are matched by their
// natural key, so running it again only refreshes numeric values.
func Seed(db *gorm.DB, c *Catalog) error {
	return db.Transaction(func(tx *gorm.DB) error {
		for _, l := range c.FameLevels {
			level := models.FameLevel{Name: l.Name, NumericValue: l.NumericValue}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "name"}},
				DoUpdates: clause.AssignmentColumns([]string{"numeric_value"}),
			}).Create(&level).Error; err != nil {
				return fmt.Errorf("seed fame level %s: %w", l.Name, err)
			}
		}
		for _, r := range c.TruthRatings {
			rating := models.TruthRating{Name: r.Name, NumericValue: r.NumericValue}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "name"}},
				DoUpdates: clause.AssignmentColumns([]string{"numeric_value"}),
			}).Create(&rating).Error; err != nil {
				return fmt.Errorf("seed truth rating %s: %w", r.Name, err)
			}
		}
		for _, a := range c.ExpertiseAreas {
			area := models.ExpertiseArea{Label: a.Label}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "label"}},
				DoNothing: true,
			}).Create(&area).Error; err != nil {
				return fmt.Errorf("seed expertise area %s: %w", a.Label, err)
			}
		}
		return nil
	})
}
