// Package seed provides helpers to create demo data for the feed engine.
// These helpers are intended for development and testing only.
package seed

import (
	"fmt"
	"strings"
	"time"

	"famefeed/internal/catalog"
	"famefeed/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
)

// Factory builds domain entities and persists them to the database.
type Factory struct {
	db      *gorm.DB
	faker   *gofakeit.Faker
	catalog *catalog.Catalog
	nextID  int
}

// NewFactory creates a Factory. A zero seed picks a random one.
func NewFactory(db *gorm.DB, cat *catalog.Catalog, seed int64) *Factory {
	return &Factory{db: db, faker: gofakeit.New(seed), catalog: cat}
}

// CreateUser constructs and persists an active user who joined within the
// last two years. Optional overrides run before saving.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	f.nextID++
	first, last := f.faker.FirstName(), f.faker.LastName()
	user := &models.User{
		Email:      fmt.Sprintf("%s.%s.%d@example.com", strings.ToLower(first), strings.ToLower(last), f.nextID),
		FirstName:  first,
		LastName:   last,
		IsActive:   true,
		DateJoined: f.faker.DateRange(time.Now().AddDate(-2, 0, 0), time.Now()).UTC(),
	}
	for _, override := range overrides {
		override(user)
	}
	if err := f.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// PostContent writes a post about one or two catalog areas. With falseClaim
// set it includes a marker of a negative truth rating, otherwise it may
// include a positive one.
func (f *Factory) PostContent(falseClaim bool) string {
	parts := []string{f.faker.Sentence(f.faker.Number(4, 10))}

	areas := f.catalog.ExpertiseAreas
	if len(areas) > 0 {
		for range f.faker.Number(1, 2) {
			area := areas[f.faker.Number(0, len(areas)-1)]
			if len(area.Keywords) > 0 {
				parts = append(parts, "Thinking about "+f.faker.RandomString(area.Keywords)+".")
			}
		}
	}

	if marker := f.marker(falseClaim); marker != "" {
		parts = append(parts, strings.ToUpper(marker[:1])+marker[1:]+".")
	}
	content := strings.Join(parts, " ")
	if len(content) > models.MaxPostLength {
		content = content[:models.MaxPostLength]
	}
	return content
}

func (f *Factory) marker(negative bool) string {
	var candidates []string
	for _, r := range f.catalog.TruthRatings {
		if (r.NumericValue < 0) == negative {
			candidates = append(candidates, r.Markers...)
		}
	}
	if len(candidates) == 0 || (!negative && f.faker.Bool()) {
		return ""
	}
	return f.faker.RandomString(candidates)
}

// Chance reports true with probability p.
func (f *Factory) Chance(p float64) bool {
	return f.faker.Float64Range(0, 1) < p
}

// Pick returns a random index below n.
func (f *Factory) Pick(n int) int {
	return f.faker.Number(0, n-1)
}
