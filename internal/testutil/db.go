// Package testutil provides shared fixtures for backend tests.
package testutil

import (
	"fmt"
	"testing"
	"time"

	"famefeed/internal/cache"
	"famefeed/internal/catalog"
	"famefeed/internal/database"
	"famefeed/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB opens a private in-memory SQLite database with the full schema and
// empties the in-process cache so no state leaks between tests. The pool is
// capped at one connection, so code under test must route every statement of
// a transaction through the transaction handle.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()
	cache.Purge()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(database.PersistentModels()...))
	return db
}

// Fixture is a database seeded with the embedded catalog.
type Fixture struct {
	DB      *gorm.DB
	Catalog *catalog.Catalog

	Levels  map[string]models.FameLevel
	Ratings map[string]models.TruthRating
	Areas   map[string]models.ExpertiseArea

	joined time.Time
}

// NewFixture opens a database and seeds the default catalog into it.
func NewFixture(t testing.TB) *Fixture {
	t.Helper()
	db := NewDB(t)
	cat, err := catalog.Default()
	require.NoError(t, err)
	require.NoError(t, catalog.Seed(db, cat))

	f := &Fixture{
		DB:      db,
		Catalog: cat,
		Levels:  map[string]models.FameLevel{},
		Ratings: map[string]models.TruthRating{},
		Areas:   map[string]models.ExpertiseArea{},
		joined:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	var levels []models.FameLevel
	require.NoError(t, db.Find(&levels).Error)
	for _, l := range levels {
		f.Levels[l.Name] = l
	}
	var ratings []models.TruthRating
	require.NoError(t, db.Find(&ratings).Error)
	for _, r := range ratings {
		f.Ratings[r.Name] = r
	}
	var areas []models.ExpertiseArea
	require.NoError(t, db.Find(&areas).Error)
	for _, a := range areas {
		f.Areas[a.Label] = a
	}
	return f
}

// User creates an active user. Each call joins one day after the previous one.
func (f *Fixture) User(t testing.TB, email string) models.User {
	t.Helper()
	f.joined = f.joined.Add(24 * time.Hour)
	return f.UserJoined(t, email, f.joined)
}

// UserJoined creates an active user with an explicit join date.
func (f *Fixture) UserJoined(t testing.TB, email string, joined time.Time) models.User {
	t.Helper()
	u := models.User{Email: email, FirstName: "Test", LastName: "User", IsActive: true, DateJoined: joined}
	require.NoError(t, f.DB.Create(&u).Error)
	return u
}

// SetFame creates or overwrites the user's level in an area.
func (f *Fixture) SetFame(t testing.TB, userID uint, area, level string) {
	t.Helper()
	l, ok := f.Levels[level]
	require.True(t, ok, "unknown level %q", level)
	a, ok := f.Areas[area]
	require.True(t, ok, "unknown area %q", area)

	var existing models.Fame
	err := f.DB.Where("user_id = ? AND expertise_area_id = ?", userID, a.ID).First(&existing).Error
	if err == nil {
		require.NoError(t, f.DB.Model(&existing).Update("fame_level_id", l.ID).Error)
		return
	}
	require.NoError(t, f.DB.Create(&models.Fame{UserID: userID, ExpertiseAreaID: a.ID, FameLevelID: l.ID}).Error)
}

// Join records a community membership.
func (f *Fixture) Join(t testing.TB, userID uint, area string) {
	t.Helper()
	a, ok := f.Areas[area]
	require.True(t, ok, "unknown area %q", area)
	require.NoError(t, f.DB.Create(&models.CommunityMembership{UserID: userID, ExpertiseAreaID: a.ID}).Error)
}

// Follow records a follow edge.
func (f *Fixture) Follow(t testing.TB, followerID, followeeID uint) {
	t.Helper()
	require.NoError(t, f.DB.Create(&models.Follow{FollowerID: followerID, FolloweeID: followeeID}).Error)
}

// Post inserts a post directly, bypassing the gate and the ledger. Areas are
// recorded as classifications without a truth rating.
func (f *Fixture) Post(t testing.TB, authorID uint, content string, submitted time.Time, published bool, areas ...string) models.Post {
	t.Helper()
	p := models.Post{AuthorID: authorID, Content: content, Submitted: submitted, Published: published}
	require.NoError(t, f.DB.Omit("Author", "Classifications").Create(&p).Error)
	for i, label := range areas {
		a, ok := f.Areas[label]
		require.True(t, ok, "unknown area %q", label)
		require.NoError(t, f.DB.Omit("ExpertiseArea", "TruthRating").Create(&models.PostClassification{PostID: p.ID, Position: i, ExpertiseAreaID: a.ID}).Error)
	}
	return p
}
