package seed

import (
	"context"
	"fmt"
	"log/slog"

	"famefeed/internal/catalog"
	"famefeed/internal/models"
	"famefeed/internal/service"

	"gorm.io/gorm"
)

// Options configure the seeder.
type Options struct {
	NumUsers       int
	NumPosts       int
	FollowsPerUser int
	// JoinRate is the probability that a user joins each community.
	JoinRate float64
	// FalseClaimRate is the probability that a post carries a negative marker.
	FalseClaimRate float64
	// Seed makes runs reproducible; zero picks a random seed.
	Seed int64
}

// DefaultOptions is a small community where a few users end up demoted.
func DefaultOptions() Options {
	return Options{
		NumUsers:       50,
		NumPosts:       200,
		FollowsPerUser: 5,
		JoinRate:       0.3,
		FalseClaimRate: 0.15,
	}
}

// Summary counts what a run created.
type Summary struct {
	Users       int
	Follows     int
	Memberships int
	Posts       int
	Published   int
	Banned      int
}

// Seeder drives the real services so that fame, evictions and bans come out
// of the same rules production uses.
type Seeder struct {
	db       *gorm.DB
	services *service.Services
	factory  *Factory
	opts     Options
}

// NewSeeder creates a Seeder over db and the wired services.
func NewSeeder(db *gorm.DB, services *service.Services, cat *catalog.Catalog, opts Options) *Seeder {
	return &Seeder{
		db:       db,
		services: services,
		factory:  NewFactory(db, cat, opts.Seed),
		opts:     opts,
	}
}

// ClearAll removes users and everything hanging off them. The catalog is
// kept.
func (s *Seeder) ClearAll() error {
	slog.Info("clearing existing data")
	return s.db.Transaction(func(tx *gorm.DB) error {
		for _, m := range []any{
			&models.UserRating{},
			&models.PostClassification{},
			&models.Post{},
			&models.Fame{},
			&models.CommunityMembership{},
			&models.Follow{},
			&models.User{},
		} {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(m).Error; err != nil {
				return fmt.Errorf("clear %T: %w", m, err)
			}
		}
		return nil
	})
}

// Run creates users, follow edges, memberships and posts.
func (s *Seeder) Run(ctx context.Context) (*Summary, error) {
	sum := &Summary{}

	users := make([]*models.User, 0, s.opts.NumUsers)
	for range s.opts.NumUsers {
		u, err := s.factory.CreateUser()
		if err != nil {
			return sum, fmt.Errorf("create user: %w", err)
		}
		users = append(users, u)
	}
	sum.Users = len(users)
	if len(users) == 0 {
		return sum, nil
	}

	if err := s.seedGraph(ctx, users, sum); err != nil {
		return sum, err
	}
	if err := s.seedPosts(ctx, users, sum); err != nil {
		return sum, err
	}

	slog.Info("seeding complete",
		slog.Int("users", sum.Users),
		slog.Int("follows", sum.Follows),
		slog.Int("memberships", sum.Memberships),
		slog.Int("posts", sum.Posts),
		slog.Int("published", sum.Published),
		slog.Int("banned", sum.Banned),
	)
	return sum, nil
}

func (s *Seeder) seedGraph(ctx context.Context, users []*models.User, sum *Summary) error {
	var areas []models.ExpertiseArea
	if err := s.db.WithContext(ctx).Order("id").Find(&areas).Error; err != nil {
		return fmt.Errorf("load areas: %w", err)
	}

	for _, u := range users {
		if len(users) > 1 {
			for range s.opts.FollowsPerUser {
				target := users[s.factory.Pick(len(users))]
				if target.ID == u.ID {
					continue
				}
				changed, err := s.services.Graph.Follow(ctx, u.ID, target.ID)
				if err != nil {
					return fmt.Errorf("follow %d -> %d: %w", u.ID, target.ID, err)
				}
				if changed {
					sum.Follows++
				}
			}
		}
		for _, area := range areas {
			if !s.factory.Chance(s.opts.JoinRate) {
				continue
			}
			changed, err := s.services.Graph.JoinCommunity(ctx, u.ID, area.ID)
			if err != nil {
				return fmt.Errorf("join %d -> %s: %w", u.ID, area.Label, err)
			}
			if changed {
				sum.Memberships++
			}
		}
	}
	return nil
}

// seedPosts submits posts through the full pipeline. Banned authors are
// dropped from the pool.
func (s *Seeder) seedPosts(ctx context.Context, users []*models.User, sum *Summary) error {
	active := append([]*models.User(nil), users...)
	for range s.opts.NumPosts {
		if len(active) == 0 {
			break
		}
		i := s.factory.Pick(len(active))
		author := active[i]

		res, err := s.services.Posts.SubmitPost(ctx, service.SubmitPostInput{
			AuthorID: author.ID,
			Content:  s.factory.PostContent(s.factory.Chance(s.opts.FalseClaimRate)),
		})
		if err != nil {
			return fmt.Errorf("submit post for %d: %w", author.ID, err)
		}
		sum.Posts++
		if res.Published {
			sum.Published++
		}
		if res.RedirectToLogout {
			sum.Banned++
			active = append(active[:i], active[i+1:]...)
		}
	}
	return nil
}
