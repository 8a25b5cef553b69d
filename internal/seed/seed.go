// Package seed populates the database with demo data for development and
// testing.
package seed

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"time"

	"ideanest/internal/identity"
	"ideanest/internal/models"
	"ideanest/internal/trending"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
)

// Options configure the seeder.
type Options struct {
	NumUsers int
	NumIdeas int
	// AnonymousShare is the fraction of ideas and likes attributed to
	// fingerprinted visitors instead of accounts.
	AnonymousShare float64
	// MaxDays spreads created_at timestamps over the trailing window so the
	// trending and top feeds have something to rank.
	MaxDays int
	Clean   bool
}

// DefaultOptions are sized for a local development database.
var DefaultOptions = Options{
	NumUsers:       50,
	NumIdeas:       200,
	AnonymousShare: 0.3,
	MaxDays:        60,
	Clean:          true,
}

// Seeder generates users, ideas and likes.
type Seeder struct {
	db      *gorm.DB
	opts    Options
	rand    *rand.Rand
	factory *Factory
}

// NewSeeder creates a Seeder bound to the given database.
func NewSeeder(db *gorm.DB, opts Options) *Seeder {
	gofakeit.Seed(time.Now().UnixNano())
	return &Seeder{
		db:      db,
		opts:    opts,
		rand:    rand.New(rand.NewSource(time.Now().UnixNano())),
		factory: NewFactory(db),
	}
}

// Run executes the full seeding pass.
func (s *Seeder) Run() error {
	if s.opts.Clean {
		if err := s.ClearAll(); err != nil {
			return fmt.Errorf("clearing data: %w", err)
		}
	}

	users, err := s.seedUsers()
	if err != nil {
		return fmt.Errorf("seeding users: %w", err)
	}
	log.Printf("created %d users", len(users))

	ideas, err := s.seedIdeas(users)
	if err != nil {
		return fmt.Errorf("seeding ideas: %w", err)
	}
	log.Printf("created %d ideas", len(ideas))

	liked, err := s.seedLikes(users, ideas)
	if err != nil {
		return fmt.Errorf("seeding likes: %w", err)
	}
	log.Printf("created %d likes", liked)

	scorer := trending.NewScorer(s.db, trending.DefaultOptions, nil)
	if _, err := scorer.UpdateScores(context.Background(), time.Now()); err != nil {
		return fmt.Errorf("scoring ideas: %w", err)
	}

	log.Println("seeding complete; all accounts use the password Password1!")
	return nil
}

// ClearAll truncates every seeded table.
func (s *Seeder) ClearAll() error {
	return s.db.Exec(
		`TRUNCATE TABLE likes, ideas, refresh_tokens, users RESTART IDENTITY CASCADE`,
	).Error
}

func (s *Seeder) seedUsers() ([]*models.User, error) {
	users := make([]*models.User, 0, s.opts.NumUsers)

	// Fixed accounts for local login.
	admin, err := s.factory.CreateUser(func(u *models.User) {
		u.Email = "admin@ideanest.dev"
		u.Name = "Admin"
		u.Role = models.RoleAdmin
	})
	if err != nil {
		return nil, err
	}
	moderator, err := s.factory.CreateUser(func(u *models.User) {
		u.Email = "moderator@ideanest.dev"
		u.Name = "Moderator"
		u.Role = models.RoleModerator
	})
	if err != nil {
		return nil, err
	}
	users = append(users, admin, moderator)

	for i := len(users); i < s.opts.NumUsers; i++ {
		user, err := s.factory.CreateUser(func(u *models.User) {
			u.CreatedAt = s.pastTime()
		})
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}

func (s *Seeder) seedIdeas(users []*models.User) ([]*models.Idea, error) {
	ideas := make([]*models.Idea, 0, s.opts.NumIdeas)
	for i := 0; i < s.opts.NumIdeas; i++ {
		var idea *models.Idea
		var err error
		if s.rand.Float64() < s.opts.AnonymousShare {
			idea, err = s.factory.CreateAnonymousIdea(s.visitor(), func(d *models.Idea) {
				d.CreatedAt = s.pastTime()
			})
		} else {
			author := users[s.rand.Intn(len(users))]
			idea, err = s.factory.CreateIdea(author, func(d *models.Idea) {
				d.CreatedAt = s.pastTime()
				// A slice of authored ideas stays private.
				d.IsPublic = s.rand.Float64() > 0.1
			})
		}
		if err != nil {
			return nil, err
		}
		ideas = append(ideas, idea)
	}
	return ideas, nil
}

// seedLikes attaches likes to ideas and keeps each idea's denormalized counter
// in step with its rows.
func (s *Seeder) seedLikes(users []*models.User, ideas []*models.Idea) (int, error) {
	total := 0
	for _, idea := range ideas {
		want := s.rand.Intn(len(users)/2 + 1)

		likers := s.rand.Perm(len(users))[:want]
		count := 0
		for _, idx := range likers {
			var err error
			if s.rand.Float64() < s.opts.AnonymousShare {
				err = s.factory.CreateAnonymousLike(idea, s.visitor())
			} else {
				err = s.factory.CreateLike(idea, users[idx])
			}
			if err != nil {
				// Duplicate identity on this idea; skip it.
				continue
			}
			count++
		}

		if err := s.db.Model(&models.Idea{}).
			Where("id = ?", idea.ID).
			Update("like_count", count).Error; err != nil {
			return total, err
		}
		total += count
	}
	return total, nil
}

// visitor fabricates an anonymous visitor fingerprint.
func (s *Seeder) visitor() string {
	return identity.Fingerprint(
		gofakeit.IPv4Address(),
		gofakeit.UserAgent(),
		"en-US,en;q=0.9",
		"gzip, deflate, br",
	)
}

func (s *Seeder) pastTime() time.Time {
	maxDays := s.opts.MaxDays
	if maxDays <= 0 {
		maxDays = 60
	}
	back := time.Duration(s.rand.Intn(maxDays*24*60)) * time.Minute
	return time.Now().Add(-back)
}
