package seed

import (
	"fmt"
	"strings"

	"ideanest/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// seedPassword is the shared plaintext password for all seeded accounts.
const seedPassword = "Password1!"

var ideaTags = []string{
	"go", "backend", "frontend", "ai", "devops", "mobile", "design",
	"productivity", "startups", "opensource", "cloud", "security",
	"climate", "health", "education", "finance", "gaming", "hardware",
}

// Factory builds domain entities and persists them. Override functions may
// adjust the generated value before it is saved.
type Factory struct {
	db           *gorm.DB
	passwordHash string
}

// NewFactory creates a Factory bound to the given database. The shared
// password is hashed once; per-user bcrypt would dominate seeding time.
func NewFactory(db *gorm.DB) *Factory {
	hash, _ := bcrypt.GenerateFromPassword([]byte(seedPassword), bcrypt.DefaultCost)
	return &Factory{db: db, passwordHash: string(hash)}
}

// CreateUser persists a generated user.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	user := &models.User{
		Email:    strings.ToLower(gofakeit.Email()),
		Password: f.passwordHash,
		Name:     gofakeit.Name(),
		Bio:      gofakeit.Sentence(8),
		Avatar:   fmt.Sprintf("https://i.pravatar.cc/150.png?u=%s", gofakeit.UUID()),
		Role:     models.RoleUser,
		IsActive: true,
	}
	for _, override := range overrides {
		override(user)
	}
	if err := f.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// CreateIdea persists a generated idea authored by the given user.
func (f *Factory) CreateIdea(author *models.User, overrides ...func(*models.Idea)) (*models.Idea, error) {
	idea := f.buildIdea()
	authorID := author.ID
	idea.AuthorID = &authorID
	for _, override := range overrides {
		override(idea)
	}
	if err := f.db.Create(idea).Error; err != nil {
		return nil, err
	}
	return idea, nil
}

// CreateAnonymousIdea persists a generated idea submitted by a fingerprinted
// visitor.
func (f *Factory) CreateAnonymousIdea(fingerprint string, overrides ...func(*models.Idea)) (*models.Idea, error) {
	idea := f.buildIdea()
	idea.Fingerprint = &fingerprint
	for _, override := range overrides {
		override(idea)
	}
	if err := f.db.Create(idea).Error; err != nil {
		return nil, err
	}
	return idea, nil
}

func (f *Factory) buildIdea() *models.Idea {
	idx := sequence(len(ideaTags))
	gofakeit.ShuffleInts(idx)
	tags := make(models.Tags, 0, 3)
	for _, i := range idx[:gofakeit.Number(1, 3)] {
		tags = append(tags, ideaTags[i])
	}
	return &models.Idea{
		Title:     strings.TrimSuffix(gofakeit.Sentence(6), "."),
		Content:   gofakeit.Paragraph(1, 4, 8, "\n"),
		Tags:      tags,
		IsPublic:  true,
		IPAddress: gofakeit.IPv4Address(),
		UserAgent: gofakeit.UserAgent(),
		ViewCount: gofakeit.Number(0, 2000),
	}
}

// CreateLike persists a like by the given user. Duplicate (idea, user) pairs
// are rejected by the partial unique index.
func (f *Factory) CreateLike(idea *models.Idea, user *models.User) error {
	userID := user.ID
	return f.db.Create(&models.Like{
		IdeaID:    idea.ID,
		UserID:    &userID,
		IPAddress: gofakeit.IPv4Address(),
		UserAgent: gofakeit.UserAgent(),
	}).Error
}

// CreateAnonymousLike persists a like by a fingerprinted visitor.
func (f *Factory) CreateAnonymousLike(idea *models.Idea, fingerprint string) error {
	return f.db.Create(&models.Like{
		IdeaID:      idea.ID,
		Fingerprint: &fingerprint,
		IPAddress:   gofakeit.IPv4Address(),
		UserAgent:   gofakeit.UserAgent(),
	}).Error
}

func sequence(n int) []int {
	s := make([]int, n)
	for i := range s {
		s[i] = i
	}
	return s
}
