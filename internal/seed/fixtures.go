package seed

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"io"
	"os"
	"time"

	"docfeed/internal/models"
	"docfeed/internal/repository"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

//go:embed fixtures/*.yml
var fixtureFS embed.FS

// Fixture is a hand-written data set loaded from YAML.
type Fixture struct {
	Users []FixtureUser `yaml:"users"`
	Posts []FixturePost `yaml:"posts"`
}

// FixtureUser describes one account. Password defaults to DefaultPassword.
type FixtureUser struct {
	Username string `yaml:"username"`
	FullName string `yaml:"fullName"`
	Password string `yaml:"password"`
	Avatar   string `yaml:"avatar"`
	Role     string `yaml:"role"`
}

// FixturePost describes a post with the users who liked it and its comments.
type FixturePost struct {
	Author      string           `yaml:"author"`
	Title       string           `yaml:"title"`
	Description string           `yaml:"description"`
	FileName    string           `yaml:"fileName"`
	AgeMinutes  int              `yaml:"ageMinutes"`
	LikedBy     []string         `yaml:"likedBy"`
	Comments    []FixtureComment `yaml:"comments"`
}

// FixtureComment is a comment inside a FixturePost.
type FixtureComment struct {
	Author  string `yaml:"author"`
	Content string `yaml:"content"`
}

// DecodeFixture parses a YAML fixture and checks its references.
func DecodeFixture(r io.Reader) (*Fixture, error) {
	var fx Fixture
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&fx); err != nil {
		return nil, fmt.Errorf("decode fixture: %w", err)
	}
	if err := fx.validate(); err != nil {
		return nil, err
	}
	return &fx, nil
}

// LoadFixtureFile reads a fixture from disk.
func LoadFixtureFile(path string) (*Fixture, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	return DecodeFixture(bytes.NewReader(raw))
}

// DemoFixture returns the built-in demo data set.
func DemoFixture() (*Fixture, error) {
	raw, err := fixtureFS.ReadFile("fixtures/demo.yml")
	if err != nil {
		return nil, err
	}
	return DecodeFixture(bytes.NewReader(raw))
}

func (fx *Fixture) validate() error {
	known := make(map[string]bool, len(fx.Users))
	for _, u := range fx.Users {
		if u.Username == "" {
			return fmt.Errorf("fixture user without username")
		}
		if known[u.Username] {
			return fmt.Errorf("fixture user %q declared twice", u.Username)
		}
		known[u.Username] = true
	}
	for _, p := range fx.Posts {
		if p.Title == "" {
			return fmt.Errorf("fixture post by %q has no title", p.Author)
		}
		if !known[p.Author] {
			return fmt.Errorf("fixture post %q references unknown author %q", p.Title, p.Author)
		}
		for _, liker := range p.LikedBy {
			if !known[liker] {
				return fmt.Errorf("fixture post %q liked by unknown user %q", p.Title, liker)
			}
		}
		for _, c := range p.Comments {
			if !known[c.Author] {
				return fmt.Errorf("fixture post %q has comment by unknown user %q", p.Title, c.Author)
			}
		}
	}
	return nil
}

// ApplyFixture writes fx into store. Comments are spaced one minute apart after their post.
func ApplyFixture(ctx context.Context, store *repository.Store, fx *Fixture) (*Summary, error) {
	f := NewFactory(store, 1, 1)
	now := f.now()
	summary := &Summary{}

	users := make(map[string]*models.User, len(fx.Users))
	for _, fu := range fx.Users {
		customHash := ""
		if fu.Password != "" {
			hash, err := bcrypt.GenerateFromPassword([]byte(fu.Password), bcrypt.DefaultCost)
			if err != nil {
				return summary, fmt.Errorf("hash password for %s: %w", fu.Username, err)
			}
			customHash = string(hash)
		}
		u, err := f.CreateUser(ctx, func(u *models.User) {
			u.Username = fu.Username
			u.FullName = fu.FullName
			if u.FullName == "" {
				u.FullName = fu.Username
			}
			u.Avatar = optional(fu.Avatar)
			u.Role = optional(fu.Role)
			u.CreatedAt = now
			if customHash != "" {
				u.Password = customHash
			}
		})
		if err != nil {
			return summary, err
		}
		users[fu.Username] = u
		summary.Users++
	}

	for _, fp := range fx.Posts {
		author := users[fp.Author]
		createdAt := now.Add(-time.Duration(fp.AgeMinutes) * time.Minute)
		post, err := f.CreatePost(ctx, author, func(p *models.Post) {
			p.Title = fp.Title
			p.Description = fp.Description
			p.FileName = optional(fp.FileName)
			p.CreatedAt = createdAt
		})
		if err != nil {
			return summary, err
		}
		summary.Posts++

		for _, liker := range fp.LikedBy {
			if err := f.Like(ctx, users[liker], post); err != nil {
				return summary, err
			}
			summary.Likes++
		}
		for i, fc := range fp.Comments {
			at := createdAt.Add(time.Duration(i+1) * time.Minute)
			if at.After(now) {
				at = now
			}
			content := fc.Content
			if _, err := f.CreateComment(ctx, users[fc.Author], post, func(c *models.Comment) {
				c.Content = content
				c.CreatedAt = at
			}); err != nil {
				return summary, err
			}
			summary.Comments++
		}
	}
	return summary, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
