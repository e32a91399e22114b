package seed

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"docfeed/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestDemoFixture_Applies(t *testing.T) {
	ctx := context.Background()
	fx, err := DemoFixture()
	require.NoError(t, err)

	store := repository.NewMemoryStore()
	summary, err := ApplyFixture(ctx, store, fx)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Users)
	assert.Equal(t, 3, summary.Posts)
	assert.Equal(t, 3, summary.Likes)
	assert.Equal(t, 2, summary.Comments)

	posts, err := store.Posts.List(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 3)
	// newest first: Onboarding (20m), Roadmap (3h), Incident review (25h)
	assert.Equal(t, "Onboarding guide", posts[0].Title)
	assert.Equal(t, "Roadmap", posts[1].Title)
	assert.Equal(t, 2, posts[1].Likes)
	assert.Equal(t, 2, posts[1].Comments)
	assert.Nil(t, posts[0].FileName)

	comments, err := store.Comments.ListByPost(ctx, posts[1].ID)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "Can we move the storage work earlier?", comments[0].Content)

	ada, err := store.Users.GetByUsername(ctx, "ada")
	require.NoError(t, err)
	require.NotNil(t, ada)
	require.NotNil(t, ada.Role)
	assert.Equal(t, "Engineering Lead", *ada.Role)
	assert.Nil(t, ada.Avatar)

	activities, err := store.Activities.ListRecent(ctx, 50)
	require.NoError(t, err)
	assert.Len(t, activities, 3+3+2)
}

func TestDecodeFixture_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "unknown author",
			yaml: "users:\n  - username: a\nposts:\n  - author: b\n    title: T\n",
			want: "unknown author",
		},
		{
			name: "unknown liker",
			yaml: "users:\n  - username: a\nposts:\n  - author: a\n    title: T\n    likedBy: [z]\n",
			want: "liked by unknown user",
		},
		{
			name: "duplicate user",
			yaml: "users:\n  - username: a\n  - username: a\n",
			want: "declared twice",
		},
		{
			name: "missing title",
			yaml: "users:\n  - username: a\nposts:\n  - author: a\n",
			want: "no title",
		},
		{
			name: "unknown field",
			yaml: "users:\n  - username: a\n    email: a@example.com\n",
			want: "decode fixture",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeFixture(strings.NewReader(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadFixtureFile_CustomPassword(t *testing.T) {
	path := filepath.Join(t.TempDir(), "team.yml")
	require.NoError(t, os.WriteFile(path, []byte("users:\n  - username: root_user\n    fullName: Root\n    password: s3cret-pass\n"), 0o600))

	fx, err := LoadFixtureFile(path)
	require.NoError(t, err)

	store := repository.NewMemoryStore()
	_, err = ApplyFixture(context.Background(), store, fx)
	require.NoError(t, err)

	u, err := store.Users.GetByUsername(context.Background(), "root_user")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.Password), []byte("s3cret-pass")))

	_, err = LoadFixtureFile(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)
}
