package seed

import (
	"context"
	"strings"
	"testing"
	"time"

	"docfeed/internal/database"
	"docfeed/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func sqliteStore(t *testing.T) *repository.Store {
	t.Helper()
	db, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	t.Cleanup(func() { _ = database.Close(db) })
	return repository.NewGormStore(db)
}

// assertCountersConsistent checks every post counter against the rows behind it.
func assertCountersConsistent(t *testing.T, store *repository.Store, users int) {
	t.Helper()
	ctx := context.Background()
	posts, err := store.Posts.List(ctx)
	require.NoError(t, err)

	for _, p := range posts {
		comments, err := store.Comments.ListByPost(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, len(comments), p.Comments, "comments counter of post %d", p.ID)

		likers := 0
		for id := uint(1); id <= uint(users); id++ {
			liked, err := store.Posts.IsLiked(ctx, p.ID, id)
			require.NoError(t, err)
			if liked {
				likers++
			}
		}
		assert.Equal(t, likers, p.Likes, "likes counter of post %d", p.ID)
	}
}

func TestSeed_CountersMatchRows(t *testing.T) {
	stores := map[string]*repository.Store{
		"memory": repository.NewMemoryStore(),
		"sqlite": sqliteStore(t),
	}
	for name, store := range stores {
		t.Run(name, func(t *testing.T) {
			opts := Options{NumUsers: 5, NumPosts: 12, MaxLikesPerPost: 5, MaxCommentsPerPost: 3, MaxDays: 10, Seed: 42}
			summary, err := Seed(context.Background(), store, opts)
			require.NoError(t, err)
			assert.Equal(t, 5, summary.Users)
			assert.Equal(t, 12, summary.Posts)

			posts, err := store.Posts.List(context.Background())
			require.NoError(t, err)
			require.Len(t, posts, 12)

			totalLikes, totalComments := 0, 0
			for _, p := range posts {
				totalLikes += p.Likes
				totalComments += p.Comments
				require.NotNil(t, p.FileName)
				assert.True(t, strings.HasSuffix(*p.FileName, ".pdf"))
				assert.False(t, p.CreatedAt.After(time.Now()))
			}
			assert.Equal(t, summary.Likes, totalLikes)
			assert.Equal(t, summary.Comments, totalComments)

			assertCountersConsistent(t, store, summary.Users)

			empty, err := IsEmpty(context.Background(), store)
			require.NoError(t, err)
			assert.False(t, empty)
		})
	}
}

func TestSeed_RequiresUsers(t *testing.T) {
	_, err := Seed(context.Background(), repository.NewMemoryStore(), Options{NumPosts: 3})
	assert.Error(t, err)

	_, err = Seed(context.Background(), nil, DefaultOptions)
	assert.Error(t, err)
}

func TestFactory_CreateUserUsesDefaultPassword(t *testing.T) {
	store := repository.NewMemoryStore()
	f := NewFactory(store, 7, 5)

	u, err := f.CreateUser(context.Background())
	require.NoError(t, err)
	assert.Regexp(t, `^[a-z0-9_]{3,32}$`, u.Username)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(DefaultPassword)))
	assert.WithinDuration(t, time.Now(), u.CreatedAt, 6*24*time.Hour)
}

func TestFactory_LikeIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	f := NewFactory(store, 7, 5)

	owner, err := f.CreateUser(ctx)
	require.NoError(t, err)
	fan, err := f.CreateUser(ctx)
	require.NoError(t, err)
	post, err := f.CreatePost(ctx, owner)
	require.NoError(t, err)

	require.NoError(t, f.Like(ctx, fan, post))
	require.NoError(t, f.Like(ctx, fan, post))

	got, err := store.Posts.GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Likes)
}

func TestFactory_CommentAfterPost(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	f := NewFactory(store, 3, 20)

	owner, err := f.CreateUser(ctx)
	require.NoError(t, err)
	post, err := f.CreatePost(ctx, owner)
	require.NoError(t, err)

	for range 5 {
		c, err := f.CreateComment(ctx, owner, post)
		require.NoError(t, err)
		assert.False(t, c.CreatedAt.Before(post.CreatedAt))
	}
}
