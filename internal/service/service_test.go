package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"docfeed/internal/featureflags"
	"docfeed/internal/models"
	"docfeed/internal/notifications"
	"docfeed/internal/repository"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// userRepoStub is a stub for repository.UserRepository.
type userRepoStub struct {
	createFn        func(context.Context, *models.User) error
	getByIDFn       func(context.Context, uint) (*models.User, error)
	getByUsernameFn func(context.Context, string) (*models.User, error)
}

func (s *userRepoStub) Create(ctx context.Context, u *models.User) error { return s.createFn(ctx, u) }
func (s *userRepoStub) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByUsername(ctx context.Context, name string) (*models.User, error) {
	return s.getByUsernameFn(ctx, name)
}

// activityRepoStub is a stub for repository.ActivityRepository.
type activityRepoStub struct {
	createFn     func(context.Context, *models.Activity) error
	listRecentFn func(context.Context, int) ([]*models.Activity, error)
}

func (s *activityRepoStub) Create(ctx context.Context, a *models.Activity) error {
	return s.createFn(ctx, a)
}
func (s *activityRepoStub) ListRecent(ctx context.Context, limit int) ([]*models.Activity, error) {
	return s.listRecentFn(ctx, limit)
}

type services struct {
	store    *repository.Store
	users    *UserService
	posts    *PostService
	comments *CommentService
	feed     *FeedService
	activity *ActivityService
}

func newServices(t *testing.T, now time.Time) *services {
	t.Helper()
	store := repository.NewMemoryStore()
	authors := NewAuthorResolver(store.Users, nil)
	activity := NewActivityService(store.Activities, nil, featureflags.NewManager(""), 0)

	feed := NewFeedService(store.Posts, store.Comments, authors)
	feed.Now = func() time.Time { return now }
	comments := NewCommentService(store.Comments, store.Posts, authors, activity)
	comments.Now = func() time.Time { return now }

	return &services{
		store:    store,
		users:    NewUserService(store.Users, activity),
		posts:    NewPostService(store.Posts, store.Users, activity),
		comments: comments,
		feed:     feed,
		activity: activity,
	}
}

func (s *services) register(t *testing.T, username, fullName string) *models.User {
	t.Helper()
	u, err := s.users.Register(context.Background(), RegisterInput{
		Username: username,
		Password: "correct horse",
		FullName: fullName,
	})
	require.NoError(t, err)
	return u
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, code, models.ErrorCode(err), "unexpected error: %v", err)
}

func TestRoadmapScenario(t *testing.T) {
	ctx := context.Background()
	svc := newServices(t, time.Now())

	a := svc.register(t, "user_a", "Ada")
	b := svc.register(t, "user_b", "Bea")
	c := svc.register(t, "user_c", "Cy")

	post, err := svc.posts.CreatePost(ctx, CreatePostInput{UserID: a.ID, Title: "Roadmap"})
	require.NoError(t, err)
	assert.Equal(t, "", post.Description)
	assert.Zero(t, post.Likes)

	res, err := svc.posts.ToggleLike(ctx, post.ID, b.ID)
	require.NoError(t, err)
	assert.True(t, res.HasLiked)
	assert.Equal(t, 1, res.Post.Likes)

	res, err = svc.posts.ToggleLike(ctx, post.ID, b.ID)
	require.NoError(t, err)
	assert.False(t, res.HasLiked)
	assert.Equal(t, 0, res.Post.Likes)

	view, err := svc.comments.CreateComment(ctx, CreateCommentInput{UserID: c.ID, PostID: post.ID, Content: "Great!"})
	require.NoError(t, err)
	assert.Equal(t, "Great!", view.Content)
	require.NotNil(t, view.Author)
	assert.Equal(t, "Cy", view.Author.FullName)
	assert.Equal(t, "0 seconds ago", view.TimeAgo)

	item, err := svc.feed.GetPost(ctx, post.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, item.Comments)
	assert.Equal(t, 0, item.Likes)
	assert.False(t, item.HasLiked)

	activities, err := svc.activity.List(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, activities)
	assert.Equal(t, models.ActionCommentCreated, activities[0].Action)
	assert.Equal(t, `Cy commented on "Roadmap"`, activities[0].Summary)

	var actions []string
	for _, a := range activities {
		actions = append(actions, a.Action)
	}
	assert.Contains(t, actions, models.ActionPostLiked)
	assert.Contains(t, actions, models.ActionPostUnliked)
	assert.Contains(t, actions, models.ActionPostCreated)
}

func TestFeedService_ListFeed(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	svc := newServices(t, now)

	a := svc.register(t, "alice", "Alice")
	b := svc.register(t, "bob", "Bob")

	older := &models.Post{Title: "Older", UserID: a.ID, CreatedAt: now.Add(-3661 * time.Second)}
	newer := &models.Post{Title: "Newer", UserID: b.ID, CreatedAt: now.Add(-59 * time.Second)}
	require.NoError(t, svc.store.Posts.Create(ctx, older))
	require.NoError(t, svc.store.Posts.Create(ctx, newer))

	_, err := svc.posts.ToggleLike(ctx, older.ID, b.ID)
	require.NoError(t, err)

	t.Run("viewer", func(t *testing.T) {
		items, err := svc.feed.ListFeed(ctx, b.ID)
		require.NoError(t, err)
		require.Len(t, items, 2)

		assert.Equal(t, "Newer", items[0].Title)
		assert.Equal(t, "59 seconds ago", items[0].TimeAgo)
		assert.False(t, items[0].HasLiked)
		assert.Equal(t, "Bob", items[0].Author.FullName)

		assert.Equal(t, "Older", items[1].Title)
		assert.Equal(t, "1 hour ago", items[1].TimeAgo)
		assert.True(t, items[1].HasLiked)
		assert.Equal(t, 1, items[1].Likes)
	})

	t.Run("anonymous", func(t *testing.T) {
		items, err := svc.feed.ListFeed(ctx, 0)
		require.NoError(t, err)
		for _, item := range items {
			assert.False(t, item.HasLiked)
		}
	})
}

func TestFeedService_MissingAuthorIsIntegrityViolation(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	owner := &models.User{Username: "ghost", Password: "x", FullName: "Ghost"}
	require.NoError(t, store.Users.Create(ctx, owner))
	require.NoError(t, store.Posts.Create(ctx, &models.Post{Title: "Orphaned", UserID: owner.ID}))

	vanished := &userRepoStub{getByIDFn: func(context.Context, uint) (*models.User, error) { return nil, nil }}
	feed := NewFeedService(store.Posts, store.Comments, NewAuthorResolver(vanished, nil))

	_, err := feed.ListFeed(ctx, 0)
	assertCode(t, err, models.CodeIntegrityViolation)
	assert.Equal(t, 500, models.StatusCode(err))
}

func TestFeedService_AuthorCache(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	lookups := 0
	users := &userRepoStub{getByIDFn: func(_ context.Context, id uint) (*models.User, error) {
		lookups++
		return &models.User{ID: id, Username: "alice", FullName: "Alice"}, nil
	}}
	resolver := NewAuthorResolver(users, rdb)

	for i := 0; i < 3; i++ {
		u, err := resolver.Resolve(ctx, 4)
		require.NoError(t, err)
		assert.Equal(t, "Alice", u.FullName)
	}
	assert.Equal(t, 1, lookups)
	assert.True(t, mr.Exists("user:profile:4"))
}

func TestFeedService_NotFound(t *testing.T) {
	svc := newServices(t, time.Now())

	_, err := svc.feed.GetPost(context.Background(), 404, 0)
	assertCode(t, err, models.CodeNotFound)

	_, err = svc.feed.ListComments(context.Background(), 404)
	assertCode(t, err, models.CodeNotFound)
}

func TestFeedService_ListComments(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	svc := newServices(t, now)
	a := svc.register(t, "alice", "Alice")
	post, err := svc.posts.CreatePost(ctx, CreatePostInput{UserID: a.ID, Title: "Doc"})
	require.NoError(t, err)

	empty, err := svc.feed.ListComments(ctx, post.ID)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	for _, content := range []string{"one", "two", "three"} {
		_, err := svc.comments.CreateComment(ctx, CreateCommentInput{UserID: a.ID, PostID: post.ID, Content: content})
		require.NoError(t, err)
	}
	views, err := svc.feed.ListComments(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, views, 3)
	assert.Equal(t, "three", views[0].Content)
	assert.Equal(t, "Alice", views[0].Author.FullName)
}

func TestPostService_CreatePost_Validation(t *testing.T) {
	svc := newServices(t, time.Now())
	a := svc.register(t, "alice", "Alice")

	tests := []struct {
		name  string
		input CreatePostInput
		code  string
	}{
		{"anonymous", CreatePostInput{Title: "x"}, models.CodeUnauthorized},
		{"missing title", CreatePostInput{UserID: a.ID, Title: "   "}, models.CodeValidation},
		{"title too long", CreatePostInput{UserID: a.ID, Title: strings.Repeat("t", 301)}, models.CodeValidation},
		{"description too long", CreatePostInput{UserID: a.ID, Title: "ok", Description: strings.Repeat("d", 10001)}, models.CodeValidation},
		{"not a pdf", CreatePostInput{UserID: a.ID, Title: "ok", FileName: "notes.docx"}, models.CodeValidation},
		{"path traversal", CreatePostInput{UserID: a.ID, Title: "ok", FileName: "../etc/passwd.pdf"}, models.CodeValidation},
		{"unknown author", CreatePostInput{UserID: 999, Title: "ok"}, models.CodeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.posts.CreatePost(context.Background(), tt.input)
			assertCode(t, err, tt.code)
		})
	}

	t.Run("valid with file", func(t *testing.T) {
		post, err := svc.posts.CreatePost(context.Background(), CreatePostInput{
			UserID:   a.ID,
			Title:    "  Spec  ",
			FileName: "Spec.PDF",
		})
		require.NoError(t, err)
		assert.Equal(t, "Spec", post.Title)
		require.NotNil(t, post.FileName)
		assert.Equal(t, "Spec.PDF", *post.FileName)
	})
}

func TestPostService_ToggleLike(t *testing.T) {
	ctx := context.Background()
	svc := newServices(t, time.Now())
	a := svc.register(t, "alice", "Alice")
	post, err := svc.posts.CreatePost(ctx, CreatePostInput{UserID: a.ID, Title: "Doc"})
	require.NoError(t, err)

	_, err = svc.posts.ToggleLike(ctx, post.ID, 0)
	assertCode(t, err, models.CodeUnauthorized)

	before, err := svc.activity.List(ctx)
	require.NoError(t, err)

	_, err = svc.posts.ToggleLike(ctx, 999, a.ID)
	assertCode(t, err, models.CodeNotFound)

	after, err := svc.activity.List(ctx)
	require.NoError(t, err)
	assert.Len(t, after, len(before), "failed toggles record nothing")
}

func TestCommentService_Validation(t *testing.T) {
	svc := newServices(t, time.Now())
	a := svc.register(t, "alice", "Alice")

	_, err := svc.comments.CreateComment(context.Background(), CreateCommentInput{PostID: 1, Content: "hi"})
	assertCode(t, err, models.CodeUnauthorized)

	_, err = svc.comments.CreateComment(context.Background(), CreateCommentInput{UserID: a.ID, PostID: 1, Content: " \n "})
	assertCode(t, err, models.CodeValidation)

	_, err = svc.comments.CreateComment(context.Background(), CreateCommentInput{UserID: a.ID, PostID: 1, Content: "hi"})
	assertCode(t, err, models.CodeNotFound)
}

func TestUserService(t *testing.T) {
	ctx := context.Background()
	svc := newServices(t, time.Now())
	alice := svc.register(t, "alice", "Alice")
	assert.NotEqual(t, "correct horse", alice.Password)

	t.Run("validation", func(t *testing.T) {
		tests := []RegisterInput{
			{Username: "al", Password: "long enough", FullName: "Al"},
			{Username: "bad name", Password: "long enough", FullName: "Bad"},
			{Username: "shorty", Password: "short", FullName: "Shorty"},
			{Username: "nofull", Password: "long enough", FullName: " "},
		}
		for _, in := range tests {
			_, err := svc.users.Register(ctx, in)
			assertCode(t, err, models.CodeValidation)
		}
	})

	t.Run("duplicate", func(t *testing.T) {
		_, err := svc.users.Register(ctx, RegisterInput{Username: "alice", Password: "another one", FullName: "Alice 2"})
		assertCode(t, err, models.CodeConflict)
	})

	t.Run("login", func(t *testing.T) {
		u, err := svc.users.Login(ctx, "alice", "correct horse")
		require.NoError(t, err)
		assert.Equal(t, alice.ID, u.ID)

		_, err = svc.users.Login(ctx, "alice", "wrong")
		assertCode(t, err, models.CodeUnauthorized)

		_, err = svc.users.Login(ctx, "nobody", "correct horse")
		assertCode(t, err, models.CodeUnauthorized)
	})

	t.Run("get by id", func(t *testing.T) {
		_, err := svc.users.GetByID(ctx, 999)
		assertCode(t, err, models.CodeNotFound)
	})
}

func TestActivityService_RecordNeverFails(t *testing.T) {
	repo := &activityRepoStub{
		createFn: func(context.Context, *models.Activity) error { return errors.New("disk full") },
		listRecentFn: func(_ context.Context, limit int) ([]*models.Activity, error) {
			assert.Equal(t, DefaultActivityLimit, limit)
			return nil, nil
		},
	}
	svc := NewActivityService(repo, nil, nil, 0)

	assert.NotPanics(t, func() {
		svc.Record(context.Background(), 1, models.ActionPostCreated, nil, "x")
	})

	list, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestActivityService_Broadcast(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	notifier := notifications.NewNotifier(rdb)

	received := make(chan models.Activity, 2)
	require.NoError(t, notifier.SubscribeActivities(ctx, func(a models.Activity) { received <- a }))

	store := repository.NewMemoryStore()

	on := NewActivityService(store.Activities, notifier, featureflags.NewManager("activity_broadcast=on"), 10)
	on.Record(ctx, 1, models.ActionPostCreated, nil, "broadcast me")

	select {
	case a := <-received:
		assert.Equal(t, "broadcast me", a.Summary)
	case <-time.After(2 * time.Second):
		t.Fatal("activity was not broadcast")
	}

	off := NewActivityService(store.Activities, notifier, featureflags.NewManager("activity_broadcast=off"), 10)
	off.Record(ctx, 1, models.ActionPostCreated, nil, "keep quiet")

	select {
	case a := <-received:
		t.Fatalf("unexpected broadcast %q", a.Summary)
	case <-time.After(200 * time.Millisecond):
	}

	list, err := on.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}
