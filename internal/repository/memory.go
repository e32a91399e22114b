package repository

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"docfeed/internal/models"
	"docfeed/internal/observability"
)

type likeKey struct {
	postID uint
	userID uint
}

// memoryDB holds every table of the in-memory store behind one mutex so that
// multi-table writes (toggle, comment + counter) are atomic.
type memoryDB struct {
	mu sync.Mutex

	users      map[uint]*models.User
	posts      map[uint]*models.Post
	likes      map[likeKey]time.Time
	comments   map[uint]*models.Comment
	activities []*models.Activity

	nextUserID     uint
	nextPostID     uint
	nextCommentID  uint
	nextActivityID uint
}

// NewMemoryStore returns a Store whose state lives in process memory.
func NewMemoryStore() *Store {
	db := &memoryDB{
		users:    make(map[uint]*models.User),
		posts:    make(map[uint]*models.Post),
		likes:    make(map[likeKey]time.Time),
		comments: make(map[uint]*models.Comment),
	}
	return &Store{
		Users:      &memoryUsers{db: db},
		Posts:      &memoryPosts{db: db},
		Comments:   &memoryComments{db: db},
		Activities: &memoryActivities{db: db},
		kind:       KindMemory,
	}
}

func stamp(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now()
	}
	return t
}

// newestFirst orders by created_at DESC, id DESC.
func newestFirst(aTime, bTime time.Time, aID, bID uint) int {
	if c := bTime.Compare(aTime); c != 0 {
		return c
	}
	switch {
	case aID > bID:
		return -1
	case aID < bID:
		return 1
	}
	return 0
}

type memoryUsers struct{ db *memoryDB }

func (r *memoryUsers) Create(_ context.Context, user *models.User) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, u := range r.db.users {
		if u.Username == user.Username {
			return models.NewConflictError(fmt.Sprintf("username %q is already taken", user.Username))
		}
	}
	r.db.nextUserID++
	user.ID = r.db.nextUserID
	user.CreatedAt = stamp(user.CreatedAt)

	stored := *user
	r.db.users[user.ID] = &stored
	return nil
}

func (r *memoryUsers) GetByID(_ context.Context, id uint) (*models.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	u, ok := r.db.users[id]
	if !ok {
		return nil, nil
	}
	out := *u
	return &out, nil
}

func (r *memoryUsers) GetByUsername(_ context.Context, username string) (*models.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, u := range r.db.users {
		if u.Username == username {
			out := *u
			return &out, nil
		}
	}
	return nil, nil
}

type memoryPosts struct{ db *memoryDB }

func (r *memoryPosts) Create(_ context.Context, post *models.Post) error {
	defer observability.TrackStoreOperation(KindMemory, "post_create")()
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.users[post.UserID]; !ok {
		return models.NewNotFoundError("User", post.UserID)
	}
	r.db.nextPostID++
	post.ID = r.db.nextPostID
	post.Likes = 0
	post.Comments = 0
	post.CreatedAt = stamp(post.CreatedAt)

	stored := *post
	stored.User = nil
	r.db.posts[post.ID] = &stored
	return nil
}

func (r *memoryPosts) GetByID(_ context.Context, id uint) (*models.Post, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	p, ok := r.db.posts[id]
	if !ok {
		return nil, nil
	}
	out := *p
	return &out, nil
}

func (r *memoryPosts) List(_ context.Context) ([]*models.Post, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	out := make([]*models.Post, 0, len(r.db.posts))
	for _, p := range r.db.posts {
		cp := *p
		out = append(out, &cp)
	}
	slices.SortFunc(out, func(a, b *models.Post) int {
		return newestFirst(a.CreatedAt, b.CreatedAt, a.ID, b.ID)
	})
	return out, nil
}

func (r *memoryPosts) IsLiked(_ context.Context, postID, userID uint) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	_, ok := r.db.likes[likeKey{postID, userID}]
	return ok, nil
}

func (r *memoryPosts) LikedPostIDs(_ context.Context, userID uint, postIDs []uint) (map[uint]bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	liked := make(map[uint]bool)
	for _, id := range postIDs {
		if _, ok := r.db.likes[likeKey{id, userID}]; ok {
			liked[id] = true
		}
	}
	return liked, nil
}

func (r *memoryPosts) ToggleLike(_ context.Context, postID, userID uint) (*models.Post, bool, error) {
	defer observability.TrackStoreOperation(KindMemory, "toggle_like")()
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	p, ok := r.db.posts[postID]
	if !ok {
		return nil, false, models.NewNotFoundError("Post", postID)
	}
	if _, ok := r.db.users[userID]; !ok {
		return nil, false, models.NewNotFoundError("User", userID)
	}

	key := likeKey{postID, userID}
	var liked bool
	if _, ok := r.db.likes[key]; ok {
		delete(r.db.likes, key)
		if p.Likes > 0 {
			p.Likes--
		}
	} else {
		r.db.likes[key] = time.Now()
		p.Likes++
		liked = true
	}

	out := *p
	return &out, liked, nil
}

type memoryComments struct{ db *memoryDB }

func (r *memoryComments) Create(_ context.Context, comment *models.Comment) error {
	defer observability.TrackStoreOperation(KindMemory, "comment_create")()
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	p, ok := r.db.posts[comment.PostID]
	if !ok {
		return models.NewNotFoundError("Post", comment.PostID)
	}
	if _, ok := r.db.users[comment.UserID]; !ok {
		return models.NewNotFoundError("User", comment.UserID)
	}

	r.db.nextCommentID++
	comment.ID = r.db.nextCommentID
	comment.CreatedAt = stamp(comment.CreatedAt)

	stored := *comment
	stored.Post, stored.User = nil, nil
	r.db.comments[comment.ID] = &stored
	p.Comments++
	return nil
}

func (r *memoryComments) ListByPost(_ context.Context, postID uint) ([]*models.Comment, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	var out []*models.Comment
	for _, c := range r.db.comments {
		if c.PostID == postID {
			cp := *c
			out = append(out, &cp)
		}
	}
	slices.SortFunc(out, func(a, b *models.Comment) int {
		return newestFirst(a.CreatedAt, b.CreatedAt, a.ID, b.ID)
	})
	return out, nil
}

type memoryActivities struct{ db *memoryDB }

func (r *memoryActivities) Create(_ context.Context, activity *models.Activity) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	r.db.nextActivityID++
	activity.ID = r.db.nextActivityID
	activity.CreatedAt = stamp(activity.CreatedAt)

	stored := *activity
	r.db.activities = append(r.db.activities, &stored)
	return nil
}

func (r *memoryActivities) ListRecent(_ context.Context, limit int) ([]*models.Activity, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	out := make([]*models.Activity, 0, len(r.db.activities))
	for _, a := range r.db.activities {
		cp := *a
		out = append(out, &cp)
	}
	slices.SortFunc(out, func(a, b *models.Activity) int {
		return newestFirst(a.CreatedAt, b.CreatedAt, a.ID, b.ID)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
