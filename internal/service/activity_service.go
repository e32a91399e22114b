package service

import (
	"context"
	"log/slog"

	"docfeed/internal/featureflags"
	"docfeed/internal/middleware"
	"docfeed/internal/models"
	"docfeed/internal/notifications"
	"docfeed/internal/observability"
	"docfeed/internal/repository"
)

// DefaultActivityLimit is used when no positive limit is configured.
const DefaultActivityLimit = 50

// ActivityService is the write-through sink behind the sidebar activity log.
type ActivityService struct {
	repo     repository.ActivityRepository
	notifier *notifications.Notifier
	flags    *featureflags.Manager
	limit    int
}

func NewActivityService(
	repo repository.ActivityRepository,
	notifier *notifications.Notifier,
	flags *featureflags.Manager,
	limit int,
) *ActivityService {
	if limit <= 0 {
		limit = DefaultActivityLimit
	}
	return &ActivityService{repo: repo, notifier: notifier, flags: flags, limit: limit}
}

// Record persists and optionally broadcasts an activity. Failures are logged and
// never surface to the caller: the user action has already happened.
func (s *ActivityService) Record(ctx context.Context, userID uint, action string, postID *uint, summary string) {
	if s == nil {
		return
	}

	activity := &models.Activity{
		UserID:  userID,
		Action:  action,
		PostID:  postID,
		Summary: summary,
	}
	if err := s.repo.Create(ctx, activity); err != nil {
		observability.ActivitiesRecorded.WithLabelValues("error").Inc()
		middleware.Logger.ErrorContext(ctx, "failed to record activity",
			slog.String("action", action),
			slog.String("error", err.Error()),
		)
		return
	}
	observability.ActivitiesRecorded.WithLabelValues("ok").Inc()

	if !s.flags.EnabledGlobally(featureflags.ActivityBroadcast) {
		return
	}
	if err := s.notifier.PublishActivity(ctx, activity); err != nil {
		middleware.Logger.WarnContext(ctx, "failed to broadcast activity",
			slog.Uint64("activity_id", uint64(activity.ID)),
			slog.String("error", err.Error()),
		)
	}
}

// List returns the most recent activities, newest first. An empty log is an empty slice.
func (s *ActivityService) List(ctx context.Context) ([]*models.Activity, error) {
	activities, err := s.repo.ListRecent(ctx, s.limit)
	if err != nil {
		return nil, err
	}
	if activities == nil {
		activities = []*models.Activity{}
	}
	return activities, nil
}
