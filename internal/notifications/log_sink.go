package notifications

import (
	"log/slog"

	"docfeed/internal/models"
)

// LogSink returns a subscriber that writes every broadcast activity to logger.
func LogSink(logger *slog.Logger) func(models.Activity) {
	return func(a models.Activity) {
		attrs := []any{
			slog.Uint64("activity_id", uint64(a.ID)),
			slog.Uint64("user_id", uint64(a.UserID)),
			slog.String("action", a.Action),
			slog.String("summary", a.Summary),
		}
		if a.PostID != nil {
			attrs = append(attrs, slog.Uint64("post_id", uint64(*a.PostID)))
		}
		logger.Info("activity broadcast", attrs...)
	}
}
