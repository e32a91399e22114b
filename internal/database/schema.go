package database

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"docfeed/internal/config"
	"docfeed/internal/middleware"
	"docfeed/internal/models"

	"gorm.io/gorm"
)

const (
	SchemaModeHybrid = "hybrid"
	SchemaModeSQL    = "sql"
	SchemaModeAuto   = "auto"
)

// SchemaStatus describes what ApplySchema would do and which migrations are pending.
type SchemaStatus struct {
	Mode               string
	Environment        string
	WillRunSQL         bool
	WillRunAutoMigrate bool
	AppliedVersions    []int
	PendingMigrations  []Migration
	// CounterDrift is nil until the posts table exists.
	CounterDrift []CounterDrift
}

// CounterDrift is a post whose cached likes or comments counter disagrees with
// the rows in post_likes or comments.
type CounterDrift struct {
	PostID      uint
	Likes       int
	LikeRows    int
	Comments    int
	CommentRows int
}

func (d CounterDrift) String() string {
	return fmt.Sprintf("post %d: likes=%d (rows %d) comments=%d (rows %d)",
		d.PostID, d.Likes, d.LikeRows, d.Comments, d.CommentRows)
}

const counterDriftSQL = `
SELECT post_id, likes, like_rows, comments, comment_rows FROM (
	SELECT p.id AS post_id,
		p.likes AS likes,
		(SELECT COUNT(*) FROM post_likes l WHERE l.post_id = p.id) AS like_rows,
		p.comments AS comments,
		(SELECT COUNT(*) FROM comments c WHERE c.post_id = p.id) AS comment_rows
	FROM posts p
) counts
WHERE likes <> like_rows OR comments <> comment_rows
ORDER BY post_id`

// FindCounterDrift lists posts whose counters no longer match their like and comment rows.
func FindCounterDrift(ctx context.Context, db *gorm.DB) ([]CounterDrift, error) {
	drift := []CounterDrift{}
	if err := db.WithContext(ctx).Raw(counterDriftSQL).Scan(&drift).Error; err != nil {
		return nil, fmt.Errorf("find counter drift: %w", err)
	}
	return drift, nil
}

// ReconcileCounters rewrites drifted counters from the row counts and returns the
// posts it repaired.
func ReconcileCounters(ctx context.Context, db *gorm.DB) ([]CounterDrift, error) {
	var fixed []CounterDrift
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		drift, err := FindCounterDrift(ctx, tx)
		if err != nil {
			return err
		}
		for _, d := range drift {
			if err := tx.Model(&models.Post{}).Where("id = ?", d.PostID).Updates(map[string]any{
				"likes":    d.LikeRows,
				"comments": d.CommentRows,
			}).Error; err != nil {
				return fmt.Errorf("reconcile post %d: %w", d.PostID, err)
			}
			middleware.Logger.Warn("post counters reconciled",
				slog.Uint64("post_id", uint64(d.PostID)),
				slog.Int("likes", d.LikeRows),
				slog.Int("comments", d.CommentRows),
			)
		}
		fixed = drift
		return nil
	})
	return fixed, err
}

func isProdLikeEnv(env string) bool {
	e := strings.ToLower(strings.TrimSpace(env))
	return e == "production" || e == "prod" || e == "staging" || e == "stage"
}

func normalizedSchemaMode(cfg *config.Config) string {
	// The SQL migrations are written for PostgreSQL.
	if cfg.StoreDriver == config.StoreDriverSQLite {
		return SchemaModeAuto
	}
	mode := strings.ToLower(strings.TrimSpace(cfg.DBSchemaMode))
	if mode == "" {
		return SchemaModeHybrid
	}
	return mode
}

func schemaPolicy(cfg *config.Config) (runSQL bool, runAuto bool, err error) {
	mode := normalizedSchemaMode(cfg)
	prodLike := isProdLikeEnv(cfg.Env)

	switch mode {
	case SchemaModeSQL:
		return true, false, nil
	case SchemaModeAuto:
		if prodLike {
			return false, false, fmt.Errorf("refusing DB_SCHEMA_MODE=auto in %q", cfg.Env)
		}
		return false, true, nil
	case SchemaModeHybrid:
		return true, !prodLike, nil
	default:
		return false, false, fmt.Errorf("unsupported DB_SCHEMA_MODE %q", mode)
	}
}

// AutoMigrate creates or updates the tables for every persistent model.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(PersistentModels()...)
}

// ApplySchema runs SQL migrations and/or AutoMigrate according to DB_SCHEMA_MODE.
func ApplySchema(ctx context.Context, db *gorm.DB, cfg *config.Config) error {
	runSQL, runAuto, err := schemaPolicy(cfg)
	if err != nil {
		return err
	}

	if runSQL {
		if err := RunMigrations(ctx, db); err != nil {
			return fmt.Errorf("run sql migrations: %w", err)
		}
	}

	if runAuto {
		middleware.Logger.Info("Running GORM AutoMigrate",
			slog.String("mode", normalizedSchemaMode(cfg)),
			slog.String("env", cfg.Env),
		)
		if err := AutoMigrate(db.WithContext(ctx)); err != nil {
			return fmt.Errorf("auto-migrate: %w", err)
		}
	}

	return nil
}

// GetSchemaStatus reports the schema policy and pending SQL migrations.
func GetSchemaStatus(ctx context.Context, db *gorm.DB, cfg *config.Config) (*SchemaStatus, error) {
	runSQL, runAuto, err := schemaPolicy(cfg)
	if err != nil {
		return nil, err
	}

	status := &SchemaStatus{
		Mode:               normalizedSchemaMode(cfg),
		Environment:        cfg.Env,
		WillRunSQL:         runSQL,
		WillRunAutoMigrate: runAuto,
	}

	if db.Migrator().HasTable(&models.Post{}) {
		drift, err := FindCounterDrift(ctx, db)
		if err != nil {
			return nil, err
		}
		status.CounterDrift = drift
	}

	if !runSQL {
		return status, nil
	}

	store := NewMigrationStore(db)
	applied, err := store.GetAppliedMigrations(ctx)
	if err != nil {
		return nil, err
	}
	status.AppliedVersions = applied

	appliedSet := make(map[int]bool, len(applied))
	for _, version := range applied {
		appliedSet[version] = true
	}
	for _, m := range GetMigrations() {
		if !appliedSet[m.Version] {
			status.PendingMigrations = append(status.PendingMigrations, m)
		}
	}

	return status, nil
}
