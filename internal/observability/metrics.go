package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// LikeToggles counts like toggles by resulting state ("liked" or "unliked").
	LikeToggles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "docfeed_like_toggles_total",
		Help: "Total number of like toggles by resulting state",
	}, []string{"result"})

	// LikeToggleRetries counts toggles that lost an insert race and were retried.
	LikeToggleRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "docfeed_like_toggle_retries_total",
		Help: "Total number of like toggle attempts retried after a concurrent insert",
	})

	// CommentsCreated counts created comments.
	CommentsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "docfeed_comments_created_total",
		Help: "Total number of comments created",
	})

	// PostsCreated counts created posts.
	PostsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "docfeed_posts_created_total",
		Help: "Total number of posts created",
	})

	// ActivitiesRecorded counts activity log writes by outcome.
	ActivitiesRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "docfeed_activities_recorded_total",
		Help: "Total number of activity log writes by outcome",
	}, []string{"outcome"})

	// StoreOperationLatency records store latency by store kind and operation.
	StoreOperationLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "docfeed_store_operation_latency_seconds",
		Help:    "Store operation latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"store", "operation"})
)

// TrackStoreOperation returns a function that records the operation latency when called (e.g. defer).
func TrackStoreOperation(store, operation string) func() {
	start := time.Now()
	return func() {
		StoreOperationLatency.WithLabelValues(store, operation).Observe(time.Since(start).Seconds())
	}
}
