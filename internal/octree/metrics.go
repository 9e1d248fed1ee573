package octree

import (
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	errTypeLabel = "error_type"
	policyLabel  = "policy"
	resultLabel  = "result"
)

var (
	buildCount = promauto.NewCounter(prometheus.CounterOpts{
		Name: "octree_builds",
		Help: "The number of octrees built.",
	})

	buildErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "octree_build_errors",
		Help: "The errors that occurred while building an octree.",
	}, []string{
		errTypeLabel,
	})

	buildLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name: "octree_build_latency",
		Help: "The time to build an octree.",
	})

	truncatedLeaves = promauto.NewCounter(prometheus.CounterOpts{
		Name: "octree_truncated_leaves",
		Help: "Leaves closed by the build depth limit.",
	})

	searchCount = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "octree_searches",
		Help: "The number of ray searches.",
	}, []string{
		policyLabel,
		resultLabel,
	})

	searchLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "octree_search_latency",
		Help:    "The time to run a ray search.",
		Buckets: prometheus.ExponentialBuckets(1e-6, 4, 10),
	}, []string{
		policyLabel,
	})
)

func instrumentBuild(start time.Time, truncated int) {
	buildCount.Inc()
	buildLatency.Observe(time.Since(start).Seconds())
	truncatedLeaves.Add(float64(truncated))
}

func instrumentBuildError(err error) {
	buildErrors.
		With(prometheus.Labels{
			errTypeLabel: errors.Type(err),
		}).
		Inc()
}

func instrumentSearch(start time.Time, policy string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	searchCount.With(prometheus.Labels{
		policyLabel: policy,
		resultLabel: result,
	}).Inc()
	searchLatency.With(prometheus.Labels{
		policyLabel: policy,
	}).Observe(time.Since(start).Seconds())
}
