package s3

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// The backend label separates ordinary object access from disk-backed object
// access so the two can be graphed and alerted on independently.
const (
	backendS3     = "s3"
	backendDiskS3 = "disk_s3"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "s3gate",
		Name:      "requests_total",
		Help:      "Object store requests issued, by HTTP method and backend.",
	}, []string{"method", "backend"})

	requestErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "s3gate",
		Name:      "request_errors_total",
		Help:      "Object store requests that failed at the transport, by HTTP method and backend.",
	}, []string{"method", "backend"})

	metadataLookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "s3gate",
		Name:      "metadata_lookups_total",
		Help:      "Metadata-only lookups, by operation, backend and outcome.",
	}, []string{"operation", "backend", "outcome"})
)

func backendLabel(forDiskS3 bool) string {
	if forDiskS3 {
		return backendDiskS3
	}
	return backendS3
}
