package models

import "time"

// MetricsSnapshot is a lightweight JSON view over the Prometheus counters.
type MetricsSnapshot struct {
	RequestsTotal    uint64    `json:"requestsTotal"`
	CommitsTotal     uint64    `json:"commitsTotal"`
	RejectionsTotal  uint64    `json:"rejectionsTotal"`
	FailedDeliveries uint64    `json:"failedDeliveries"`
	CacheHitRatio    float64   `json:"cacheHitRatio"`
	Goroutines       int       `json:"goroutines"`
	GeneratedAt      time.Time `json:"generatedAt"`
}
