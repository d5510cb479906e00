package core

import "time"

// QuotaState captures the rolling request-quota counter for upstream fetches.
type QuotaState struct {
	RequestCount int        `json:"request_count" yaml:"request_count"`
	WindowStart  time.Time  `json:"window_start" yaml:"window_start"`
	BackoffUntil *time.Time `json:"backoff_until,omitempty" yaml:"backoff_until,omitempty"`
}
