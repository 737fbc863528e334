package registry

import (
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of one connection attempt.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConnected Status = "CONNECTED"
	StatusFailed    Status = "FAILED"
)

// Terminal reports whether no further transition is allowed from s.
func (s Status) Terminal() bool {
	return s == StatusConnected || s == StatusFailed
}

// CanTransitionTo reports whether s may move to next. Only PENDING rows move,
// and only to CONNECTED or FAILED.
func (s Status) CanTransitionTo(next Status) bool {
	if s != StatusPending {
		return false
	}
	return next == StatusConnected || next == StatusFailed
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConnected, StatusFailed:
		return true
	default:
		return false
	}
}

// Integration is the lifecycle record of one project's connection attempt to
// one provider. It never carries credential material.
type Integration struct {
	ID           uuid.UUID    `json:"id"`
	ProjectID    uuid.UUID    `json:"projectId"`
	ProviderType ProviderType `json:"integrationType"`
	Status       Status       `json:"status"`
	DisplayName  string       `json:"displayName"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}
