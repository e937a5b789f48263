package domain

import "time"

// PendingDelete records a delete the server rejected after the book was
// already removed from the local catalog.
type PendingDelete struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Message  string    `json:"message"`
	FailedAt time.Time `json:"failed_at"`
}

// ReconcileStore persists pending deletes across runs
type ReconcileStore interface {
	PendingDeletes() []PendingDelete
	SavePendingDelete(p PendingDelete) error
	ResolvePendingDelete(id string) error
}
