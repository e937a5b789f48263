package catalog

import (
	"time"

	"github.com/mmcdole/shelf/internal/domain"
)

// State is the synchronizer's position in its load/mutate lifecycle
type State int

const (
	StateIdle State = iota
	StateLoading
	StateLoaded
	StateLoadFailed
	StateMutating
	StateMutateSucceeded
	StateMutateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	case StateLoadFailed:
		return "load_failed"
	case StateMutating:
		return "mutating"
	case StateMutateSucceeded:
		return "mutate_succeeded"
	case StateMutateFailed:
		return "mutate_failed"
	default:
		return "unknown"
	}
}

// Snapshot is an immutable view of catalog state. Slices are never
// modified after publication; the Service replaces them instead.
type Snapshot struct {
	State     State
	Raw       []domain.Book // normalized, before aggregation
	Books     []domain.Book // aggregated, one per title
	Message   string
	Uploading bool
	Pending   []domain.PendingDelete
	Divergent []string // pending delete ids the server still reports
	LoadedAt  time.Time
	Version   uint64
}

// Loaded reports whether the catalog holds server data that writes may build on
func (s Snapshot) Loaded() bool {
	switch s.State {
	case StateLoaded, StateMutateSucceeded, StateMutateFailed:
		return true
	}
	return false
}

// Find returns the aggregated entry with the given id
func (s Snapshot) Find(id string) (domain.Book, bool) {
	for _, b := range s.Books {
		if b.ID == id {
			return b, true
		}
	}
	for _, b := range s.Raw {
		if b.ID == id {
			return b, true
		}
	}
	return domain.Book{}, false
}

// EventKind identifies what changed in the catalog
type EventKind int

const (
	EventLoaded EventKind = iota
	EventLoadFailed
	EventChanged
	EventDeleted
	EventDiverged
	EventMutateFailed
	EventUploading
)

func (k EventKind) String() string {
	switch k {
	case EventLoaded:
		return "loaded"
	case EventLoadFailed:
		return "load_failed"
	case EventChanged:
		return "changed"
	case EventDeleted:
		return "deleted"
	case EventDiverged:
		return "diverged"
	case EventMutateFailed:
		return "mutate_failed"
	case EventUploading:
		return "uploading"
	default:
		return "unknown"
	}
}

// Event is delivered to subscribers after each state transition
type Event struct {
	Kind    EventKind
	ID      string // book id for mutation events
	Message string
	Version uint64
}
