package catalog

import (
	"sync"

	"github.com/mmcdole/shelf/internal/domain"
)

// View is one UI surface over the shared catalog. It keeps only its own
// query and status filter; the books always come from the Service's
// current snapshot.
type View struct {
	svc   *Service
	match domain.MatchMode

	mu     sync.RWMutex
	query  string
	status domain.StatusFilter
}

// NewView creates a surface that matches queries using mode
func (s *Service) NewView(mode domain.MatchMode) *View {
	return &View{svc: s, match: mode}
}

// SetQuery sets the text query
func (v *View) SetQuery(q string) {
	v.mu.Lock()
	v.query = q
	v.mu.Unlock()
}

// SetStatus sets the status filter
func (v *View) SetStatus(f domain.StatusFilter) {
	v.mu.Lock()
	v.status = f
	v.mu.Unlock()
}

// Query returns the current text query
func (v *View) Query() string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.query
}

// Status returns the current status filter
func (v *View) Status() domain.StatusFilter {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.status
}

// Match returns the view's match mode
func (v *View) Match() domain.MatchMode { return v.match }

// Books returns the filtered books from the current snapshot
func (v *View) Books() []domain.Book {
	books, _ := v.BooksAt()
	return books
}

// BooksAt returns the filtered books and the snapshot they came from
func (v *View) BooksAt() ([]domain.Book, Snapshot) {
	snap := v.svc.Snapshot()
	v.mu.RLock()
	q, st := v.query, v.status
	v.mu.RUnlock()
	return Filter(snap.Books, q, v.match, st), snap
}
