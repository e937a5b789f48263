package catalog

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/mmcdole/shelf/internal/domain"
	"github.com/mmcdole/shelf/internal/validate"
)

const (
	msgCreated = "Book added successfully"
	msgUpdated = "Book updated successfully"
	msgDeleted = "Book deleted successfully"
)

// Service owns the catalog and synchronizes it with the backend.
// All views read from the same snapshot, so they cannot drift apart.
type Service struct {
	repo      domain.CatalogRepository
	gate      domain.SessionGate
	pending   domain.ReconcileStore
	validator *validate.Validator
	logger    *slog.Logger
	now       func() time.Time

	mu   sync.Mutex
	snap Snapshot

	events *broadcaster
}

// NewService creates a catalog service. pending may be nil, in which case
// rejected deletes are only tracked in memory.
func NewService(repo domain.CatalogRepository, gate domain.SessionGate, pending domain.ReconcileStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		repo:      repo,
		gate:      gate,
		pending:   pending,
		validator: validate.New(),
		logger:    logger,
		now:       time.Now,
		events:    newBroadcaster(),
	}
	if pending != nil {
		s.snap.Pending = pending.PendingDeletes()
	}
	return s
}

// SetClock replaces the clock used for normalization and validation
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
	s.validator = validate.NewAt(now)
}

// Snapshot returns a copy of the current catalog state. The slices are
// cloned, so callers may modify them freely.
func (s *Service) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.snap
	snap.Raw = slices.Clone(snap.Raw)
	snap.Books = slices.Clone(snap.Books)
	snap.Pending = slices.Clone(snap.Pending)
	snap.Divergent = slices.Clone(snap.Divergent)
	return snap
}

// Subscribe returns a channel of catalog events and a func to stop them
func (s *Service) Subscribe() (<-chan Event, func()) {
	return s.events.subscribe()
}

// update applies fn to a copy of the snapshot and publishes the result
func (s *Service) update(fn func(*Snapshot)) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.snap
	fn(&next)
	next.Version++
	s.snap = next
	return next
}

// beginLoad moves to StateLoading unless a load is already refreshing a
// non-empty catalog. The check and the transition share one lock.
func (s *Service) beginLoad() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snap.State == StateLoading && len(s.snap.Books) > 0 {
		return false
	}
	next := s.snap
	next.State = StateLoading
	next.Version++
	s.snap = next
	return true
}

func (s *Service) emit(kind EventKind, id, msg string, version uint64) {
	s.events.publish(Event{Kind: kind, ID: id, Message: msg, Version: version})
}

// Load fetches the full catalog and replaces local state with it.
//
// Only ErrAuthRequired is returned. Transport and shape failures empty the
// catalog, record a message and move to StateLoadFailed.
func (s *Service) Load(ctx context.Context) error {
	if !s.gate.IsAuthenticated() {
		return domain.ErrAuthRequired
	}

	if !s.beginLoad() {
		s.logger.Debug("load already in flight, skipping")
		return nil
	}

	start := time.Now()
	raws, err := s.repo.ListBooks(ctx)
	if err != nil {
		msg := domain.Message(err)
		s.logger.Error("failed to load catalog", "error", err)
		snap := s.update(func(n *Snapshot) {
			n.State = StateLoadFailed
			n.Raw = nil
			n.Books = nil
			n.Divergent = nil
			n.Message = msg
		})
		s.emit(EventLoadFailed, "", msg, snap.Version)
		return nil
	}

	books := NormalizeAll(raws, s.now())
	aggregated := Aggregate(books)
	pending, divergent := s.reconcile(books)

	snap := s.update(func(n *Snapshot) {
		n.State = StateLoaded
		n.Raw = books
		n.Books = aggregated
		n.Pending = pending
		n.Divergent = divergent
		n.LoadedAt = s.now()
		n.Message = ""
	})

	s.logger.Info("catalog loaded",
		"records", len(books),
		"titles", len(aggregated),
		"pending", len(pending),
		"duration", time.Since(start),
	)
	s.emit(EventLoaded, "", "", snap.Version)
	return nil
}

// reconcile resolves pending deletes the server has since honored and
// returns the ids the server still reports.
func (s *Service) reconcile(books []domain.Book) ([]domain.PendingDelete, []string) {
	current := s.Snapshot().Pending
	if len(current) == 0 {
		return nil, nil
	}

	present := make(map[string]bool, len(books))
	for _, b := range books {
		present[b.ID] = true
	}

	var still []domain.PendingDelete
	var divergent []string
	for _, p := range current {
		if !present[p.ID] {
			s.logger.Info("pending delete resolved", "id", p.ID)
			if s.pending != nil {
				if err := s.pending.ResolvePendingDelete(p.ID); err != nil {
					s.logger.Error("failed to clear pending delete", "id", p.ID, "error", err)
				}
			}
			continue
		}
		still = append(still, p)
		divergent = append(divergent, p.ID)
	}
	if len(divergent) > 0 {
		s.logger.Warn("server still has locally deleted books", "ids", divergent)
	}
	return still, divergent
}

// beginMutation moves to StateMutating if the catalog has been loaded
func (s *Service) beginMutation(uploading bool) error {
	if !s.gate.IsAuthenticated() {
		return domain.ErrAuthRequired
	}
	s.mu.Lock()
	loaded := s.snap.Loaded()
	s.mu.Unlock()
	if !loaded {
		return domain.ErrCatalogNotLoaded
	}
	snap := s.update(func(n *Snapshot) {
		n.State = StateMutating
		n.Uploading = uploading
		n.Message = ""
	})
	if uploading {
		s.emit(EventUploading, "", "", snap.Version)
	}
	return nil
}

func (s *Service) failMutation(op, id string, err error) error {
	msg := domain.Message(err)
	s.logger.Error("failed to "+op+" book", "id", id, "error", err)
	snap := s.update(func(n *Snapshot) {
		n.State = StateMutateFailed
		n.Uploading = false
		n.Message = msg
	})
	s.emit(EventMutateFailed, id, msg, snap.Version)
	return err
}

// rejectInvalid records a validation failure without touching state
func (s *Service) rejectInvalid(err error) error {
	msg := domain.Message(err)
	s.update(func(n *Snapshot) { n.Message = msg })
	return err
}

// Create adds a book, uploading cover when non-nil, then reloads the
// catalog from the server. On failure the catalog is left untouched.
func (s *Service) Create(ctx context.Context, fields domain.BookFields, cover *domain.CoverUpload) error {
	if err := s.validator.Struct(fields); err != nil {
		return s.rejectInvalid(err)
	}
	if err := s.beginMutation(true); err != nil {
		return err
	}

	msg, err := s.repo.CreateBook(ctx, fields, cover)
	if err != nil {
		return s.failMutation("create", "", err)
	}
	if msg == "" {
		msg = msgCreated
	}

	s.logger.Info("book created", "title", fields.Title, "cover", cover != nil)
	s.update(func(n *Snapshot) {
		n.State = StateMutateSucceeded
		n.Uploading = false
	})
	s.reloadAfter(ctx, msg)
	return nil
}

// Update replaces a book's fields and reloads. Other views are notified
// with EventChanged. On failure the previous catalog stays intact.
func (s *Service) Update(ctx context.Context, id string, fields domain.BookFields) error {
	if err := s.validator.Struct(fields); err != nil {
		return s.rejectInvalid(err)
	}
	if err := s.beginMutation(false); err != nil {
		return err
	}

	msg, err := s.repo.UpdateBook(ctx, id, fields)
	if err != nil {
		return s.failMutation("update", id, err)
	}
	if msg == "" {
		msg = msgUpdated
	}

	s.logger.Info("book updated", "id", id)
	s.update(func(n *Snapshot) { n.State = StateMutateSucceeded })
	snap := s.reloadAfter(ctx, msg)
	s.emit(EventChanged, id, msg, snap.Version)
	return nil
}

// reloadAfter reloads the catalog after a successful write and keeps the
// write's message unless the reload itself failed.
func (s *Service) reloadAfter(ctx context.Context, msg string) Snapshot {
	_ = s.Load(ctx)
	return s.update(func(n *Snapshot) {
		if n.State != StateLoadFailed {
			n.Message = msg
		}
	})
}

// Delete removes a book on the server and locally, without reloading.
//
// If the server rejects the delete the book is still removed locally. The
// rejection is recorded as a pending delete, persisted, and announced with
// EventDiverged; the next Load reports whether the server still has it.
// A NotFoundError removes the book locally and records nothing.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.beginMutation(false); err != nil {
		return err
	}

	title := ""
	if b, ok := s.Snapshot().Find(id); ok {
		title = b.Title
	}

	msg, err := s.repo.DeleteBook(ctx, id)
	switch {
	case err == nil:
		if msg == "" {
			msg = msgDeleted
		}
		s.logger.Info("book deleted", "id", id)
		snap := s.removeLocal(id, StateMutateSucceeded, msg, nil)
		s.emit(EventDeleted, id, msg, snap.Version)
		return nil

	case domain.IsNotFound(err):
		s.logger.Warn("deleted book was already gone", "id", id)
		snap := s.removeLocal(id, StateMutateSucceeded, domain.Message(err), nil)
		s.emit(EventDeleted, id, snap.Message, snap.Version)
		return err

	default:
		p := domain.PendingDelete{ID: id, Title: title, Message: domain.Message(err), FailedAt: s.now()}
		s.logger.Error("delete rejected, removed locally", "id", id, "error", err)
		if s.pending != nil {
			if serr := s.pending.SavePendingDelete(p); serr != nil {
				s.logger.Error("failed to persist pending delete", "id", id, "error", serr)
			}
		}
		snap := s.removeLocal(id, StateMutateFailed, p.Message, &p)
		s.emit(EventDiverged, id, p.Message, snap.Version)
		return err
	}
}

// removeLocal drops id from the raw records and rebuilds the aggregate
func (s *Service) removeLocal(id string, state State, msg string, p *domain.PendingDelete) Snapshot {
	return s.update(func(n *Snapshot) {
		n.Raw = Without(n.Raw, id)
		n.Books = Aggregate(n.Raw)
		n.State = state
		n.Uploading = false
		n.Message = msg
		if p != nil {
			pending := make([]domain.PendingDelete, 0, len(n.Pending)+1)
			for _, existing := range n.Pending {
				if existing.ID != p.ID {
					pending = append(pending, existing)
				}
			}
			n.Pending = append(pending, *p)
		}
	})
}

// RetryPending re-sends every pending delete. Deletes the server now
// accepts, or no longer recognizes, are cleared.
func (s *Service) RetryPending(ctx context.Context) (int, error) {
	if !s.gate.IsAuthenticated() {
		return 0, domain.ErrAuthRequired
	}

	cleared := 0
	var lastErr error
	for _, p := range s.Snapshot().Pending {
		_, err := s.repo.DeleteBook(ctx, p.ID)
		if err != nil && !domain.IsNotFound(err) {
			s.logger.Error("pending delete still rejected", "id", p.ID, "error", err)
			lastErr = err
			continue
		}
		if err := s.DismissPending(p.ID); err != nil {
			lastErr = err
			continue
		}
		cleared++
	}
	return cleared, lastErr
}

// DismissPending forgets a pending delete without contacting the server
func (s *Service) DismissPending(id string) error {
	if s.pending != nil {
		if err := s.pending.ResolvePendingDelete(id); err != nil {
			return err
		}
	}
	snap := s.update(func(n *Snapshot) {
		pending := make([]domain.PendingDelete, 0, len(n.Pending))
		for _, p := range n.Pending {
			if p.ID != id {
				pending = append(pending, p)
			}
		}
		n.Pending = pending
		divergent := make([]string, 0, len(n.Divergent))
		for _, d := range n.Divergent {
			if d != id {
				divergent = append(divergent, d)
			}
		}
		n.Divergent = divergent
	})
	s.emit(EventChanged, id, "", snap.Version)
	return nil
}

// Search runs a server-side title search. When the server search fails the
// loaded catalog is searched locally instead.
func (s *Service) Search(ctx context.Context, title string) ([]domain.Book, error) {
	if !s.gate.IsAuthenticated() {
		return nil, domain.ErrAuthRequired
	}

	raws, err := s.repo.SearchBooks(ctx, title)
	if err != nil {
		s.logger.Warn("remote search failed, searching locally", "query", title, "error", err)
		return Filter(s.Snapshot().Books, title, domain.MatchTitle, domain.StatusAny), nil
	}
	return Aggregate(NormalizeAll(raws, s.now())), nil
}

// FilterRemote asks the server for books with the given status, falling
// back to the local on-shelf predicate when the server cannot answer.
func (s *Service) FilterRemote(ctx context.Context, status domain.StatusFilter) ([]domain.Book, error) {
	if !s.gate.IsAuthenticated() {
		return nil, domain.ErrAuthRequired
	}
	if status == domain.StatusAny {
		return s.Snapshot().Books, nil
	}

	raws, err := s.repo.FilterBooks(ctx, domain.StatusAvailable)
	if err != nil {
		s.logger.Warn("remote filter failed, filtering locally", "status", status, "error", err)
		return Filter(s.Snapshot().Books, "", domain.MatchTitle, status), nil
	}
	return Aggregate(NormalizeAll(raws, s.now())), nil
}

// Book fetches a single book from the server
func (s *Service) Book(ctx context.Context, id string) (domain.Book, error) {
	if !s.gate.IsAuthenticated() {
		return domain.Book{}, domain.ErrAuthRequired
	}
	raw, err := s.repo.GetBook(ctx, id)
	if err != nil {
		return domain.Book{}, err
	}
	return NormalizeAt(raw, s.now()), nil
}

// Reset clears all catalog state, used after logout
func (s *Service) Reset() {
	snap := s.update(func(n *Snapshot) {
		pending := n.Pending
		*n = Snapshot{Pending: pending, Version: n.Version}
	})
	s.emit(EventChanged, "", "", snap.Version)
}
