package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sort"
	"strings"
	"sync"
)

// Service handles the wiki rules for entries on top of a Repository.
type Service struct {
	repo   Repository
	logger *slog.Logger
	intn   func(n int) int

	mu       sync.RWMutex
	lastOp   string
	creates  int
	edits    int
	searches int
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithServiceLogger sets the logger used by the service.
func WithServiceLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithRandomSource replaces the source used by RandomTitle. intn must return
// a value in [0, n).
func WithRandomSource(intn func(n int) int) ServiceOption {
	return func(s *Service) {
		s.intn = intn
	}
}

// NewService creates a new Service.
func NewService(repo Repository, opts ...ServiceOption) *Service {
	s := &Service{
		repo: repo,
		intn: rand.IntN,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Repository returns the underlying storage adapter.
func (s *Service) Repository() Repository {
	return s.repo
}

// ListEntries returns every entry ordered by title, ignoring case.
// Content is not guaranteed to be populated.
func (s *Service) ListEntries(ctx context.Context) ([]Entry, error) {
	entries, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return fold(entries[i].Title) < fold(entries[j].Title)
	})
	return entries, nil
}

// ListTitles returns every entry title ordered ignoring case.
func (s *Service) ListTitles(ctx context.Context) ([]string, error) {
	entries, err := s.ListEntries(ctx)
	if err != nil {
		return nil, err
	}
	titles := make([]string, 0, len(entries))
	for _, e := range entries {
		titles = append(titles, e.Title)
	}
	return titles, nil
}

// GetEntry retrieves an entry by title, ignoring case.
func (s *Service) GetEntry(ctx context.Context, title string) (Entry, error) {
	key, err := Key(title)
	if err != nil {
		return Entry{}, err
	}
	return s.repo.Get(ctx, key)
}

// SaveEntry persists content under title, creating or overwriting the entry.
func (s *Service) SaveEntry(ctx context.Context, title, content string) error {
	key, err := Key(title)
	if err != nil {
		return err
	}
	ctx = WithChangeReason(ctx, FormatChangeReason(ChangeTypeDocs, "entries", "update "+strings.TrimSpace(title), ""))
	return s.repo.Save(ctx, Entry{
		Key:      key,
		Title:    strings.TrimSpace(title),
		Content:  content,
		Metadata: Metadata{"title": strings.TrimSpace(title)},
	})
}

// CreateEntry stores a new entry. The stored content starts with a level one
// heading carrying the title, followed by body. An entry whose title differs
// only in case already counts as existing.
//
// When the repository is a Creator the existence check and the write are one
// step, so of two concurrent creates of a title only one succeeds. Otherwise
// the check and the write are separate calls and the later write wins.
func (s *Service) CreateEntry(ctx context.Context, title, body string) (Entry, error) {
	title = strings.TrimSpace(title)
	key, err := Key(title)
	if err != nil {
		return Entry{}, err
	}

	entry := Entry{
		Key:      key,
		Title:    title,
		Content:  "# " + title + "\n" + body,
		Metadata: Metadata{"title": title},
	}
	ctx = WithChangeReason(ctx, FormatChangeReason(ChangeTypeFeat, "entries", "create "+title, ""))

	if creator, ok := s.repo.(Creator); ok {
		if err := creator.Create(ctx, entry); err != nil {
			return Entry{}, err
		}
	} else {
		existing, err := s.repo.Get(ctx, key)
		switch {
		case err == nil:
			return Entry{}, fmt.Errorf("%w: %q", ErrExists, existing.Title)
		case !errors.Is(err, ErrNotFound):
			return Entry{}, err
		}
		if err := s.repo.Save(ctx, entry); err != nil {
			return Entry{}, err
		}
	}

	s.record("create", &s.creates)
	if s.logger != nil {
		s.logger.Info("entry created", "title", title, "key", key)
	}
	return entry, nil
}

// EditEntry replaces the content of the entry called oldTitle and gives it
// newTitle. When the key changes the edit is a rename: the new entry is
// written before the old one is removed, inside one transaction when the
// repository supports it. Renaming onto another existing entry fails with
// ErrExists.
func (s *Service) EditEntry(ctx context.Context, oldTitle, newTitle, content string) (Entry, error) {
	oldKey, err := Key(oldTitle)
	if err != nil {
		return Entry{}, err
	}
	newTitle = strings.TrimSpace(newTitle)
	newKey, err := Key(newTitle)
	if err != nil {
		return Entry{}, err
	}

	current, err := s.repo.Get(ctx, oldKey)
	if err != nil {
		return Entry{}, err
	}

	updated := Entry{
		Key:      newKey,
		Title:    newTitle,
		Content:  content,
		Metadata: mergeMetadata(current.Metadata, newTitle),
	}

	if oldKey == newKey {
		ctx = WithChangeReason(ctx, FormatChangeReason(ChangeTypeDocs, "entries", "edit "+newTitle, ""))
		if err := s.repo.Save(ctx, updated); err != nil {
			return Entry{}, err
		}
		s.record("edit", &s.edits)
		return updated, nil
	}

	if _, err := s.repo.Get(ctx, newKey); err == nil {
		return Entry{}, fmt.Errorf("%w: cannot rename %q to %q", ErrExists, current.Title, newTitle)
	} else if !errors.Is(err, ErrNotFound) {
		return Entry{}, err
	}

	reason := FormatChangeReason(ChangeTypeRefactor, "entries", fmt.Sprintf("rename %s to %s", current.Title, newTitle), "")
	ctx = WithChangeReason(ctx, reason)

	err = s.WithTransaction(ctx, func(tx Transaction) error {
		if err := tx.Save(ctx, updated); err != nil {
			return err
		}
		return tx.Delete(ctx, oldKey)
	})
	if errors.Is(err, ErrUnsupported) {
		if err := s.repo.Save(ctx, updated); err != nil {
			return Entry{}, err
		}
		err = s.repo.Delete(ctx, oldKey)
	}
	if err != nil {
		return Entry{}, fmt.Errorf("rename %q: %w", current.Title, err)
	}

	s.record("rename", &s.edits)
	if s.logger != nil {
		s.logger.Info("entry renamed", "from", current.Title, "to", newTitle)
	}
	return updated, nil
}

// DeleteEntry removes the entry called title.
func (s *Service) DeleteEntry(ctx context.Context, title string) error {
	key, err := Key(title)
	if err != nil {
		return err
	}
	ctx = WithChangeReason(ctx, FormatChangeReason(ChangeTypeDocs, "entries", "delete "+strings.TrimSpace(title), ""))
	return s.repo.Delete(ctx, key)
}

// SearchResult is the outcome of Search.
// Exact holds the title of an entry matching the query exactly (ignoring
// case); Matches lists every title containing the query.
type SearchResult struct {
	Query   string
	Exact   string
	Matches []string
}

// Search looks the query up among entry titles, ignoring case.
func (s *Service) Search(ctx context.Context, query string) (SearchResult, error) {
	query = strings.TrimSpace(query)
	result := SearchResult{Query: query}
	if query == "" {
		return result, nil
	}

	titles, err := s.ListTitles(ctx)
	if err != nil {
		return result, err
	}

	needle := fold(query)
	for _, title := range titles {
		if SameTitle(title, query) {
			result.Exact = title
		}
		if strings.Contains(fold(title), needle) {
			result.Matches = append(result.Matches, title)
		}
	}

	s.record("search", &s.searches)
	return result, nil
}

// RandomTitle picks an entry title uniformly at random.
func (s *Service) RandomTitle(ctx context.Context) (string, error) {
	titles, err := s.ListTitles(ctx)
	if err != nil {
		return "", err
	}
	if len(titles) == 0 {
		return "", fmt.Errorf("%w: encyclopedia is empty", ErrNotFound)
	}
	return titles[s.intn(len(titles))], nil
}

// History returns up to limit revisions of the entry called title, newest
// first. It returns ErrUnsupported when the repository keeps no history.
func (s *Service) History(ctx context.Context, title string, limit int) ([]Revision, error) {
	h, ok := s.repo.(Historian)
	if !ok {
		return nil, fmt.Errorf("%w: history", ErrUnsupported)
	}
	key, err := Key(title)
	if err != nil {
		return nil, err
	}
	return h.History(ctx, key, limit)
}

// WithTransaction executes fn within a transaction. It returns ErrUnsupported
// when the repository is not Transactional.
func (s *Service) WithTransaction(ctx context.Context, fn func(tx Transaction) error) error {
	tr, ok := s.repo.(Transactional)
	if !ok {
		return fmt.Errorf("%w: transactions", ErrUnsupported)
	}

	tx, err := tr.Begin(ctx)
	if err != nil {
		return err
	}

	if err := fn(tx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}

	return tx.Commit(ctx, ChangeReason(ctx, "batch transaction"))
}

// Watch observes changes in the repository if supported.
func (s *Service) Watch(ctx context.Context, pattern string) (<-chan Event, error) {
	w, ok := s.repo.(Watchable)
	if !ok {
		return nil, fmt.Errorf("%w: watching", ErrUnsupported)
	}
	return w.Watch(ctx, pattern)
}

// Sync synchronizes the repository with its remote if supported.
func (s *Service) Sync(ctx context.Context) error {
	sy, ok := s.repo.(Syncable)
	if !ok {
		return fmt.Errorf("%w: synchronization", ErrUnsupported)
	}
	return sy.Sync(ctx)
}

func (s *Service) record(op string, counter *int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastOp = op
	*counter++
}

func mergeMetadata(current Metadata, title string) Metadata {
	out := make(Metadata, len(current)+1)
	for k, v := range current {
		out[k] = v
	}
	out["title"] = title
	return out
}
