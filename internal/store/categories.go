package store

import (
	"context"

	"moneytrack/internal/core"
	"moneytrack/internal/metrics"
)

// CategoryState is a point-in-time snapshot of the category slice.
type CategoryState struct {
	Phase      Phase
	Categories []core.Category
	Edit       *core.Category
	Err        string
}

type categorySlice struct {
	phase Phase
	list  []core.Category
	edit  *core.Category
	err   string
	seq   uint64
}

func (s *Store) Categories() CategoryState {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := CategoryState{
		Phase: s.cats.phase,
		Err:   s.cats.err,
	}
	if s.cats.list != nil {
		out.Categories = append([]core.Category(nil), s.cats.list...)
	}
	if s.cats.edit != nil {
		edit := *s.cats.edit
		out.Edit = &edit
	}
	return out
}

func (s *Store) FetchCategories(ctx context.Context) error {
	s.mu.Lock()
	token := beginFetch(&s.cats.seq, &s.cats.phase, &s.cats.err)
	s.mu.Unlock()

	list, err := s.gw.ListCategories(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if stale(s.cats.seq, token) {
		metrics.StaleResponsesDiscarded.WithLabelValues("categories").Inc()
		return err
	}
	if err != nil {
		s.cats.phase = PhaseFailed
		s.cats.err = err.Error()
		return err
	}
	s.cats.phase = PhaseReady
	s.cats.list = list
	return nil
}

func (s *Store) AddCategory(ctx context.Context, in core.CategoryInput) (core.Category, error) {
	created, err := s.gw.CreateCategory(ctx, in)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.cats.err = err.Error()
		return core.Category{}, err
	}
	s.cats.list = append([]core.Category{created}, s.cats.list...)
	s.mutatedLocked("categories")
	return created, nil
}

func (s *Store) UpdateCategory(ctx context.Context, id string, in core.CategoryInput) (core.Category, error) {
	updated, err := s.gw.UpdateCategory(ctx, id, in)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.cats.err = err.Error()
		return core.Category{}, err
	}
	for i := range s.cats.list {
		if s.cats.list[i].ID == id {
			s.cats.list[i] = updated
			break
		}
	}
	s.cats.edit = nil
	s.mutatedLocked("categories")
	return updated, nil
}

// RemoveCategory deletes a category. When the backend refuses because
// transactions still reference it, the cached list is left untouched and the
// tagged error propagates so the UI can show the dedicated message.
func (s *Store) RemoveCategory(ctx context.Context, id string) error {
	err := s.gw.DeleteCategory(ctx, id)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.cats.err = err.Error()
		return err
	}
	filtered := s.cats.list[:0]
	for _, c := range s.cats.list {
		if c.ID != id {
			filtered = append(filtered, c)
		}
	}
	s.cats.list = filtered
	s.mutatedLocked("categories")
	return nil
}

func (s *Store) SetCategoryEdit(c *core.Category) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cats.edit = c
}
