package service

import (
	"context"

	"github.com/GabrielSchiavo/smartstock-sub002/internal/masterdata/repository"
	"github.com/GabrielSchiavo/smartstock-sub002/internal/refdata"
)

// Store adapts a ReferenceService to the refdata.Store interface, so
// each reference collection can back resolver-driven combobox
// endpoints.
type Store struct {
	svc *ReferenceService
}

// NewStore wraps a reference service as a resolver store.
func NewStore(svc *ReferenceService) *Store {
	return &Store{svc: svc}
}

// Search implements refdata.Store.
func (s *Store) Search(ctx context.Context, query string) ([]refdata.Option, error) {
	entries, err := s.svc.Search(ctx, query, 0)
	if err != nil {
		return nil, err
	}
	return toOptions(entries), nil
}

// Create implements refdata.Store.
func (s *Store) Create(ctx context.Context, name string) (refdata.Option, error) {
	entry, err := s.svc.Create(ctx, name)
	if err != nil {
		return refdata.Option{}, err
	}
	return refdata.Option{ID: entry.ID, Name: entry.Name}, nil
}

// GetAll implements refdata.Store.
func (s *Store) GetAll(ctx context.Context) ([]refdata.Option, error) {
	entries, err := s.svc.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	return toOptions(entries), nil
}

// Delete implements refdata.Store. The service performs its own usage
// guard as well, so a delete reaching the database is double-checked.
func (s *Store) Delete(ctx context.Context, id string) error {
	return s.svc.Delete(ctx, id)
}

// CheckUsage implements refdata.Store.
func (s *Store) CheckUsage(ctx context.Context, id string) (bool, error) {
	return s.svc.CheckUsage(ctx, id)
}

func toOptions(entries []*repository.ReferenceEntry) []refdata.Option {
	options := make([]refdata.Option, 0, len(entries))
	for _, entry := range entries {
		options = append(options, refdata.Option{ID: entry.ID, Name: entry.Name})
	}
	return options
}
