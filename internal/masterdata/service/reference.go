// Package service implements the master-data business rules: reference
// entry CRUD with duplicate detection and usage-guarded deletion.
package service

import (
	"context"
	"strings"

	"github.com/GabrielSchiavo/smartstock-sub002/internal/masterdata/repository"
	"github.com/GabrielSchiavo/smartstock-sub002/pkg/actor"
	"github.com/GabrielSchiavo/smartstock-sub002/pkg/errors"
	"github.com/GabrielSchiavo/smartstock-sub002/pkg/logger"
	"github.com/GabrielSchiavo/smartstock-sub002/pkg/messaging"
)

// EventPublisher publishes domain events.
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, data interface{}) error
}

// ReferenceService manages one reference collection.
type ReferenceService struct {
	repo      *repository.ReferenceRepository
	publisher EventPublisher
	logger    *logger.Logger
}

// NewReferenceService creates a reference service.
func NewReferenceService(repo *repository.ReferenceRepository, publisher EventPublisher, log *logger.Logger) *ReferenceService {
	return &ReferenceService{
		repo:      repo,
		publisher: publisher,
		logger:    log.WithComponent("masterdata." + repo.Collection().Resource),
	}
}

// Collection returns the backing collection.
func (s *ReferenceService) Collection() repository.Collection {
	return s.repo.Collection()
}

// Create inserts a new entry. The name is trimmed; an empty name is a
// validation error, a collision a duplicate-reference error.
func (s *ReferenceService) Create(ctx context.Context, name string) (*repository.ReferenceEntry, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.Validation(map[string]string{"name": "must not be empty"})
	}

	entry, err := s.repo.Create(ctx, name)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("id", entry.ID).
		Str("name", entry.Name).
		Msg("reference entry created")

	s.publish(ctx, messaging.EventReferenceCreated, messaging.ReferenceCreatedEvent{
		ReferenceID: entry.ID,
		Collection:  s.repo.Collection().Resource,
		Name:        entry.Name,
		CreatedBy:   actorID(ctx),
	})

	return entry, nil
}

// GetByID gets an entry by ID.
func (s *ReferenceService) GetByID(ctx context.Context, id string) (*repository.ReferenceEntry, error) {
	return s.repo.GetByID(ctx, id)
}

// GetAll lists all entries.
func (s *ReferenceService) GetAll(ctx context.Context) ([]*repository.ReferenceEntry, error) {
	return s.repo.GetAll(ctx)
}

// Search lists entries matching the query.
func (s *ReferenceService) Search(ctx context.Context, query string, limit int) ([]*repository.ReferenceEntry, error) {
	return s.repo.SearchByName(ctx, strings.TrimSpace(query), limit)
}

// CheckUsage reports whether any live product references the entry.
func (s *ReferenceService) CheckUsage(ctx context.Context, id string) (bool, error) {
	count, err := s.repo.UsageCount(ctx, id)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Delete removes an entry after verifying it is unused. The usage check
// always runs first; an in-use entry fails with a reference-in-use
// error and the delete is never attempted.
func (s *ReferenceService) Delete(ctx context.Context, id string) error {
	entry, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	used, err := s.CheckUsage(ctx, id)
	if err != nil {
		return err
	}
	if used {
		return errors.ReferenceInUse(entry.Name)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info().
		Str("id", id).
		Str("name", entry.Name).
		Msg("reference entry deleted")

	s.publish(ctx, messaging.EventReferenceDeleted, messaging.ReferenceDeletedEvent{
		ReferenceID: entry.ID,
		Collection:  s.repo.Collection().Resource,
		Name:        entry.Name,
		DeletedBy:   actorID(ctx),
	})

	return nil
}

func actorID(ctx context.Context) string {
	if a := actor.FromContext(ctx); a != nil {
		return a.ID
	}
	return ""
}

func (s *ReferenceService) publish(ctx context.Context, eventType string, data interface{}) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, eventType, data); err != nil {
		s.logger.Warn().Err(err).Str("event_type", eventType).Msg("failed to publish event")
	}
}
