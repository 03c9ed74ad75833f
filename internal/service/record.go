// Package service contains the business logic for the workspace contents service.
// Services validate inputs, enforce business rules, and orchestrate repo calls.
// No SQL lives here; services depend on repo interfaces, not implementations.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pkordes/blockfactory/internal/domain"
	"github.com/pkordes/blockfactory/internal/repo"
)

// RecordService implements business logic for workspace contents records.
// Every mutation runs as a locked read-modify-write inside one transaction,
// so concurrent requests against the same record serialize in the database.
type RecordService struct {
	records repo.RecordRepo
	log     *slog.Logger
}

// NewRecordService constructs a RecordService backed by the provided RecordRepo.
// A nil logger falls back to slog.Default().
func NewRecordService(records repo.RecordRepo, log *slog.Logger) *RecordService {
	if log == nil {
		log = slog.Default()
	}
	return &RecordService{records: records, log: log}
}

// Create builds a new record and persists it. content may be nil, in which
// case the record starts with empty content.
// Returns domain.ErrValidation for an empty name, domain.ErrConflict if the
// name is already taken.
func (s *RecordService) Create(ctx context.Context, name string, content domain.Content) (*domain.TaggedRecord, error) {
	rec, err := domain.NewTaggedRecord(strings.TrimSpace(name))
	if err != nil {
		return nil, fmt.Errorf("service.RecordService.Create: %w", err)
	}
	if content != nil {
		if err := rec.SetContent(content); err != nil {
			return nil, fmt.Errorf("service.RecordService.Create: %w", err)
		}
	}
	result, err := s.records.Create(ctx, rec)
	if err != nil {
		return nil, fmt.Errorf("service.RecordService.Create: %w", err)
	}
	s.log.DebugContext(ctx, "record created", "record", result.Name())
	return result, nil
}

// Get returns a single record by name.
func (s *RecordService) Get(ctx context.Context, name string) (*domain.TaggedRecord, error) {
	name, err := normalizeName(name)
	if err != nil {
		return nil, fmt.Errorf("service.RecordService.Get: %w", err)
	}
	result, err := s.records.GetByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("service.RecordService.Get: %w", err)
	}
	return result, nil
}

// List returns one page of records ordered by name.
// Items is always non-nil so callers can safely range over it.
func (s *RecordService) List(ctx context.Context, p domain.PaginationParams) (domain.Page[*domain.TaggedRecord], error) {
	records, total, err := s.records.ListPaged(ctx, p)
	if err != nil {
		return domain.Page[*domain.TaggedRecord]{}, fmt.Errorf("service.RecordService.List: %w", err)
	}
	if records == nil {
		records = []*domain.TaggedRecord{}
	}
	return domain.Page[*domain.TaggedRecord]{Items: records, Total: total, PaginationParams: p}, nil
}

// Delete removes a record by name.
func (s *RecordService) Delete(ctx context.Context, name string) error {
	name, err := normalizeName(name)
	if err != nil {
		return fmt.Errorf("service.RecordService.Delete: %w", err)
	}
	if err := s.records.Delete(ctx, name); err != nil {
		return fmt.Errorf("service.RecordService.Delete: %w", err)
	}
	s.log.DebugContext(ctx, "record deleted", "record", name)
	return nil
}

// SetContent replaces the record's content wholesale.
// Returns domain.ErrInvalidContent for nil content.
func (s *RecordService) SetContent(ctx context.Context, name string, content domain.Content) (*domain.TaggedRecord, error) {
	if content == nil {
		return nil, fmt.Errorf("service.RecordService.SetContent: %w", domain.ErrInvalidContent)
	}
	result, err := s.mutate(ctx, name, func(rec *domain.TaggedRecord) (bool, error) {
		return true, rec.SetContent(content)
	})
	if err != nil {
		return nil, fmt.Errorf("service.RecordService.SetContent: %w", err)
	}
	s.log.DebugContext(ctx, "record content replaced", "record", result.Name())
	return result, nil
}

// Export returns the record's content stamped with its name, ready to be
// embedded by an external writer.
func (s *RecordService) Export(ctx context.Context, name string) (domain.Content, error) {
	name, err := normalizeName(name)
	if err != nil {
		return nil, fmt.Errorf("service.RecordService.Export: %w", err)
	}
	rec, err := s.records.GetByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("service.RecordService.Export: %w", err)
	}
	return rec.Export(), nil
}

// AddTag adds tagID to the record. Adding a tag that is already present is a no-op.
func (s *RecordService) AddTag(ctx context.Context, name, tagID string) (*domain.TaggedRecord, error) {
	tagID, err := normalizeTag(tagID)
	if err != nil {
		return nil, fmt.Errorf("service.RecordService.AddTag: %w", err)
	}
	result, err := s.mutate(ctx, name, func(rec *domain.TaggedRecord) (bool, error) {
		if rec.HasTag(tagID) {
			return false, nil
		}
		rec.AddTag(tagID)
		return true, nil
	})
	if err != nil {
		return nil, fmt.Errorf("service.RecordService.AddTag: %w", err)
	}
	s.log.DebugContext(ctx, "tag added", "record", result.Name(), "tag", tagID)
	return result, nil
}

// RemoveTag removes tagID from the record. Removing an absent tag is a no-op,
// not an error.
func (s *RecordService) RemoveTag(ctx context.Context, name, tagID string) (*domain.TaggedRecord, error) {
	tagID, err := normalizeTag(tagID)
	if err != nil {
		return nil, fmt.Errorf("service.RecordService.RemoveTag: %w", err)
	}
	result, err := s.mutate(ctx, name, func(rec *domain.TaggedRecord) (bool, error) {
		if !rec.HasTag(tagID) {
			return false, nil
		}
		rec.RemoveTag(tagID)
		return true, nil
	})
	if err != nil {
		return nil, fmt.Errorf("service.RecordService.RemoveTag: %w", err)
	}
	s.log.DebugContext(ctx, "tag removed", "record", result.Name(), "tag", tagID)
	return result, nil
}

// HasTag reports whether tagID is present on the record.
func (s *RecordService) HasTag(ctx context.Context, name, tagID string) (bool, error) {
	tagID, err := normalizeTag(tagID)
	if err != nil {
		return false, fmt.Errorf("service.RecordService.HasTag: %w", err)
	}
	name, err = normalizeName(name)
	if err != nil {
		return false, fmt.Errorf("service.RecordService.HasTag: %w", err)
	}
	rec, err := s.records.GetByName(ctx, name)
	if err != nil {
		return false, fmt.Errorf("service.RecordService.HasTag: %w", err)
	}
	return rec.HasTag(tagID), nil
}

// ListTags returns the record's tags in insertion order. Never nil.
func (s *RecordService) ListTags(ctx context.Context, name string) ([]string, error) {
	name, err := normalizeName(name)
	if err != nil {
		return nil, fmt.Errorf("service.RecordService.ListTags: %w", err)
	}
	rec, err := s.records.GetByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("service.RecordService.ListTags: %w", err)
	}
	return rec.Tags(), nil
}

// mutate loads the named record under a row lock, applies fn, and saves the
// result, all within one transaction. fn reports whether it changed the
// record; nothing is saved if it did not, or if it failed, so updated_at
// only moves on a real change.
func (s *RecordService) mutate(ctx context.Context, name string, fn func(*domain.TaggedRecord) (bool, error)) (*domain.TaggedRecord, error) {
	name, err := normalizeName(name)
	if err != nil {
		return nil, err
	}
	var result *domain.TaggedRecord
	err = s.records.WithTx(ctx, func(tx repo.RecordRepo) error {
		rec, err := tx.GetByNameForUpdate(ctx, name)
		if err != nil {
			return err
		}
		changed, err := fn(rec)
		if err != nil {
			return err
		}
		if !changed {
			result = rec
			return nil
		}
		result, err = tx.Save(ctx, rec)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// normalizeName trims surrounding whitespace from a record name.
func normalizeName(name string) (string, error) {
	n := strings.TrimSpace(name)
	if n == "" {
		return "", fmt.Errorf("%w: name is required", domain.ErrValidation)
	}
	return n, nil
}

// normalizeTag trims surrounding whitespace from a tag id.
// Tag ids are otherwise opaque: case and inner characters are preserved.
func normalizeTag(tagID string) (string, error) {
	t := strings.TrimSpace(tagID)
	if t == "" {
		return "", fmt.Errorf("%w: tag id is required", domain.ErrValidation)
	}
	return t, nil
}
