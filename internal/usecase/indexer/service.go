package indexer

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/selfadvocacy/discovery/internal/domain"
	"github.com/selfadvocacy/discovery/internal/domain/profile"
	"github.com/selfadvocacy/discovery/internal/metrics"
)

// DefaultBatchSize is the number of profiles read and written per round trip.
const DefaultBatchSize = 200

// Index outcome labels.
const (
	statusIndexed = "indexed"
	statusSkipped = "skipped"
	statusRemoved = "removed"
)

// Report summarizes a sync run.
type Report struct {
	Indexed int
	Skipped int
	Batches int
}

// Service copies profiles from the profile store into the search index.
type Service struct {
	src       ProfileSource
	sink      ProfileSink
	logger    *zap.Logger
	batchSize int
}

// New creates an indexer service. logger can be nil.
func New(src ProfileSource, sink ProfileSink, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{src: src, sink: sink, logger: logger, batchSize: DefaultBatchSize}
}

// WithBatchSize configures the page size.
func (s *Service) WithBatchSize(size int) *Service {
	if size > 0 {
		s.batchSize = size
	}
	return s
}

// Sync ensures the index exists and writes every valid profile into it.
// Profiles failing validation are skipped and logged; a store or index error
// aborts the run and returns the partial report.
func (s *Service) Sync(ctx context.Context) (Report, error) {
	var rep Report

	created, err := s.sink.EnsureIndex(ctx)
	if err != nil {
		return rep, fmt.Errorf("ensure index: %w", err)
	}
	if created {
		s.logger.Info("Created profile index")
	}

	after := ""
	for {
		page, err := s.src.ListAfter(ctx, after, s.batchSize)
		if err != nil {
			return rep, fmt.Errorf("list profiles after %q: %w", after, err)
		}
		if len(page) == 0 {
			break
		}

		valid := s.filterValid(page, &rep)
		if err := s.sink.PutBatch(ctx, valid); err != nil {
			return rep, fmt.Errorf("write batch %d: %w", rep.Batches+1, err)
		}
		rep.Batches++
		rep.Indexed += len(valid)
		metrics.IndexedProfilesTotal.WithLabelValues(statusIndexed).Add(float64(len(valid)))

		after = page[len(page)-1].ID
		if len(page) < s.batchSize {
			break
		}
	}

	s.logger.Info("Profile sync finished",
		zap.Int("indexed", rep.Indexed),
		zap.Int("skipped", rep.Skipped),
		zap.Int("batches", rep.Batches),
	)
	return rep, nil
}

// Reindex refreshes one profile's document, removing it when the profile no
// longer exists or is no longer valid.
func (s *Service) Reindex(ctx context.Context, id string) error {
	p, err := s.src.Get(ctx, id)
	if errors.Is(err, domain.ErrProfileNotFound) {
		return s.remove(ctx, id)
	}
	if err != nil {
		return fmt.Errorf("load profile %s: %w", id, err)
	}

	if err := p.Validate(); err != nil {
		s.logger.Warn("Removing invalid profile from index", zap.String("id", id), zap.Error(err))
		return s.remove(ctx, id)
	}

	if err := s.sink.PutBatch(ctx, []profile.Profile{p}); err != nil {
		return fmt.Errorf("write profile %s: %w", id, err)
	}
	metrics.IndexedProfilesTotal.WithLabelValues(statusIndexed).Inc()
	return nil
}

func (s *Service) remove(ctx context.Context, id string) error {
	if err := s.sink.Remove(ctx, id); err != nil {
		return fmt.Errorf("remove profile %s: %w", id, err)
	}
	metrics.IndexedProfilesTotal.WithLabelValues(statusRemoved).Inc()
	return nil
}

func (s *Service) filterValid(page []profile.Profile, rep *Report) []profile.Profile {
	valid := make([]profile.Profile, 0, len(page))
	for i := range page {
		if err := page[i].Validate(); err != nil {
			rep.Skipped++
			metrics.IndexedProfilesTotal.WithLabelValues(statusSkipped).Inc()
			s.logger.Warn("Skipping invalid profile", zap.String("id", page[i].ID), zap.Error(err))
			continue
		}
		valid = append(valid, page[i])
	}
	return valid
}
