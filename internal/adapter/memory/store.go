package memory

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/couchcryptid/rainfall-alert-service/internal/domain"
)

// Store is a thread-safe in-process reading log and daily total table.
// It is meant for local development and tests; nothing survives a restart.
type Store struct {
	mu       sync.RWMutex
	readings []domain.RawReading
	totals   map[string]float64
}

// New creates an empty Store.
func New() *Store {
	return &Store{totals: make(map[string]float64)}
}

// AppendReading stores r under a new UUID and returns it with the ID set.
func (s *Store) AppendReading(_ context.Context, r domain.Reading) (domain.Reading, error) {
	r.ID = uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.readings = append(s.readings, domain.RawReading{ID: r.ID, Timestamp: r.Timestamp, Amount: r.Amount})
	return r, nil
}

// QueryReadings returns readings with startMs <= timestamp < endMs ordered by timestamp.
func (s *Store) QueryReadings(_ context.Context, startMs, endMs int64) ([]domain.RawReading, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.RawReading
	for _, r := range s.readings {
		if r.Timestamp >= startMs && r.Timestamp < endMs {
			out = append(out, r)
		}
	}
	slices.SortStableFunc(out, func(a, b domain.RawReading) int {
		if a.Timestamp != b.Timestamp {
			if a.Timestamp < b.Timestamp {
				return -1
			}
			return 1
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out, nil
}

// SaveDailyTotal overwrites the total stored for dt.DateKey.
func (s *Store) SaveDailyTotal(_ context.Context, dt domain.DailyTotal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.totals[dt.DateKey] = dt.Total
	return nil
}

// DailyTotal returns the stored total for dateKey, or domain.ErrNotFound.
func (s *Store) DailyTotal(_ context.Context, dateKey string) (domain.DailyTotal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total, ok := s.totals[dateKey]
	if !ok {
		return domain.DailyTotal{}, fmt.Errorf("daily total %s: %w", dateKey, domain.ErrNotFound)
	}
	return domain.DailyTotal{DateKey: dateKey, Total: total}, nil
}

// Len returns the number of stored readings.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.readings)
}

func (s *Store) CheckReadiness(_ context.Context) error { return nil }

func (s *Store) Close() error { return nil }
