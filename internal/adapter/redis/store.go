// Package redis stores readings and daily totals in Redis.
//
// Layout, with the default "rainfall" prefix:
//
//	rainfall:logs                  HASH  reading id -> {"timestamp":..,"amount":..}
//	rainfall:logs:by_timestamp     ZSET  reading id scored by timestamp (epoch ms)
//	rainfall:dailyTotals:<date>    STRING total for one UTC date
//
// The sorted set is the time index used for day-range queries; the hash holds
// the reading payloads.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/couchcryptid/rainfall-alert-service/internal/domain"
)

// Options configures the Redis connection.
type Options struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

// Store implements the reading log and daily total table on Redis.
type Store struct {
	client *goredis.Client
	prefix string
	logger *slog.Logger
}

// New creates a Store with its own client.
func New(opts Options, logger *slog.Logger) *Store {
	client := goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	return NewWithClient(client, opts.KeyPrefix, logger)
}

// NewWithClient wraps an existing client.
func NewWithClient(client *goredis.Client, prefix string, logger *slog.Logger) *Store {
	if prefix == "" {
		prefix = "rainfall"
	}
	return &Store{client: client, prefix: prefix, logger: logger}
}

func (s *Store) logsKey() string { return s.prefix + ":logs" }
func (s *Store) indexKey() string { return s.prefix + ":logs:by_timestamp" }
func (s *Store) totalKey(d string) string { return s.prefix + ":dailyTotals:" + d }

type storedReading struct {
	Timestamp int64   `json:"timestamp"`
	Amount    float64 `json:"amount"`
}

// AppendReading stores r under a new UUID. The payload and index entry are
// written in one MULTI/EXEC transaction.
func (s *Store) AppendReading(ctx context.Context, r domain.Reading) (domain.Reading, error) {
	r.ID = uuid.NewString()

	payload, err := json.Marshal(storedReading{Timestamp: r.Timestamp, Amount: r.Amount})
	if err != nil {
		return domain.Reading{}, fmt.Errorf("encode reading: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.HSet(ctx, s.logsKey(), r.ID, payload)
		pipe.ZAdd(ctx, s.indexKey(), goredis.Z{Score: float64(r.Timestamp), Member: r.ID})
		return nil
	})
	if err != nil {
		return domain.Reading{}, fmt.Errorf("redis append reading: %w", err)
	}
	return r, nil
}

// QueryReadings returns readings with startMs <= timestamp < endMs in
// timestamp order. Payloads that cannot be decoded are returned with the raw
// stored value as the amount so the caller can decide how to treat them.
func (s *Store) QueryReadings(ctx context.Context, startMs, endMs int64) ([]domain.RawReading, error) {
	index, err := s.client.ZRangeByScoreWithScores(ctx, s.indexKey(), &goredis.ZRangeBy{
		Min: strconv.FormatInt(startMs, 10),
		Max: "(" + strconv.FormatInt(endMs, 10),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("redis range readings: %w", err)
	}
	if len(index) == 0 {
		return nil, nil
	}

	ids := make([]string, len(index))
	for i, z := range index {
		ids[i] = fmt.Sprint(z.Member)
	}
	payloads, err := s.client.HMGet(ctx, s.logsKey(), ids...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis load readings: %w", err)
	}

	out := make([]domain.RawReading, len(index))
	for i, z := range index {
		out[i] = domain.RawReading{
			ID:        ids[i],
			Timestamp: int64(z.Score),
			Amount:    s.decodeAmount(ids[i], payloads[i]),
		}
	}
	return out, nil
}

func (s *Store) decodeAmount(id string, payload any) any {
	raw, ok := payload.(string)
	if !ok {
		s.logger.Warn("reading payload missing", "id", id)
		return nil
	}

	var rec struct {
		Amount any `json:"amount"`
	}
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&rec); err != nil {
		s.logger.Warn("reading payload undecodable", "id", id, "error", err)
		return raw
	}
	return rec.Amount
}

// SaveDailyTotal overwrites the total stored for dt.DateKey.
func (s *Store) SaveDailyTotal(ctx context.Context, dt domain.DailyTotal) error {
	if err := s.client.Set(ctx, s.totalKey(dt.DateKey), domain.FormatAmount(dt.Total), 0).Err(); err != nil {
		return fmt.Errorf("redis save daily total: %w", err)
	}
	return nil
}

// DailyTotal returns the stored total for dateKey, or domain.ErrNotFound.
func (s *Store) DailyTotal(ctx context.Context, dateKey string) (domain.DailyTotal, error) {
	v, err := s.client.Get(ctx, s.totalKey(dateKey)).Float64()
	if errors.Is(err, goredis.Nil) {
		return domain.DailyTotal{}, fmt.Errorf("daily total %s: %w", dateKey, domain.ErrNotFound)
	}
	if err != nil {
		return domain.DailyTotal{}, fmt.Errorf("redis get daily total: %w", err)
	}
	return domain.DailyTotal{DateKey: dateKey, Total: v}, nil
}

// CheckReadiness pings the server.
func (s *Store) CheckReadiness(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *Store) Close() error {
	return s.client.Close()
}
