package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// DefaultBucket is the KV bucket runs are archived in.
const DefaultBucket = "AFOREPORT_RUNS"

// KeyValue is the subset of jetstream.KeyValue the store uses.
type KeyValue interface {
	Get(ctx context.Context, key string) (jetstream.KeyValueEntry, error)
	Create(ctx context.Context, key string, value []byte, opts ...jetstream.KVCreateOpt) (uint64, error)
	ListKeys(ctx context.Context, opts ...jetstream.WatchOpt) (jetstream.KeyLister, error)
}

// Store provides run archive operations backed by NATS KV.
type Store struct {
	kv     KeyValue
	logger *slog.Logger
	close  func()
}

// NewStore creates a Store on bucket, creating the bucket if it doesn't exist.
func NewStore(ctx context.Context, js jetstream.JetStream, bucket string, logger *slog.Logger) (*Store, error) {
	if bucket == "" {
		bucket = DefaultBucket
	}
	kv, err := getOrCreateBucket(ctx, js, bucket)
	if err != nil {
		return nil, fmt.Errorf("create bucket %s: %w", bucket, err)
	}
	return NewStoreWithKV(kv, logger), nil
}

// NewStoreWithKV creates a Store on an existing bucket handle.
func NewStoreWithKV(kv KeyValue, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{kv: kv, logger: logger}
}

// Connect dials the NATS server at url and opens the archive bucket.
// Close releases the connection.
func Connect(ctx context.Context, url, bucket string, logger *slog.Logger) (*Store, error) {
	conn, err := nats.Connect(url, nats.Name("aforeport"))
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("create JetStream context: %w", err)
	}
	s, err := NewStore(ctx, js, bucket, logger)
	if err != nil {
		conn.Close()
		return nil, err
	}
	s.close = func() {
		if err := conn.Drain(); err != nil {
			conn.Close()
		}
	}
	return s, nil
}

// Close releases the NATS connection opened by Connect.
func (s *Store) Close() {
	if s.close != nil {
		s.close()
	}
}

func getOrCreateBucket(ctx context.Context, js jetstream.JetStream, name string) (jetstream.KeyValue, error) {
	kv, err := js.KeyValue(ctx, name)
	if err == nil {
		return kv, nil
	}
	if !errors.Is(err, jetstream.ErrBucketNotFound) {
		return nil, err
	}
	return js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      name,
		Description: fmt.Sprintf("Afo report %s", strings.ToLower(name)),
		History:     1,
	})
}

// SaveRun archives r. Run ids are never overwritten.
func (s *Store) SaveRun(ctx context.Context, r *Run) error {
	if _, err := ParseRunID(r.ID.String()); err != nil {
		return err
	}
	data, err := encodeRun(r)
	if err != nil {
		return err
	}
	if _, err := s.kv.Create(ctx, r.ID.String(), data); err != nil {
		return fmt.Errorf("store run %s: %w", r.ID, err)
	}
	s.logger.Debug("Run archived", slog.String("run", r.ID.String()))
	return nil
}

// GetRun retrieves an archived run.
func (s *Store) GetRun(ctx context.Context, id RunID) (*Run, error) {
	entry, err := s.kv.Get(ctx, id.String())
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) || errors.Is(err, jetstream.ErrKeyDeleted) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get run %s: %w", id, err)
	}
	return decodeRun(entry.Value())
}

// ListRuns returns the archived runs newest first, at most limit when
// limit is positive. Records that fail to load are skipped.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	lister, err := s.kv.ListKeys(ctx)
	if err != nil {
		return nil, fmt.Errorf("list run keys: %w", err)
	}
	defer lister.Stop()

	var runs []*Run
	for key := range lister.Keys() {
		r, err := s.GetRun(ctx, RunID(key))
		if err != nil {
			s.logger.Warn("Skipping archived run",
				slog.String("run", key),
				slog.String("error", err.Error()))
			continue
		}
		runs = append(runs, r)
	}
	sortRuns(runs)
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}
