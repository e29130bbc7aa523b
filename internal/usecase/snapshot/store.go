package snapshot

import (
	"context"
	"encoding/json"
	"fmt"

	snapshotv1 "github.com/muhammadchandra19/exchange/internal/domain/snapshot/v1"
	"github.com/muhammadchandra19/exchange/pkg/errors"
	"github.com/muhammadchandra19/exchange/pkg/logger"
	"github.com/muhammadchandra19/exchange/pkg/redis"
)

// RunsChannel is the channel a run summary is published on after its snapshot is stored.
const RunsChannel = "runs"

// Store keeps run snapshots in Redis as JSON.
type Store struct {
	logger      *logger.Logger
	redisclient redis.Client
}

var _ snapshotv1.Store = (*Store)(nil)

// NewSnapshotStore creates a new snapshot store backed by the given Redis client.
func NewSnapshotStore(redisclient redis.Client, logger *logger.Logger) *Store {
	return &Store{
		redisclient: redisclient,
		logger:      logger,
	}
}

// Key returns the Redis key of a run snapshot, before the client prefix.
func Key(runID string) string {
	return "snapshot:" + runID
}

// Store stores the snapshot under its run ID and as the latest snapshot,
// then announces the run summary on RunsChannel.
func (s *Store) Store(ctx context.Context, snapshot *snapshotv1.Snapshot) error {
	s.logger.InfoContext(ctx, fmt.Sprintf("Storing snapshot for run %s", snapshot.RunID),
		logger.Field{Key: "orders", Value: len(snapshot.Orders)},
		logger.Field{Key: "queues", Value: len(snapshot.Queues)},
	)

	buf, err := json.Marshal(snapshot)
	if err != nil {
		s.logger.ErrorContext(ctx, err, logger.Field{Key: "action", Value: "marshal snapshot"})
		return errors.NewTracer("snapshot_marshal_error").Wrap(err)
	}

	for _, key := range []string{Key(snapshot.RunID), Key(snapshotv1.LatestRunID)} {
		if err := s.redisclient.Set(ctx, key, buf, 0); err != nil {
			s.logger.ErrorContext(ctx, err,
				logger.Field{Key: "key", Value: key},
				logger.Field{Key: "action", Value: "store snapshot"},
			)
			return errors.NewTracer("snapshot_store_error").Wrap(err)
		}
	}

	summary, err := json.Marshal(struct {
		RunID   string             `json:"runID"`
		Summary snapshotv1.Summary `json:"summary"`
	}{snapshot.RunID, snapshot.Summary})
	if err != nil {
		return errors.NewTracer("snapshot_marshal_error").Wrap(err)
	}
	if _, err := s.redisclient.Publish(ctx, RunsChannel, summary); err != nil {
		s.logger.WarnContext(ctx, "cannot announce run snapshot",
			logger.Field{Key: "error", Value: err.Error()},
			logger.Field{Key: "channel", Value: RunsChannel},
		)
	}

	s.logger.InfoContext(ctx, fmt.Sprintf("Snapshot stored for run %s", snapshot.RunID),
		logger.Field{Key: "action", Value: "store snapshot"},
	)
	return nil
}

// Load loads the snapshot of a run from Redis. It returns nil when none is stored.
func (s *Store) Load(ctx context.Context, runID string) (*snapshotv1.Snapshot, error) {
	data, err := s.redisclient.Get(ctx, Key(runID))
	if err != nil {
		s.logger.ErrorContext(ctx, err,
			logger.Field{Key: "runID", Value: runID},
			logger.Field{Key: "action", Value: "load snapshot"},
		)
		return nil, errors.NewTracer("snapshot_load_error").Wrap(err)
	}

	if data == "" {
		s.logger.WarnContext(ctx, fmt.Sprintf("No snapshot found for run %s", runID),
			logger.Field{Key: "action", Value: "load snapshot"},
		)
		return nil, nil
	}

	var snapshot snapshotv1.Snapshot
	if err := json.Unmarshal([]byte(data), &snapshot); err != nil {
		s.logger.ErrorContext(ctx, err,
			logger.Field{Key: "runID", Value: runID},
			logger.Field{Key: "action", Value: "unmarshal snapshot"},
		)
		return nil, errors.NewTracer("snapshot_unmarshal_error").Wrap(err)
	}

	return &snapshot, nil
}
