package snapshotv1

import "context"

// Store defines the interface for storing and loading run snapshots.
//
//go:generate mockgen -source interface.go -destination=mock/interface_mock.go -package=snapshotv1_mock
type Store interface {
	Store(ctx context.Context, snapshot *Snapshot) error
	// Load returns the snapshot of a run, or of the latest run for LatestRunID.
	// It returns nil without error when nothing is stored.
	Load(ctx context.Context, runID string) (*Snapshot, error)
}
