package matchpublisherv1

import "context"

// MatchPublisher defines the interface for publishing match events.
//
//go:generate mockgen -source interface.go -destination=mock/interface_mock.go -package=matchpublisherv1_mock
type MatchPublisher interface {
	// PublishMatchEvents publishes a batch of match events in order.
	PublishMatchEvents(ctx context.Context, events ...*MatchEvent) error
	// Close flushes and closes the publisher.
	Close() error
}
