package engine

import (
	"context"
	"time"

	matchpublisherv1 "github.com/muhammadchandra19/exchange/internal/domain/match-publisher/v1"
	"github.com/muhammadchandra19/exchange/pkg/logger"
	"github.com/muhammadchandra19/exchange/pkg/util"
)

// runMatching matches every appended order in ledger order until the feed is
// exhausted and the backlog is drained.
func (e *Engine) runMatching(ctx context.Context, sig *signal) {
	defer e.wg.Done()
	defer e.recoverActivity(ctx, ActivityMatching)

	e.logger.InfoContext(ctx, "Matching process started")
	start := time.Now()

	var cursor uint64
	for {
		e.logger.DebugContext(ctx, "Matching process waiting for orders", logger.Field{Key: "cursor", Value: cursor})

		appended, done, err := sig.wait(ctx, cursor)
		if err != nil {
			e.logger.WarnContext(ctx, "Matching cancelled",
				logger.Field{Key: "error", Value: err.Error()},
				logger.Field{Key: "cursor", Value: cursor},
			)
			return
		}
		if done {
			break
		}

		var events []*matchpublisherv1.MatchEvent
		for ; cursor < appended; cursor++ {
			res, err := e.matcher.Match(ctx, cursor)
			if err != nil {
				e.capture(ctx, ActivityMatching, err)
				return
			}
			if res.Filled {
				e.filled.Add(1)
			}
			e.filled.Add(uint64(len(res.Completed)))

			if e.publisher != nil {
				order, err := e.ledger.At(cursor)
				if err != nil {
					e.capture(ctx, ActivityMatching, err)
					return
				}
				events = append(events, matchpublisherv1.CreateFromOrder(util.GetRunID(ctx), order, res.Filled, res.Completed))
			}
		}
		e.publish(ctx, events)
	}

	e.logger.DebugContext(ctx, "Matching duration", logger.Field{Key: "duration", Value: time.Since(start).String()})
	e.logger.InfoContext(ctx, "Matching process ended", logger.Field{Key: "matched", Value: cursor})
}

// publish hands a drained batch to the publisher. Failures are only logged.
func (e *Engine) publish(ctx context.Context, events []*matchpublisherv1.MatchEvent) {
	if e.publisher == nil || len(events) == 0 {
		return
	}
	if err := e.publisher.PublishMatchEvents(ctx, events...); err != nil {
		e.logger.ErrorContext(ctx, err,
			logger.Field{Key: "action", Value: "publish_match_events"},
			logger.Field{Key: "events", Value: len(events)},
		)
	}
}
