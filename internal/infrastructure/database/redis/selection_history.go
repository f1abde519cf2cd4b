package redis

import (
	"context"
	"strconv"

	"github.com/turtacn/ScenarioIQ/internal/domain/scenario"
	"github.com/turtacn/ScenarioIQ/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ScenarioIQ/pkg/errors"
)

const (
	fieldOffers     = "offers"
	fieldSelections = "selections"
)

// SelectionHistory implements scenario.SelectionHistory with one Redis hash
// per scenario holding offered and accepted counters.
type SelectionHistory struct {
	client *Client
	logger logging.Logger
}

// NewSelectionHistory constructs the store over an established client.
func NewSelectionHistory(client *Client, logger logging.Logger) *SelectionHistory {
	return &SelectionHistory{client: client, logger: logger.Named("selection_history")}
}

func (h *SelectionHistory) historyKey(scenarioID string) string {
	return h.client.key("hist:" + scenarioID)
}

func (h *SelectionHistory) Stats(ctx context.Context, scenarioID string) (scenario.SelectionStats, error) {
	fields, err := h.client.rdb.HGetAll(ctx, h.historyKey(scenarioID)).Result()
	if err != nil {
		return scenario.SelectionStats{}, errors.Wrap(err, errors.ErrCodeCacheError, "selection stats read failed")
	}
	// A missing hash yields an empty map: zero counts, the cold-start case.
	return scenario.SelectionStats{
		Offers:     parseCounter(fields[fieldOffers]),
		Selections: parseCounter(fields[fieldSelections]),
	}, nil
}

func (h *SelectionHistory) RecordOffer(ctx context.Context, scenarioIDs []string) error {
	if len(scenarioIDs) == 0 {
		return nil
	}
	pipe := h.client.rdb.Pipeline()
	for _, id := range scenarioIDs {
		pipe.HIncrBy(ctx, h.historyKey(id), fieldOffers, 1)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "offer counter update failed")
	}
	return nil
}

func (h *SelectionHistory) RecordSelection(ctx context.Context, scenarioID string) error {
	err := h.client.rdb.HIncrBy(ctx, h.historyKey(scenarioID), fieldSelections, 1).Err()
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "selection counter update failed")
	}
	return nil
}

func parseCounter(s string) int64 {
	if s == "" {
		return 0
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
