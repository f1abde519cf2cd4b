package neo4j

import (
	"context"
	"fmt"

	"github.com/turtacn/ScenarioIQ/internal/domain/scenario"
	"github.com/turtacn/ScenarioIQ/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ScenarioIQ/pkg/errors"
)

// GraphRepository implements scenario.GraphRepository over the relationship
// graph: Component and System nodes linked to Scenario nodes through
// VALIDATES / PART_OF / DEPENDS_ON edges.
type GraphRepository struct {
	runner Runner
	logger logging.Logger
}

// NewGraphRepository constructs the repository over an established driver.
func NewGraphRepository(runner Runner, logger logging.Logger) *GraphRepository {
	return &GraphRepository{runner: runner, logger: logger.Named("graph_repo")}
}

func (r *GraphRepository) RelatedScenarios(ctx context.Context, seeds []string, maxHops int) ([]scenario.GraphNeighbor, error) {
	if len(seeds) == 0 || maxHops < 1 {
		return []scenario.GraphNeighbor{}, nil
	}

	// Variable-length bounds cannot be parameterised in Cypher; maxHops
	// comes from configuration, never from request input.
	cypher := fmt.Sprintf(`
		MATCH (seed)
		WHERE (seed:Component OR seed:System) AND seed.name IN $seeds
		MATCH path = (seed)-[*1..%d]-(s:Scenario)
		RETURN s.id AS scenario_id, min(length(path)) AS hops`, maxHops)

	out, err := r.runner.ExecuteRead(ctx, func(tx Transaction) (any, error) {
		result, err := tx.Run(ctx, cypher, map[string]any{"seeds": seeds})
		if err != nil {
			return nil, err
		}
		var neighbors []scenario.GraphNeighbor
		for result.Next(ctx) {
			rec := result.Record()
			id, ok := rec.Values[0].(string)
			if !ok {
				return nil, errors.New(errors.ErrCodeGraphQueryFailed, "scenario_id is not a string")
			}
			hops, ok := rec.Values[1].(int64)
			if !ok {
				return nil, errors.New(errors.ErrCodeGraphQueryFailed, "hops is not an integer")
			}
			neighbors = append(neighbors, scenario.GraphNeighbor{
				ScenarioID: id,
				Hops:       int(hops),
			})
		}
		return neighbors, result.Err()
	})
	if err != nil {
		return nil, err
	}

	neighbors := out.([]scenario.GraphNeighbor)
	r.logger.Debug("graph traversal finished",
		logging.Int("seeds", len(seeds)),
		logging.Int("max_hops", maxHops),
		logging.Int("neighbors", len(neighbors)))
	return neighbors, nil
}
