package postgres

import (
	"context"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/turtacn/ScenarioIQ/internal/domain/scenario"
	"github.com/turtacn/ScenarioIQ/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ScenarioIQ/pkg/errors"
)

const scenarioColumns = `id, name, description, category, applicable_platforms,
	target_systems, target_components, regulatory_standards, cost_estimate,
	duration_hours, complexity_score, created_at, updated_at`

// schemaDDL creates the scenario table when it does not exist yet.  Schema
// evolution beyond that is handled by the deployment's migration tooling.
const schemaDDL = `
CREATE TABLE IF NOT EXISTS scenarios (
	id                   TEXT PRIMARY KEY,
	name                 TEXT NOT NULL,
	description          TEXT NOT NULL,
	category             TEXT NOT NULL DEFAULT 'other',
	applicable_platforms TEXT[] NOT NULL DEFAULT '{}',
	target_systems       TEXT[] NOT NULL DEFAULT '{}',
	target_components    TEXT[] NOT NULL DEFAULT '{}',
	regulatory_standards TEXT[] NOT NULL DEFAULT '{}',
	cost_estimate        DOUBLE PRECISION NOT NULL DEFAULT 0,
	duration_hours       DOUBLE PRECISION NOT NULL DEFAULT 0,
	complexity_score     INTEGER NOT NULL DEFAULT 0,
	created_at           TIMESTAMPTZ NOT NULL,
	updated_at           TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_scenarios_platforms ON scenarios USING GIN (applicable_platforms);`

// ScenarioRepository is the PostgreSQL implementation of scenario.Repository.
type ScenarioRepository struct {
	pool   *pgxpool.Pool
	logger logging.Logger
}

// NewScenarioRepository constructs the repository over an established pool.
func NewScenarioRepository(pool *pgxpool.Pool, logger logging.Logger) *ScenarioRepository {
	return &ScenarioRepository{pool: pool, logger: logger.Named("scenario_repo")}
}

// EnsureSchema creates the scenario table if missing.
func (r *ScenarioRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, schemaDDL); err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to ensure scenario schema")
	}
	return nil
}

func (r *ScenarioRepository) GetByID(ctx context.Context, id string) (*scenario.Scenario, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+scenarioColumns+` FROM scenarios WHERE id = $1`, id)
	s, err := scanScenario(row)
	if err == pgx.ErrNoRows {
		return nil, errors.New(errors.ErrCodeScenarioNotFound, "scenario not found").WithDetail("id=" + id)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to load scenario")
	}
	return s, nil
}

func (r *ScenarioRepository) GetByIDs(ctx context.Context, ids []string) ([]*scenario.Scenario, error) {
	if len(ids) == 0 {
		return []*scenario.Scenario{}, nil
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+scenarioColumns+` FROM scenarios WHERE id = ANY($1) ORDER BY id`, ids)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to load scenarios by id")
	}
	return collectScenarios(rows)
}

func (r *ScenarioRepository) List(ctx context.Context, f scenario.Filter) ([]*scenario.Scenario, error) {
	query := `SELECT ` + scenarioColumns + ` FROM scenarios WHERE TRUE`
	args := []any{}
	if f.Platform != "" {
		args = append(args, string(f.Platform))
		// Platform-agnostic scenarios match every platform filter.
		query += ` AND ($1 = ANY(applicable_platforms) OR 'ALL' = ANY(applicable_platforms))`
	}
	if f.System != "" {
		args = append(args, f.System)
		query += ` AND $` + strconv.Itoa(len(args)) + ` = ANY(target_systems)`
	}
	if len(f.IDs) > 0 {
		args = append(args, f.IDs)
		query += ` AND id = ANY($` + strconv.Itoa(len(args)) + `)`
	}
	query += ` ORDER BY id`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to list scenarios")
	}
	return collectScenarios(rows)
}

func (r *ScenarioRepository) ListAll(ctx context.Context) ([]*scenario.Scenario, error) {
	return r.List(ctx, scenario.Filter{})
}

func (r *ScenarioRepository) Save(ctx context.Context, s *scenario.Scenario) error {
	if err := s.Validate(); err != nil {
		return err
	}
	platforms := make([]string, len(s.ApplicablePlatforms))
	for i, p := range s.ApplicablePlatforms {
		platforms[i] = string(p)
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO scenarios (`+scenarioColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			category = EXCLUDED.category,
			applicable_platforms = EXCLUDED.applicable_platforms,
			target_systems = EXCLUDED.target_systems,
			target_components = EXCLUDED.target_components,
			regulatory_standards = EXCLUDED.regulatory_standards,
			cost_estimate = EXCLUDED.cost_estimate,
			duration_hours = EXCLUDED.duration_hours,
			complexity_score = EXCLUDED.complexity_score,
			updated_at = EXCLUDED.updated_at`,
		s.ID, s.Name, s.Description, string(s.Category), platforms,
		s.TargetSystems, s.TargetComponents, s.RegulatoryStandards,
		s.CostEstimate, s.DurationHours, s.ComplexityScore, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to save scenario")
	}
	return nil
}

func scanScenario(row pgx.Row) (*scenario.Scenario, error) {
	var s scenario.Scenario
	var category string
	var platforms []string
	err := row.Scan(&s.ID, &s.Name, &s.Description, &category, &platforms,
		&s.TargetSystems, &s.TargetComponents, &s.RegulatoryStandards,
		&s.CostEstimate, &s.DurationHours, &s.ComplexityScore,
		&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	s.Category = scenario.Category(category)
	s.ApplicablePlatforms = make([]scenario.Platform, len(platforms))
	for i, p := range platforms {
		s.ApplicablePlatforms[i] = scenario.Platform(p)
	}
	return &s, nil
}

func collectScenarios(rows pgx.Rows) ([]*scenario.Scenario, error) {
	defer rows.Close()
	out := []*scenario.Scenario{}
	for rows.Next() {
		s, err := scanScenario(rows)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan scenario row")
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "scenario row iteration failed")
	}
	return out, nil
}
