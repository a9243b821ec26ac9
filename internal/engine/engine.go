package engine

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	"github.com/voter-segmentation/internal/repository"
	"github.com/voter-segmentation/internal/spatial"
	"github.com/voter-segmentation/pkg/config"
	apperrors "github.com/voter-segmentation/pkg/errors"
	"github.com/voter-segmentation/pkg/model"
	"github.com/voter-segmentation/pkg/utils"
)

// Engine runs one segmentation pass per invocation. All reads, writes
// and spatial queries of a run share a single database transaction, so
// a failed run leaves the previous draft untouched.
type Engine struct {
	store    *repository.Store
	strategy string
	logger   utils.Logger

	// newBackend binds a spatial backend to the run's transaction.
	// Swappable in tests.
	newBackend func(db *gorm.DB) spatial.Backend
}

// New creates an Engine using the configured strategy.
func New(store *repository.Store, strategy string, logger utils.Logger) *Engine {
	if logger == nil {
		logger = &utils.NullLogger{}
	}
	return &Engine{
		store:    store,
		strategy: strategy,
		logger:   logger,
		newBackend: func(db *gorm.DB) spatial.Backend {
			return spatial.NewPostGISBackend(db)
		},
	}
}

// Run executes one segmentation run for the node at the given version.
// jobID is recorded in the audit trail and exception rows of the run.
func (e *Engine) Run(ctx context.Context, jobID, electionID, nodeID string, version int) (*model.RunResult, error) {
	ctx, span := otel.Tracer("segmentation-engine").Start(ctx, "engine.Run")
	span.SetAttributes(
		attribute.String("job_id", jobID),
		attribute.String("node_id", nodeID),
		attribute.Int("version", version),
		attribute.String("strategy", e.strategy),
	)
	defer span.End()

	timer := utils.NewTimer("segmentation", utils.WithLogger(e.logger))
	result := &model.RunResult{}

	err := e.store.Transaction(ctx, func(tx *repository.Store) error {
		backend := e.newBackend(tx.DB())

		algoPhase := timer.Start("algorithm")

		scope, err := resolveScope(ctx, tx.Hierarchy, nodeID)
		if err != nil {
			return err
		}
		if electionID != "" && scope.ElectionID != electionID {
			return apperrors.Newf(apperrors.CodeUnknownScope,
				"node %s belongs to election %s, not %s", nodeID, scope.ElectionID, electionID)
		}
		e.logger.Info("resolved %s scope over %d booths", scope.Kind, len(scope.BoothIDs))

		voters, err := tx.Voters.VotersByBoothIDs(ctx, scope.BoothIDs)
		if err != nil {
			return err
		}
		if len(voters) == 0 {
			return apperrors.ErrNoVoters
		}
		families, err := tx.Voters.FamiliesByBoothIDs(ctx, scope.BoothIDs)
		if err != nil {
			return err
		}

		units, unplaced := buildUnits(families, voters)
		if len(units) == 0 {
			return apperrors.ErrNoUnits
		}
		if len(unplaced) > 0 {
			e.logger.Warn("%d families have no usable coordinates and were left out of this run", len(unplaced))
		}
		expected := totalVoters(units)

		plans, err := e.buildPlans(ctx, backend, units)
		if err != nil {
			return err
		}
		if err := validatePlans(plans, expected, e.logger); err != nil {
			return err
		}
		algoPhase.Stop()

		writePhase := timer.Start("db_write")
		hash, err := persistPlans(ctx, tx, scope, jobID, version, plans)
		if err != nil {
			return err
		}
		if err := validatePersisted(ctx, tx.Segments, scope.NodeID, scope.BoothIDs, unplaced); err != nil {
			return err
		}
		writePhase.Stop()

		result.SegmentCount = len(plans)
		result.VoterCount = expected
		result.FamilyCount = len(units)
		result.RunHash = hash
		return nil
	})
	if err != nil {
		return nil, err
	}

	result.AlgorithmMs = timer.GetDuration("algorithm").Milliseconds()
	result.DBWriteMs = timer.GetDuration("db_write").Milliseconds()
	result.TotalMs = timer.TotalDuration().Milliseconds()

	e.logger.Info("run complete: %d segments, %d voters, %d families, hash %s",
		result.SegmentCount, result.VoterCount, result.FamilyCount, result.RunHash)
	return result, nil
}

// buildPlans dispatches to the configured partitioning strategy.
func (e *Engine) buildPlans(ctx context.Context, backend spatial.Backend, units []model.AtomicUnit) ([]model.SegmentPlan, error) {
	switch e.strategy {
	case config.StrategyGeohash:
		return buildGeohashSegments(ctx, backend, units)
	case config.StrategyGrid:
		return e.buildGridSegments(ctx, backend, units)
	default:
		return nil, apperrors.Newf(apperrors.CodeConfigError, "unsupported strategy %q", e.strategy)
	}
}

// buildGridSegments runs the adaptive-grid region-growing strategy.
func (e *Engine) buildGridSegments(ctx context.Context, backend spatial.Backend, units []model.AtomicUnit) ([]model.SegmentPlan, error) {
	cells, hull, err := buildGrid(ctx, backend, units)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("grid of %d cells over %.0f m2 boundary", len(cells), hull.AreaM2)

	assignments, err := assignUnits(cells, units)
	if err != nil {
		return nil, err
	}

	regions := growRegions(cells, assignments, neighborMap(cells), e.logger)
	return buildSegments(ctx, backend, regions, cells, assignments, units)
}
