// Package jobs runs the periodic maintenance loops: trend refresh, stat
// rollups, and nightly recommendation batches for users with active paths.
package jobs

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/retrocraftdevops/seitech/internal/logger"
	"github.com/retrocraftdevops/seitech/internal/repos"
	"github.com/retrocraftdevops/seitech/internal/services"
	"github.com/retrocraftdevops/seitech/internal/types"
	"github.com/retrocraftdevops/seitech/internal/utils"
)

type RefreshWorker struct {
	log            *logger.Logger
	taxonomy       services.TaxonomyService
	recommendation services.RecommendationService
	paths          repos.LearningPathRepo
	skills         repos.SkillRepo

	interval    time.Duration
	concurrency int
	batchLimit  int
}

func NewRefreshWorker(
	baseLog *logger.Logger,
	taxonomy services.TaxonomyService,
	recommendation services.RecommendationService,
	paths repos.LearningPathRepo,
	skills repos.SkillRepo,
) *RefreshWorker {
	return &RefreshWorker{
		log:            baseLog.With("job", "RefreshWorker"),
		taxonomy:       taxonomy,
		recommendation: recommendation,
		paths:          paths,
		skills:         skills,
		interval:       time.Duration(utils.GetEnvAsInt("REFRESH_INTERVAL_HOURS", 24, baseLog)) * time.Hour,
		concurrency:    utils.GetEnvAsInt("REFRESH_CONCURRENCY", 4, baseLog),
		batchLimit:     utils.GetEnvAsInt("REFRESH_REC_LIMIT", 10, baseLog),
	}
}

// Run blocks until the context is cancelled. One cycle runs immediately on
// start, then on every tick.
func (w *RefreshWorker) Run(ctx context.Context) {
	w.log.Info("Refresh worker started", "interval", w.interval.String())
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.cycle(ctx)
	for {
		select {
		case <-ctx.Done():
			w.log.Info("Refresh worker stopping")
			return
		case <-ticker.C:
			w.cycle(ctx)
		}
	}
}

func (w *RefreshWorker) cycle(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			w.log.Error("Refresh cycle panicked", "panic", fmt.Sprint(r))
		}
	}()
	started := time.Now()

	if err := w.taxonomy.RefreshTrending(ctx); err != nil {
		w.log.Error("Trend refresh failed", "error", err)
	}
	if active, err := w.skills.ListActive(ctx, nil); err != nil {
		w.log.Error("Listing active skills failed", "error", err)
	} else {
		for _, sk := range active {
			if err := w.taxonomy.RefreshStats(ctx, sk.ID); err != nil {
				w.log.Warn("Stats refresh failed", "skill_id", sk.ID, "error", err)
			}
		}
	}

	userIDs, err := w.paths.DistinctActiveUserIDs(ctx, nil)
	if err != nil {
		w.log.Error("Listing active path users failed", "error", err)
		return
	}

	// One user failing must not sink the batch.
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.concurrency)
	for _, userID := range userIDs {
		userID := userID
		g.Go(func() error {
			if _, err := w.recommendation.Generate(gctx, userID, types.AlgorithmHybrid, w.batchLimit); err != nil {
				w.log.Warn("Recommendation batch failed", "user_id", userID, "error", err)
			}
			return nil
		})
	}
	_ = g.Wait()

	w.log.Info("Refresh cycle complete",
		"users", len(userIDs),
		"duration", time.Since(started).String())
}
