package app

import (
	"context"
	"fmt"

	"workboard/internal/util"
	"workboard/pkg/domain"
	"workboard/pkg/store"
)

// RecomputeProgress sets the project's progress to the completed share of its
// parts (0 with no parts) and returns it. Safe to call repeatedly.
func (a *App) RecomputeProgress(ctx context.Context, projectID string) (float64, error) {
	parts, err := a.store.ListParts(ctx, store.PartFilter{ProjectID: projectID})
	if err != nil {
		return 0, fmt.Errorf("load parts of project %s: %w", projectID, err)
	}
	progress := completedShare(parts)
	if _, err := a.store.SetProjectProgress(ctx, projectID, progress, a.now()); err != nil {
		return 0, fmt.Errorf("save progress of project %s: %w", projectID, err)
	}
	a.metrics.RecordProgressRecompute(progress)
	util.LoggerFromContext(ctx).Debug("project progress recomputed", "project_id", projectID, "progress", progress, "parts", len(parts))
	return progress, nil
}

func completedShare(parts []domain.Part) float64 {
	if len(parts) == 0 {
		return 0
	}
	done := 0
	for _, p := range parts {
		if p.Status == domain.PartCompleted {
			done++
		}
	}
	return float64(done) / float64(len(parts)) * 100.0
}
