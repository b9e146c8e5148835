package usecase

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/mergeminder/pkg/utils/errutil"
	"github.com/secmon-lab/mergeminder/pkg/utils/logging"
)

// stalenessThreshold is how long a tracked merge request must go without an
// update before the purge pass checks whether it is still open.
const stalenessThreshold = 48 * time.Hour

// Purge removes state rows for merge requests that have been merged, closed,
// or deleted upstream. Only rows untouched for the staleness threshold are
// checked; lookup failures leave the row in place for the next pass. Returns
// the number of rows purged.
func (uc *UseCases) Purge(ctx context.Context) (int, error) {
	logger := logging.From(ctx)

	rows, err := uc.repo.MergeRequest().GetAll(ctx)
	if err != nil {
		return 0, goerr.Wrap(err, "failed to list tracked merge requests")
	}

	cutoff := uc.now().Add(-stalenessThreshold)
	purged := 0

	for _, row := range rows {
		if row.LastUpdated.After(cutoff) {
			continue
		}

		closed, err := uc.gitlabSvc.IsMergedOrClosed(ctx, row.Project, row.IID)
		if err != nil {
			errutil.Handle(ctx, err, "failed to check merge request state, keeping row")
			continue
		}
		if !closed {
			continue
		}

		if err := uc.repo.MergeRequest().Delete(ctx, row.ID); err != nil {
			errutil.Handle(ctx, err, "failed to delete merge request state")
			continue
		}

		logger.Info("purged stale merge request",
			"project", row.Project, "mr", row.IID)
		purged++
	}

	logger.Info("purge pass complete", "tracked", len(rows), "purged", purged)

	return purged, nil
}
