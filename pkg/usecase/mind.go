package usecase

import (
	"context"
	"errors"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/mergeminder/pkg/domain/model"
	"github.com/secmon-lab/mergeminder/pkg/domain/types"
	"github.com/secmon-lab/mergeminder/pkg/service/gitlab"
	"github.com/secmon-lab/mergeminder/pkg/utils/errutil"
	"github.com/secmon-lab/mergeminder/pkg/utils/logging"
	"golang.org/x/sync/errgroup"
)

// projectConcurrency bounds how many projects one minding cycle inspects in
// parallel.
const projectConcurrency = 4

// MindAll runs one minding cycle over every tracked project. A failure in one
// project is logged and does not stop the others.
func (uc *UseCases) MindAll(ctx context.Context) error {
	projects, err := uc.repo.Project().List(ctx)
	if err != nil {
		return goerr.Wrap(err, "failed to list projects")
	}

	var eg errgroup.Group
	eg.SetLimit(projectConcurrency)

	for _, project := range projects {
		eg.Go(func() error {
			if err := uc.MindProject(ctx, project); err != nil {
				errutil.Handle(ctx, err, "failed to mind project")
			}
			return nil
		})
	}

	return eg.Wait()
}

// MindProject inspects every open assignment of one project, escalating and
// notifying where due, and records the resulting state.
func (uc *UseCases) MindProject(ctx context.Context, project *model.Project) error {
	logger := logging.From(ctx)

	assignments, err := uc.gitlabSvc.ListOpenAssignments(ctx, project.Namespace, project.Name)
	if err != nil {
		return goerr.Wrap(err, "failed to list open assignments",
			goerr.V("project", project.FullPath()))
	}

	checked := 0
	for _, a := range assignments {
		if a.MR.Draft {
			logger.Debug("skipping draft merge request",
				"project", a.FullPath(), "mr", a.MR.IID)
			continue
		}
		if uc.hasIgnoredLabel(a) {
			logger.Debug("skipping merge request with ignored label",
				"project", a.FullPath(), "mr", a.MR.IID, "labels", a.MR.Labels)
			continue
		}

		if err := uc.mindAssignment(ctx, a); err != nil {
			errutil.Handle(ctx, err, "failed to mind assignment")
			continue
		}
		checked++
	}

	logger.Info("minded project",
		"project", project.FullPath(),
		"assignments", len(assignments),
		"checked", checked,
	)

	return nil
}

func (uc *UseCases) hasIgnoredLabel(a *gitlab.Assignment) bool {
	for _, label := range a.MR.Labels {
		for _, ignored := range uc.ignoredLabels {
			if strings.EqualFold(strings.TrimSpace(label), strings.TrimSpace(ignored)) {
				return true
			}
		}
	}
	return false
}

// mindAssignment evaluates one (merge request, assignee) pair against the
// escalation ladder. The state row is written on every pass so the staleness
// clock keeps moving even when nothing is sent.
func (uc *UseCases) mindAssignment(ctx context.Context, a *gitlab.Assignment) error {
	now := uc.now()
	hours := a.HoursAssigned(now)
	tier := model.TierForHours(hours)

	id := types.MergeRequestID(a.MR.ID)
	existing, err := uc.repo.MergeRequest().Get(ctx, id)
	if err != nil {
		if !errors.Is(err, types.ErrNotFound) {
			return goerr.Wrap(err, "failed to load merge request state", goerr.V("id", id))
		}
		existing = nil
	}

	lastTier := existing.EffectiveLastTier(a.AssignmentID)

	if tier.Alert && tier.Hours > lastTier {
		uc.notifyAssignment(ctx, a, tier, hours)
	}

	recorded := lastTier
	if tier.Hours > lastTier {
		recorded = tier.Hours
	}

	row := &model.MergeRequest{
		ID:               id,
		IID:              a.MR.IID,
		Project:          a.FullPath(),
		Assignee:         a.Assignee.Name,
		AssigneeEmail:    a.Assignee.Email,
		LastReminderTier: recorded,
		LastAssignmentID: a.AssignmentID,
		AssignedAt:       a.AssignedAt,
		LastUpdated:      now,
	}

	if err := uc.repo.MergeRequest().Save(ctx, row); err != nil {
		return goerr.Wrap(err, "failed to save merge request state", goerr.V("id", id))
	}

	return nil
}
