package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/mergeminder/pkg/domain/model"
	"github.com/secmon-lab/mergeminder/pkg/domain/types"
	"github.com/secmon-lab/mergeminder/pkg/repository/memory"
)

func TestMergeRequestRepository(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()

	_, err := repo.MergeRequest().Get(ctx, types.MergeRequestID(1))
	gt.True(t, errors.Is(err, types.ErrNotFound))

	row := &model.MergeRequest{
		ID:               1,
		IID:              11,
		Project:          "group/repo",
		Assignee:         "Jane Doe",
		LastReminderTier: model.TierNone,
		LastAssignmentID: model.NoAssignmentEvent,
		LastUpdated:      time.Now(),
	}
	gt.NoError(t, repo.MergeRequest().Save(ctx, row))

	got := gt.R1(repo.MergeRequest().Get(ctx, types.MergeRequestID(1))).NoError(t)
	gt.Value(t, got.Project).Equal("group/repo")

	// stored rows are isolated from caller mutation
	row.Project = "changed/elsewhere"
	got = gt.R1(repo.MergeRequest().Get(ctx, types.MergeRequestID(1))).NoError(t)
	gt.Value(t, got.Project).Equal("group/repo")

	// upsert
	got.LastReminderTier = 4
	gt.NoError(t, repo.MergeRequest().Save(ctx, got))
	all := gt.R1(repo.MergeRequest().GetAll(ctx)).NoError(t)
	gt.Array(t, all).Length(1)
	gt.Number(t, all[0].LastReminderTier).Equal(int64(4))

	gt.NoError(t, repo.MergeRequest().Delete(ctx, types.MergeRequestID(1)))
	_, err = repo.MergeRequest().Get(ctx, types.MergeRequestID(1))
	gt.True(t, errors.Is(err, types.ErrNotFound))

	// deleting an absent row is not an error
	gt.NoError(t, repo.MergeRequest().Delete(ctx, types.MergeRequestID(1)))
}

func TestProjectRepositoryOrdering(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()

	for _, p := range []struct{ ns, name string }{
		{"zeta", "api"},
		{"alpha", "web"},
		{"alpha", "api"},
	} {
		gt.NoError(t, repo.Project().Save(ctx, &model.Project{
			ID: types.NewProjectID(), Namespace: p.ns, Name: p.name,
		}))
	}

	list := gt.R1(repo.Project().List(ctx)).NoError(t)
	gt.Array(t, list).Length(3)
	gt.Value(t, list[0].FullPath()).Equal("alpha/api")
	gt.Value(t, list[1].FullPath()).Equal("alpha/web")
	gt.Value(t, list[2].FullPath()).Equal("zeta/api")

	byNS := gt.R1(repo.Project().ListByNamespace(ctx, "alpha")).NoError(t)
	gt.Array(t, byNS).Length(2)
	gt.Value(t, byNS[0].Name).Equal("api")

	gt.NoError(t, repo.Project().Delete(ctx, list[0].ID))
	_, err := repo.Project().Get(ctx, list[0].ID)
	gt.True(t, errors.Is(err, types.ErrNotFound))
}

func TestUserMappingUniqueness(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()

	first := &model.UserMapping{
		ID:             types.NewMappingID(),
		GitlabUsername: "jdoe",
		GitlabName:     "Jane Doe",
	}
	gt.NoError(t, repo.UserMapping().Save(ctx, first))

	// saving another row for the same username replaces it
	second := &model.UserMapping{
		ID:             types.NewMappingID(),
		GitlabUsername: "jdoe",
		GitlabName:     "Jane Doe",
		SlackUID:       "U0001",
	}
	gt.NoError(t, repo.UserMapping().Save(ctx, second))

	all := gt.R1(repo.UserMapping().GetAll(ctx)).NoError(t)
	gt.Array(t, all).Length(1)
	gt.Value(t, all[0].ID).Equal(second.ID)

	got := gt.R1(repo.UserMapping().GetByUsername(ctx, "jdoe")).NoError(t)
	gt.Value(t, got.SlackUID).Equal(types.SlackUserID("U0001"))

	got = gt.R1(repo.UserMapping().GetByID(ctx, second.ID)).NoError(t)
	gt.Value(t, got.GitlabUsername).Equal("jdoe")

	_, err := repo.UserMapping().GetByID(ctx, first.ID)
	gt.True(t, errors.Is(err, types.ErrNotFound))
}
