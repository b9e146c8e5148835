package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/mergeminder/pkg/domain/types"
	"github.com/secmon-lab/mergeminder/pkg/repository/memory"
	"github.com/secmon-lab/mergeminder/pkg/service/gitlab"
	"github.com/secmon-lab/mergeminder/pkg/service/slack"
	"github.com/secmon-lab/mergeminder/pkg/usecase"
)

var (
	testAuthor = &gitlab.User{ID: 1, Username: "jsmith", Name: "John Smith"}
	testJane   = &gitlab.User{ID: 2, Username: "jdoe", Name: "Jane Doe"}
)

type testEnv struct {
	uc    *usecase.UseCases
	repo  *memory.Memory
	gl    *mockGitlabService
	sl    *mockSlackService
	now   time.Time
	nowMu *time.Time
}

func newTestEnv(t *testing.T, opts ...usecase.Option) *testEnv {
	t.Helper()

	repo := memory.New()
	gl := newMockGitlabService()
	sl := newMockSlackService()

	// Wednesday morning
	now := time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)
	nowMu := &now

	base := []usecase.Option{
		usecase.WithChannel("mergeminder"),
		usecase.WithNotifyUsers(true),
		usecase.WithEmailDomains([]string{"example.com"}),
		usecase.WithClock(func() time.Time { return *nowMu }),
	}

	uc := usecase.New(repo, gl, sl, append(base, opts...)...)

	sl.addChannel("mergeminder", "C0100")
	sl.addUser(&slack.User{ID: "U0200", Name: "jane", RealName: "Jane Doe", Email: "jane.doe@example.com"})

	return &testEnv{uc: uc, repo: repo, gl: gl, sl: sl, now: now, nowMu: nowMu}
}

func (e *testEnv) advanceTo(t time.Time) {
	*e.nowMu = t
}

func testAssignment(iid int64, assignee, author *gitlab.User, assignedAt time.Time, assignmentID int64) *gitlab.Assignment {
	return &gitlab.Assignment{
		MR: &gitlab.MergeRequest{
			ID:        1000 + iid,
			IID:       iid,
			Title:     "Improve the widget",
			WebURL:    "https://gitlab.example.com/group/repo/-/merge_requests/1",
			State:     "opened",
			CreatedAt: assignedAt,
		},
		Assignee:     assignee,
		Author:       author,
		AssignmentID: assignmentID,
		AssignedAt:   assignedAt,
		Namespace:    "group",
		ProjectName:  "repo",
	}
}

func TestMindEscalation(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	_, err := env.uc.AddProject(ctx, "group/repo")
	gt.NoError(t, err).Required()

	assignedAt := env.now.Add(-1 * time.Hour)
	a := testAssignment(1, testJane, testAuthor, assignedAt, 500)
	env.gl.setAssignments("group/repo", []*gitlab.Assignment{a})

	// hour 1: initial tier fires a channel post and a DM
	gt.NoError(t, env.uc.MindAll(ctx))
	gt.Number(t, len(env.sl.channelMessages())).Equal(1)
	gt.Number(t, len(env.sl.directMessages())).Equal(1)
	gt.Value(t, env.sl.directMessages()[0].userID).Equal(types.SlackUserID("U0200"))

	row := gt.R1(env.repo.MergeRequest().Get(ctx, types.MergeRequestID(1001))).NoError(t)
	gt.Number(t, row.LastReminderTier).Equal(int64(0))
	gt.Number(t, row.LastAssignmentID).Equal(int64(500))

	// hour 3: the 2h tier is silent, only recorded
	env.advanceTo(assignedAt.Add(3 * time.Hour))
	gt.NoError(t, env.uc.MindAll(ctx))
	gt.Number(t, len(env.sl.channelMessages())).Equal(1)
	gt.Number(t, len(env.sl.directMessages())).Equal(1)

	row = gt.R1(env.repo.MergeRequest().Get(ctx, types.MergeRequestID(1001))).NoError(t)
	gt.Number(t, row.LastReminderTier).Equal(int64(2))

	// hour 5: the 4h tier alerts, and the skipped silent tier is not re-sent
	env.advanceTo(assignedAt.Add(5 * time.Hour))
	gt.NoError(t, env.uc.MindAll(ctx))
	gt.Number(t, len(env.sl.channelMessages())).Equal(2)
	gt.Number(t, len(env.sl.directMessages())).Equal(2)

	row = gt.R1(env.repo.MergeRequest().Get(ctx, types.MergeRequestID(1001))).NoError(t)
	gt.Number(t, row.LastReminderTier).Equal(int64(4))

	// same hour again: nothing new
	gt.NoError(t, env.uc.MindAll(ctx))
	gt.Number(t, len(env.sl.channelMessages())).Equal(2)
	gt.Number(t, len(env.sl.directMessages())).Equal(2)
}

func TestMindReassignmentResetsLadder(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	_, err := env.uc.AddProject(ctx, "group/repo")
	gt.NoError(t, err).Required()

	assignedAt := env.now.Add(-13 * time.Hour)
	a := testAssignment(1, testJane, testAuthor, assignedAt, 500)
	env.gl.setAssignments("group/repo", []*gitlab.Assignment{a})

	gt.NoError(t, env.uc.MindAll(ctx))
	row := gt.R1(env.repo.MergeRequest().Get(ctx, types.MergeRequestID(1001))).NoError(t)
	gt.Number(t, row.LastReminderTier).Equal(int64(12))

	// a new assignment event restarts from the initial tier
	reassignedAt := env.now.Add(-30 * time.Minute)
	b := testAssignment(1, testJane, testAuthor, reassignedAt, 501)
	env.gl.setAssignments("group/repo", []*gitlab.Assignment{b})

	gt.NoError(t, env.uc.MindAll(ctx))
	row = gt.R1(env.repo.MergeRequest().Get(ctx, types.MergeRequestID(1001))).NoError(t)
	gt.Number(t, row.LastReminderTier).Equal(int64(0))
	gt.Number(t, row.LastAssignmentID).Equal(int64(501))
	gt.Number(t, len(env.sl.channelMessages())).Equal(2)
}

func TestMindSkipsDraftsAndIgnoredLabels(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, usecase.WithIgnoredLabels([]string{"wip"}))

	_, err := env.uc.AddProject(ctx, "group/repo")
	gt.NoError(t, err).Required()

	assignedAt := env.now.Add(-1 * time.Hour)

	draft := testAssignment(1, testJane, testAuthor, assignedAt, 500)
	draft.MR.Draft = true

	labeled := testAssignment(2, testJane, testAuthor, assignedAt, 501)
	labeled.MR.Labels = []string{"backend", " WIP "}

	env.gl.setAssignments("group/repo", []*gitlab.Assignment{draft, labeled})

	gt.NoError(t, env.uc.MindAll(ctx))
	gt.Number(t, len(env.sl.channelMessages())).Equal(0)
	gt.Number(t, len(env.sl.directMessages())).Equal(0)
}

func TestMindSelfAssignedInitialTierHasNoDM(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.sl.addUser(&slack.User{ID: "U0300", Name: "john", RealName: "John Smith", Email: "john.smith@example.com"})

	_, err := env.uc.AddProject(ctx, "group/repo")
	gt.NoError(t, err).Required()

	assignedAt := env.now.Add(-1 * time.Hour)
	a := testAssignment(1, testAuthor, testAuthor, assignedAt, 500)
	env.gl.setAssignments("group/repo", []*gitlab.Assignment{a})

	// the channel hears about it, but the author gets no introduction DM
	gt.NoError(t, env.uc.MindAll(ctx))
	gt.Number(t, len(env.sl.channelMessages())).Equal(1)
	gt.Number(t, len(env.sl.directMessages())).Equal(0)

	// at the 4h tier the self-assigned author is reminded directly
	env.advanceTo(assignedAt.Add(4 * time.Hour))
	gt.NoError(t, env.uc.MindAll(ctx))
	gt.Number(t, len(env.sl.directMessages())).Equal(1)
	gt.Value(t, env.sl.directMessages()[0].userID).Equal(types.SlackUserID("U0300"))
}

func TestMindNotifyUsersDisabled(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, usecase.WithNotifyUsers(false))

	_, err := env.uc.AddProject(ctx, "group/repo")
	gt.NoError(t, err).Required()

	assignedAt := env.now.Add(-1 * time.Hour)
	a := testAssignment(1, testJane, testAuthor, assignedAt, 500)
	env.gl.setAssignments("group/repo", []*gitlab.Assignment{a})

	gt.NoError(t, env.uc.MindAll(ctx))
	gt.Number(t, len(env.sl.channelMessages())).Equal(1)
	gt.Number(t, len(env.sl.directMessages())).Equal(0)

	// the tier is still recorded even though no DM went out
	row := gt.R1(env.repo.MergeRequest().Get(ctx, types.MergeRequestID(1001))).NoError(t)
	gt.Number(t, row.LastReminderTier).Equal(int64(0))
}

func TestMindUnresolvedAssigneeStillAnnounces(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	_, err := env.uc.AddProject(ctx, "group/repo")
	gt.NoError(t, err).Required()

	stranger := &gitlab.User{ID: 9, Username: "ghost", Name: "Unknown Stranger"}
	assignedAt := env.now.Add(-1 * time.Hour)
	a := testAssignment(1, stranger, testAuthor, assignedAt, 500)
	env.gl.setAssignments("group/repo", []*gitlab.Assignment{a})

	gt.NoError(t, env.uc.MindAll(ctx))
	gt.Number(t, len(env.sl.channelMessages())).Equal(1)
	gt.Number(t, len(env.sl.directMessages())).Equal(0)

	// an unresolved mapping row was created for curation
	mapping := gt.R1(env.repo.UserMapping().GetByUsername(ctx, "ghost")).NoError(t)
	gt.True(t, mapping.Unresolved())
	gt.Value(t, mapping.GitlabName).Equal("Unknown Stranger")
}
