package gitlab_test

import (
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/mergeminder/pkg/service/gitlab"
)

func TestFirstName(t *testing.T) {
	gt.Value(t, (&gitlab.User{Name: "Jane Doe"}).FirstName()).Equal("Jane")
	gt.Value(t, (&gitlab.User{Name: "Prince"}).FirstName()).Equal("Prince")
	gt.Value(t, (&gitlab.User{}).FirstName()).Equal("Anonymous")

	var nobody *gitlab.User
	gt.Value(t, nobody.FirstName()).Equal("Anonymous")
}

func TestAssignmentHelpers(t *testing.T) {
	a := &gitlab.Assignment{
		MR: &gitlab.MergeRequest{
			IID:    7,
			Title:  "Fix the thing\nwith a long description",
			WebURL: "https://gitlab.example.com/g/r/-/merge_requests/7",
		},
		Assignee:    &gitlab.User{ID: 1, Name: "Jane Doe"},
		Author:      &gitlab.User{ID: 2, Name: "John Smith"},
		Namespace:   "g",
		ProjectName: "r",
	}

	gt.Value(t, a.FullPath()).Equal("g/r")
	gt.Value(t, a.MRName()).Equal("MR!7")
	gt.Value(t, a.MRLink()).Equal("<https://gitlab.example.com/g/r/-/merge_requests/7|MR!7>")
	gt.Value(t, a.TitleLine()).Equal("Fix the thing")
	gt.False(t, a.SelfAssigned())

	a.Author = a.Assignee
	gt.True(t, a.SelfAssigned())

	a.MR.Title = "   "
	gt.Value(t, a.TitleLine()).Equal("{NO TITLE}")

	a.MR.WebURL = ""
	gt.Value(t, a.MRLink()).Equal("MR!7")
}

func TestHoursAssigned(t *testing.T) {
	now := time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)

	a := &gitlab.Assignment{AssignedAt: now.Add(-90 * time.Minute)}
	gt.Number(t, a.HoursAssigned(now)).Equal(int64(1))

	a.AssignedAt = now.Add(-30 * time.Minute)
	gt.Number(t, a.HoursAssigned(now)).Equal(int64(0))

	a.AssignedAt = time.Time{}
	gt.Number(t, a.HoursAssigned(now)).Equal(int64(-1))
}
