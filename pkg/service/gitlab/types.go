package gitlab

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Service provides interface to the GitLab API for merge request data
type Service interface {
	// ListOpenAssignments returns one Assignment per (open merge request,
	// assignee) pair in the project. Unassigned merge requests are skipped.
	ListOpenAssignments(ctx context.Context, namespace, name string) ([]*Assignment, error)

	// IsMergedOrClosed reports whether the merge request has been merged or
	// closed. A merge request the platform no longer knows about counts as
	// closed (used by the purge pass). Other lookup failures are returned
	// as errors.
	IsMergedOrClosed(ctx context.Context, fullPath string, iid int64) (bool, error)

	// GetUser fetches a user profile by username
	GetUser(ctx context.Context, username string) (*User, error)
}

// MergeRequest is the subset of GitLab merge request data the minder needs
type MergeRequest struct {
	ID        int64 // platform-global ID
	IID       int64 // per-project sequence number
	Title     string
	WebURL    string
	State     string
	Draft     bool
	Labels    []string
	CreatedAt time.Time
}

// User represents a GitLab user profile
type User struct {
	ID       int64
	Username string
	Name     string
	Email    string // public email, often empty
}

// FirstName guesses the user's first name: the first whitespace-delimited
// token of the display name.
func (u *User) FirstName() string {
	if u == nil || u.Name == "" {
		return "Anonymous"
	}
	fields := strings.Fields(u.Name)
	if len(fields) == 0 {
		return "Anonymous"
	}
	return fields[0]
}

// Assignment is the ephemeral per-cycle aggregate of one merge request and
// one of its assignees, together with the most recent assignment event found
// in the MR's notes. It is never persisted.
type Assignment struct {
	MR       *MergeRequest
	Assignee *User
	Author   *User

	// AssignmentID is the ID of the newest "assigned to" note, or
	// model.NoAssignmentEvent when none was found.
	AssignmentID int64

	// AssignedAt is the creation time of that note, falling back to the MR
	// creation time.
	AssignedAt time.Time

	Namespace   string
	ProjectName string
}

// FullPath returns the fully qualified "namespace/name" project path
func (a *Assignment) FullPath() string {
	return a.Namespace + "/" + a.ProjectName
}

// MRName returns the human-facing merge request reference, e.g. "MR!42"
func (a *Assignment) MRName() string {
	return fmt.Sprintf("MR!%d", a.MR.IID)
}

// MRLink returns the Slack-hyperlinked merge request reference
func (a *Assignment) MRLink() string {
	if a.MR.WebURL == "" {
		return a.MRName()
	}
	return fmt.Sprintf("<%s|%s>", a.MR.WebURL, a.MRName())
}

// TitleLine returns the first line of the merge request title, or a
// placeholder when the title is empty.
func (a *Assignment) TitleLine() string {
	title := strings.TrimSpace(a.MR.Title)
	if title == "" {
		return "{NO TITLE}"
	}
	if idx := strings.IndexAny(title, "\r\n"); idx >= 0 {
		title = title[:idx]
	}
	return title
}

// HoursAssigned returns the whole hours between the assignment time and now,
// or -1 when the assignment time is unknown.
func (a *Assignment) HoursAssigned(now time.Time) int64 {
	if a.AssignedAt.IsZero() {
		return -1
	}
	return int64(now.Sub(a.AssignedAt) / time.Hour)
}

// SelfAssigned reports whether the merge request is assigned to its author
func (a *Assignment) SelfAssigned() bool {
	return a.Assignee != nil && a.Author != nil && a.Assignee.ID == a.Author.ID
}
