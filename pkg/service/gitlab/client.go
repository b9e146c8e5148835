package gitlab

import (
	"context"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/mergeminder/pkg/domain/model"
	"github.com/secmon-lab/mergeminder/pkg/utils/logging"
	gitlab "gitlab.com/gitlab-org/api/client-go"
)

type client struct {
	api *gitlab.Client
}

// New creates a new GitLab Service with the given base URL and personal
// access token.
func New(baseURL, token string) (Service, error) {
	if token == "" {
		return nil, goerr.New("GitLab access token is required")
	}

	opts := []gitlab.ClientOptionFunc{}
	if baseURL != "" {
		opts = append(opts, gitlab.WithBaseURL(baseURL))
	}

	api, err := gitlab.NewClient(token, opts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create GitLab client", goerr.V("baseURL", baseURL))
	}

	return &client{api: api}, nil
}

func convertUser(u *gitlab.User) *User {
	if u == nil {
		return nil
	}
	email := u.PublicEmail
	if email == "" {
		email = u.Email
	}
	return &User{
		ID:       int64(u.ID),
		Username: u.Username,
		Name:     u.Name,
		Email:    email,
	}
}

func convertMergeRequest(mr *gitlab.MergeRequest) *MergeRequest {
	out := &MergeRequest{
		ID:     int64(mr.ID),
		IID:    int64(mr.IID),
		Title:  mr.Title,
		WebURL: mr.WebURL,
		State:  mr.State,
		Draft:  mr.Draft,
		Labels: []string(mr.Labels),
	}
	if mr.CreatedAt != nil {
		out.CreatedAt = *mr.CreatedAt
	}
	return out
}

// ListOpenAssignments fetches all open merge requests of the project and
// builds one Assignment per assignee, with the newest "assigned to" note as
// the assignment event.
func (c *client) ListOpenAssignments(ctx context.Context, namespace, name string) ([]*Assignment, error) {
	fullPath := namespace + "/" + name
	logger := logging.From(ctx)

	var assignments []*Assignment

	listOpts := &gitlab.ListProjectMergeRequestsOptions{
		State:       gitlab.Ptr("opened"),
		ListOptions: gitlab.ListOptions{PerPage: 100},
	}

	for {
		mrs, resp, err := c.api.MergeRequests.ListProjectMergeRequests(fullPath, listOpts, gitlab.WithContext(ctx))
		if err != nil {
			return nil, goerr.Wrap(err, "failed to list open merge requests", goerr.V("project", fullPath))
		}

		for _, mr := range mrs {
			if len(mr.Assignees) == 0 {
				logger.Info("merge request is not assigned, nothing to mind",
					"project", fullPath, "mr", mr.IID)
				continue
			}

			noteID, assignedAt, err := c.lastAssignment(ctx, fullPath, int64(mr.IID))
			if err != nil {
				return nil, err
			}
			if assignedAt.IsZero() && mr.CreatedAt != nil {
				assignedAt = *mr.CreatedAt
			}

			author, err := c.GetUser(ctx, mr.Author.Username)
			if err != nil {
				return nil, err
			}

			// GitLab allows multiple assignees per MR; each gets an
			// independent assignment.
			for _, a := range mr.Assignees {
				assignee, err := c.GetUser(ctx, a.Username)
				if err != nil {
					return nil, err
				}

				assignments = append(assignments, &Assignment{
					MR:           convertMergeRequest(mr),
					Assignee:     assignee,
					Author:       author,
					AssignmentID: noteID,
					AssignedAt:   assignedAt,
					Namespace:    namespace,
					ProjectName:  name,
				})
			}
		}

		if resp.NextPage == 0 {
			break
		}
		listOpts.Page = resp.NextPage
	}

	return assignments, nil
}

// lastAssignment scans the MR's notes newest-first for the most recent
// assignment event. Returns (model.NoAssignmentEvent, zero time) when no
// assignment note exists.
func (c *client) lastAssignment(ctx context.Context, fullPath string, iid int64) (int64, time.Time, error) {
	noteOpts := &gitlab.ListMergeRequestNotesOptions{
		OrderBy:     gitlab.Ptr("created_at"),
		Sort:        gitlab.Ptr("desc"),
		ListOptions: gitlab.ListOptions{PerPage: 100},
	}

	for {
		notes, resp, err := c.api.Notes.ListMergeRequestNotes(fullPath, int(iid), noteOpts, gitlab.WithContext(ctx))
		if err != nil {
			return 0, time.Time{}, goerr.Wrap(err, "failed to list merge request notes",
				goerr.V("project", fullPath), goerr.V("mr", iid))
		}

		for _, note := range notes {
			if strings.HasPrefix(strings.ToLower(note.Body), "assigned to") {
				var at time.Time
				if note.CreatedAt != nil {
					at = *note.CreatedAt
				}
				return int64(note.ID), at, nil
			}
		}

		if resp.NextPage == 0 {
			break
		}
		noteOpts.Page = resp.NextPage
	}

	return model.NoAssignmentEvent, time.Time{}, nil
}

// IsMergedOrClosed reports whether the merge request has been merged or
// closed. A 404 from the platform counts as closed: the MR no longer exists
// and its tracked state should be purged.
func (c *client) IsMergedOrClosed(ctx context.Context, fullPath string, iid int64) (bool, error) {
	mr, resp, err := c.api.MergeRequests.GetMergeRequest(fullPath, int(iid), nil, gitlab.WithContext(ctx))
	if err != nil {
		if resp != nil && resp.StatusCode == 404 {
			logging.From(ctx).Info("merge request no longer exists, treating as closed",
				"project", fullPath, "mr", iid)
			return true, nil
		}
		return false, goerr.Wrap(err, "failed to look up merge request",
			goerr.V("project", fullPath), goerr.V("mr", iid))
	}

	return mr.State == "merged" || mr.State == "closed", nil
}

// GetUser fetches a user profile by username
func (c *client) GetUser(ctx context.Context, username string) (*User, error) {
	users, _, err := c.api.Users.ListUsers(&gitlab.ListUsersOptions{
		Username: gitlab.Ptr(username),
	}, gitlab.WithContext(ctx))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to look up user", goerr.V("username", username))
	}
	if len(users) == 0 {
		return nil, goerr.New("user not found", goerr.V("username", username))
	}

	return convertUser(users[0]), nil
}
