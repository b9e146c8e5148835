package interfaces

import (
	"context"

	"github.com/secmon-lab/mergeminder/pkg/domain/model"
	"github.com/secmon-lab/mergeminder/pkg/domain/types"
)

// Repository defines the interface for data persistence
type Repository interface {
	MergeRequest() MergeRequestRepository
	Project() ProjectRepository
	UserMapping() UserMappingRepository

	Close() error
}

// MergeRequestRepository persists per-merge-request escalation state, keyed
// by the platform-assigned merge request ID.
type MergeRequestRepository interface {
	// Get retrieves one row; wraps types.ErrNotFound when absent
	Get(ctx context.Context, id types.MergeRequestID) (*model.MergeRequest, error)

	// GetAll retrieves every tracked merge request (used by the purge pass)
	GetAll(ctx context.Context) ([]*model.MergeRequest, error)

	// Save upserts one row
	Save(ctx context.Context, mr *model.MergeRequest) error

	// Delete removes one row; deleting an absent row is not an error
	Delete(ctx context.Context, id types.MergeRequestID) error
}

// ProjectRepository persists the list of minded projects.
type ProjectRepository interface {
	// List returns all projects ordered by namespace, then name
	List(ctx context.Context) ([]*model.Project, error)

	// ListByNamespace returns projects in one namespace ordered by name
	ListByNamespace(ctx context.Context, namespace string) ([]*model.Project, error)

	// Get retrieves one row; wraps types.ErrNotFound when absent
	Get(ctx context.Context, id types.ProjectID) (*model.Project, error)

	// Save upserts one row
	Save(ctx context.Context, project *model.Project) error

	// Delete removes one row; deleting an absent row is not an error
	Delete(ctx context.Context, id types.ProjectID) error
}

// UserMappingRepository persists GitLab-to-Slack identity mappings with a
// uniqueness constraint on the GitLab username.
type UserMappingRepository interface {
	// GetAll retrieves every mapping row
	GetAll(ctx context.Context) ([]*model.UserMapping, error)

	// GetByID retrieves one row; wraps types.ErrNotFound when absent
	GetByID(ctx context.Context, id types.MappingID) (*model.UserMapping, error)

	// GetByUsername retrieves the row for a GitLab username; wraps
	// types.ErrNotFound when absent
	GetByUsername(ctx context.Context, username string) (*model.UserMapping, error)

	// Save upserts one row. Saving a new row for an already-mapped username
	// replaces that username's row (the uniqueness constraint holds).
	Save(ctx context.Context, mapping *model.UserMapping) error
}
