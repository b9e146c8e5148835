package memory

import (
	"context"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/mergeminder/pkg/domain/model"
	"github.com/secmon-lab/mergeminder/pkg/domain/types"
)

type userMappingRepository struct {
	mu sync.RWMutex

	// byUsername is the primary index: GitLab usernames are unique across
	// the mapping table.
	byUsername map[string]*model.UserMapping
}

func newUserMappingRepository() *userMappingRepository {
	return &userMappingRepository{
		byUsername: make(map[string]*model.UserMapping),
	}
}

func (r *userMappingRepository) GetAll(ctx context.Context) ([]*model.UserMapping, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rows := make([]*model.UserMapping, 0, len(r.byUsername))
	for _, row := range r.byUsername {
		rowCopy := *row
		rows = append(rows, &rowCopy)
	}

	return rows, nil
}

func (r *userMappingRepository) GetByID(ctx context.Context, id types.MappingID) (*model.UserMapping, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, row := range r.byUsername {
		if row.ID == id {
			rowCopy := *row
			return &rowCopy, nil
		}
	}

	return nil, goerr.Wrap(types.ErrNotFound, "user mapping not found", goerr.V("id", id))
}

func (r *userMappingRepository) GetByUsername(ctx context.Context, username string) (*model.UserMapping, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	row, ok := r.byUsername[username]
	if !ok {
		return nil, goerr.Wrap(types.ErrNotFound, "user mapping not found", goerr.V("username", username))
	}

	rowCopy := *row
	return &rowCopy, nil
}

func (r *userMappingRepository) Save(ctx context.Context, mapping *model.UserMapping) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rowCopy := *mapping
	r.byUsername[mapping.GitlabUsername] = &rowCopy
	return nil
}
