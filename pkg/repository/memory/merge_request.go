package memory

import (
	"context"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/mergeminder/pkg/domain/model"
	"github.com/secmon-lab/mergeminder/pkg/domain/types"
)

type mergeRequestRepository struct {
	mu   sync.RWMutex
	rows map[types.MergeRequestID]*model.MergeRequest
}

func newMergeRequestRepository() *mergeRequestRepository {
	return &mergeRequestRepository{
		rows: make(map[types.MergeRequestID]*model.MergeRequest),
	}
}

func (r *mergeRequestRepository) Get(ctx context.Context, id types.MergeRequestID) (*model.MergeRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	row, ok := r.rows[id]
	if !ok {
		return nil, goerr.Wrap(types.ErrNotFound, "merge request not found", goerr.V("id", id))
	}

	// Return a copy to prevent external modifications
	rowCopy := *row
	return &rowCopy, nil
}

func (r *mergeRequestRepository) GetAll(ctx context.Context) ([]*model.MergeRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rows := make([]*model.MergeRequest, 0, len(r.rows))
	for _, row := range r.rows {
		rowCopy := *row
		rows = append(rows, &rowCopy)
	}

	return rows, nil
}

func (r *mergeRequestRepository) Save(ctx context.Context, mr *model.MergeRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rowCopy := *mr
	r.rows[mr.ID] = &rowCopy
	return nil
}

func (r *mergeRequestRepository) Delete(ctx context.Context, id types.MergeRequestID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.rows, id)
	return nil
}
