package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/mergeminder/pkg/domain/model"
	"github.com/secmon-lab/mergeminder/pkg/domain/types"
)

type projectRepository struct {
	mu   sync.RWMutex
	rows map[types.ProjectID]*model.Project
}

func newProjectRepository() *projectRepository {
	return &projectRepository{
		rows: make(map[types.ProjectID]*model.Project),
	}
}

func sortProjects(projects []*model.Project) {
	sort.Slice(projects, func(i, j int) bool {
		if projects[i].Namespace != projects[j].Namespace {
			return projects[i].Namespace < projects[j].Namespace
		}
		return projects[i].Name < projects[j].Name
	})
}

func (r *projectRepository) List(ctx context.Context) ([]*model.Project, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rows := make([]*model.Project, 0, len(r.rows))
	for _, row := range r.rows {
		rowCopy := *row
		rows = append(rows, &rowCopy)
	}

	sortProjects(rows)
	return rows, nil
}

func (r *projectRepository) ListByNamespace(ctx context.Context, namespace string) ([]*model.Project, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var rows []*model.Project
	for _, row := range r.rows {
		if row.Namespace == namespace {
			rowCopy := *row
			rows = append(rows, &rowCopy)
		}
	}

	sortProjects(rows)
	return rows, nil
}

func (r *projectRepository) Get(ctx context.Context, id types.ProjectID) (*model.Project, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	row, ok := r.rows[id]
	if !ok {
		return nil, goerr.Wrap(types.ErrNotFound, "project not found", goerr.V("id", id))
	}

	rowCopy := *row
	return &rowCopy, nil
}

func (r *projectRepository) Save(ctx context.Context, project *model.Project) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rowCopy := *project
	r.rows[project.ID] = &rowCopy
	return nil
}

func (r *projectRepository) Delete(ctx context.Context, id types.ProjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.rows, id)
	return nil
}
