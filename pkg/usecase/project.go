package usecase

import (
	"context"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/mergeminder/pkg/domain/model"
	"github.com/secmon-lab/mergeminder/pkg/domain/types"
	"github.com/secmon-lab/mergeminder/pkg/utils/logging"
)

// AddProject starts minding a project identified by its fully qualified
// "namespace/name" path. Adding an already-tracked path is idempotent and
// returns the existing row.
func (uc *UseCases) AddProject(ctx context.Context, fullPath string) (*model.Project, error) {
	namespace, name, err := splitProjectPath(fullPath)
	if err != nil {
		return nil, err
	}

	existing, err := uc.repo.Project().ListByNamespace(ctx, namespace)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list projects", goerr.V("namespace", namespace))
	}
	for _, p := range existing {
		if p.Name == name {
			return p, nil
		}
	}

	project := &model.Project{
		ID:        types.NewProjectID(),
		Namespace: namespace,
		Name:      name,
	}
	if err := uc.repo.Project().Save(ctx, project); err != nil {
		return nil, goerr.Wrap(err, "failed to save project", goerr.V("path", fullPath))
	}

	logging.From(ctx).Info("now minding project", "project", project.FullPath())

	return project, nil
}

// ListProjects returns all tracked projects ordered by namespace, then name.
func (uc *UseCases) ListProjects(ctx context.Context) ([]*model.Project, error) {
	return uc.repo.Project().List(ctx)
}

// RemoveProject stops minding a project.
func (uc *UseCases) RemoveProject(ctx context.Context, id types.ProjectID) error {
	project, err := uc.repo.Project().Get(ctx, id)
	if err != nil {
		return goerr.Wrap(err, "failed to load project", goerr.V("id", id))
	}

	if err := uc.repo.Project().Delete(ctx, id); err != nil {
		return goerr.Wrap(err, "failed to delete project", goerr.V("id", id))
	}

	logging.From(ctx).Info("no longer minding project", "project", project.FullPath())
	return nil
}

func splitProjectPath(fullPath string) (string, string, error) {
	path := strings.TrimSpace(fullPath)
	idx := strings.LastIndex(path, "/")
	if idx <= 0 || idx == len(path)-1 {
		return "", "", goerr.New("project path must be namespace/name", goerr.V("path", fullPath))
	}
	return path[:idx], path[idx+1:], nil
}
