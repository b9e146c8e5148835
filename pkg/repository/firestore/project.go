package firestore

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/mergeminder/pkg/domain/interfaces"
	"github.com/secmon-lab/mergeminder/pkg/domain/model"
	"github.com/secmon-lab/mergeminder/pkg/domain/types"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const projectsCollection = "minder_projects"

type projectRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

var _ interfaces.ProjectRepository = &projectRepository{}

func newProjectRepository(client *firestore.Client) *projectRepository {
	return &projectRepository{client: client}
}

// projectDoc is the Firestore persistence model
type projectDoc struct {
	ID        string `firestore:"id"`
	Namespace string `firestore:"namespace"`
	Name      string `firestore:"name"`
}

func (r *projectRepository) collection() *firestore.CollectionRef {
	if r.collectionPrefix != "" {
		return r.client.Collection(r.collectionPrefix + "_" + projectsCollection)
	}
	return r.client.Collection(projectsCollection)
}

func (r *projectRepository) fromDoc(doc *projectDoc) *model.Project {
	return &model.Project{
		ID:        types.ProjectID(doc.ID),
		Namespace: doc.Namespace,
		Name:      doc.Name,
	}
}

func (r *projectRepository) listQuery(ctx context.Context, q firestore.Query) ([]*model.Project, error) {
	iter := q.Documents(ctx)
	defer iter.Stop()

	var rows []*model.Project
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate projects")
		}

		var pDoc projectDoc
		if err := doc.DataTo(&pDoc); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal project", goerr.V("docID", doc.Ref.ID))
		}

		rows = append(rows, r.fromDoc(&pDoc))
	}

	return rows, nil
}

func (r *projectRepository) List(ctx context.Context) ([]*model.Project, error) {
	q := r.collection().OrderBy("namespace", firestore.Asc).OrderBy("name", firestore.Asc)
	return r.listQuery(ctx, q)
}

func (r *projectRepository) ListByNamespace(ctx context.Context, namespace string) ([]*model.Project, error) {
	q := r.collection().Where("namespace", "==", namespace).OrderBy("name", firestore.Asc)
	return r.listQuery(ctx, q)
}

func (r *projectRepository) Get(ctx context.Context, id types.ProjectID) (*model.Project, error) {
	doc, err := r.collection().Doc(id.String()).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(types.ErrNotFound, "project not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get project", goerr.V("id", id))
	}

	var pDoc projectDoc
	if err := doc.DataTo(&pDoc); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal project", goerr.V("id", id))
	}

	return r.fromDoc(&pDoc), nil
}

func (r *projectRepository) Save(ctx context.Context, project *model.Project) error {
	doc := &projectDoc{
		ID:        project.ID.String(),
		Namespace: project.Namespace,
		Name:      project.Name,
	}
	if _, err := r.collection().Doc(project.ID.String()).Set(ctx, doc); err != nil {
		return goerr.Wrap(err, "failed to save project", goerr.V("id", project.ID))
	}
	return nil
}

func (r *projectRepository) Delete(ctx context.Context, id types.ProjectID) error {
	if _, err := r.collection().Doc(id.String()).Delete(ctx); err != nil {
		return goerr.Wrap(err, "failed to delete project", goerr.V("id", id))
	}
	return nil
}
