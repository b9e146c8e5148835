package firestore

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/mergeminder/pkg/domain/interfaces"
)

// Firestore is the Google Cloud Firestore backed Repository implementation.
type Firestore struct {
	client       *firestore.Client
	mergeRequest *mergeRequestRepository
	project      *projectRepository
	userMapping  *userMappingRepository
}

var _ interfaces.Repository = &Firestore{}

type Option func(*Firestore)

// WithCollectionPrefix prefixes every collection name, so multiple
// deployments can share one database.
func WithCollectionPrefix(prefix string) Option {
	return func(f *Firestore) {
		f.mergeRequest.collectionPrefix = prefix
		f.project.collectionPrefix = prefix
		f.userMapping.collectionPrefix = prefix
	}
}

func New(ctx context.Context, projectID, databaseID string, opts ...Option) (*Firestore, error) {
	var client *firestore.Client
	var err error
	if databaseID != "" {
		client, err = firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	} else {
		client, err = firestore.NewClient(ctx, projectID)
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client",
			goerr.V("projectID", projectID), goerr.V("databaseID", databaseID))
	}

	f := &Firestore{
		client:       client,
		mergeRequest: newMergeRequestRepository(client),
		project:      newProjectRepository(client),
		userMapping:  newUserMappingRepository(client),
	}

	for _, opt := range opts {
		opt(f)
	}

	return f, nil
}

func (f *Firestore) MergeRequest() interfaces.MergeRequestRepository {
	return f.mergeRequest
}

func (f *Firestore) Project() interfaces.ProjectRepository {
	return f.project
}

func (f *Firestore) UserMapping() interfaces.UserMappingRepository {
	return f.userMapping
}

func (f *Firestore) Close() error {
	if f.client != nil {
		return f.client.Close()
	}
	return nil
}
