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

const userMappingsCollection = "user_mappings"

// Documents are keyed by GitLab username: the uniqueness constraint on the
// source username is structural, so concurrent check-then-create attempts
// for the same user collapse into one row.
type userMappingRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

var _ interfaces.UserMappingRepository = &userMappingRepository{}

func newUserMappingRepository(client *firestore.Client) *userMappingRepository {
	return &userMappingRepository{client: client}
}

// userMappingDoc is the Firestore persistence model
type userMappingDoc struct {
	ID             string `firestore:"id"`
	GitlabUsername string `firestore:"gitlab_username"`
	GitlabName     string `firestore:"gitlab_name"`
	SlackUID       string `firestore:"slack_uid"`
	SlackEmail     string `firestore:"slack_email"`
}

func (r *userMappingRepository) collection() *firestore.CollectionRef {
	if r.collectionPrefix != "" {
		return r.client.Collection(r.collectionPrefix + "_" + userMappingsCollection)
	}
	return r.client.Collection(userMappingsCollection)
}

func (r *userMappingRepository) toDoc(m *model.UserMapping) *userMappingDoc {
	return &userMappingDoc{
		ID:             m.ID.String(),
		GitlabUsername: m.GitlabUsername,
		GitlabName:     m.GitlabName,
		SlackUID:       m.SlackUID.String(),
		SlackEmail:     m.SlackEmail,
	}
}

func (r *userMappingRepository) fromDoc(doc *userMappingDoc) *model.UserMapping {
	return &model.UserMapping{
		ID:             types.MappingID(doc.ID),
		GitlabUsername: doc.GitlabUsername,
		GitlabName:     doc.GitlabName,
		SlackUID:       types.SlackUserID(doc.SlackUID),
		SlackEmail:     doc.SlackEmail,
	}
}

func (r *userMappingRepository) GetAll(ctx context.Context) ([]*model.UserMapping, error) {
	iter := r.collection().Documents(ctx)
	defer iter.Stop()

	var rows []*model.UserMapping
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate user mappings")
		}

		var mDoc userMappingDoc
		if err := doc.DataTo(&mDoc); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal user mapping", goerr.V("docID", doc.Ref.ID))
		}

		rows = append(rows, r.fromDoc(&mDoc))
	}

	return rows, nil
}

func (r *userMappingRepository) GetByID(ctx context.Context, id types.MappingID) (*model.UserMapping, error) {
	iter := r.collection().Where("id", "==", id.String()).Limit(1).Documents(ctx)
	defer iter.Stop()

	doc, err := iter.Next()
	if err == iterator.Done {
		return nil, goerr.Wrap(types.ErrNotFound, "user mapping not found", goerr.V("id", id))
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query user mapping", goerr.V("id", id))
	}

	var mDoc userMappingDoc
	if err := doc.DataTo(&mDoc); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal user mapping", goerr.V("id", id))
	}

	return r.fromDoc(&mDoc), nil
}

func (r *userMappingRepository) GetByUsername(ctx context.Context, username string) (*model.UserMapping, error) {
	doc, err := r.collection().Doc(username).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(types.ErrNotFound, "user mapping not found", goerr.V("username", username))
		}
		return nil, goerr.Wrap(err, "failed to get user mapping", goerr.V("username", username))
	}

	var mDoc userMappingDoc
	if err := doc.DataTo(&mDoc); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal user mapping", goerr.V("username", username))
	}

	return r.fromDoc(&mDoc), nil
}

func (r *userMappingRepository) Save(ctx context.Context, mapping *model.UserMapping) error {
	if _, err := r.collection().Doc(mapping.GitlabUsername).Set(ctx, r.toDoc(mapping)); err != nil {
		return goerr.Wrap(err, "failed to save user mapping", goerr.V("username", mapping.GitlabUsername))
	}
	return nil
}
