package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/mergeminder/pkg/domain/interfaces"
	"github.com/secmon-lab/mergeminder/pkg/domain/model"
	"github.com/secmon-lab/mergeminder/pkg/domain/types"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const mergeRequestsCollection = "merge_requests"

type mergeRequestRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

var _ interfaces.MergeRequestRepository = &mergeRequestRepository{}

func newMergeRequestRepository(client *firestore.Client) *mergeRequestRepository {
	return &mergeRequestRepository{client: client}
}

// mergeRequestDoc is the Firestore persistence model
type mergeRequestDoc struct {
	ID               int64     `firestore:"id"`
	IID              int64     `firestore:"iid"`
	Project          string    `firestore:"project"`
	Assignee         string    `firestore:"assignee"`
	AssigneeEmail    string    `firestore:"assignee_email"`
	LastReminderTier int64     `firestore:"last_reminder_tier"`
	LastAssignmentID int64     `firestore:"last_assignment_id"`
	AssignedAt       time.Time `firestore:"assigned_at"`
	LastUpdated      time.Time `firestore:"last_updated"`
}

func (r *mergeRequestRepository) collection() *firestore.CollectionRef {
	if r.collectionPrefix != "" {
		return r.client.Collection(r.collectionPrefix + "_" + mergeRequestsCollection)
	}
	return r.client.Collection(mergeRequestsCollection)
}

func (r *mergeRequestRepository) toDoc(mr *model.MergeRequest) *mergeRequestDoc {
	return &mergeRequestDoc{
		ID:               int64(mr.ID),
		IID:              mr.IID,
		Project:          mr.Project,
		Assignee:         mr.Assignee,
		AssigneeEmail:    mr.AssigneeEmail,
		LastReminderTier: mr.LastReminderTier,
		LastAssignmentID: mr.LastAssignmentID,
		AssignedAt:       mr.AssignedAt,
		LastUpdated:      mr.LastUpdated,
	}
}

func (r *mergeRequestRepository) fromDoc(doc *mergeRequestDoc) *model.MergeRequest {
	return &model.MergeRequest{
		ID:               types.MergeRequestID(doc.ID),
		IID:              doc.IID,
		Project:          doc.Project,
		Assignee:         doc.Assignee,
		AssigneeEmail:    doc.AssigneeEmail,
		LastReminderTier: doc.LastReminderTier,
		LastAssignmentID: doc.LastAssignmentID,
		AssignedAt:       doc.AssignedAt,
		LastUpdated:      doc.LastUpdated,
	}
}

func (r *mergeRequestRepository) Get(ctx context.Context, id types.MergeRequestID) (*model.MergeRequest, error) {
	doc, err := r.collection().Doc(id.String()).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(types.ErrNotFound, "merge request not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get merge request", goerr.V("id", id))
	}

	var mrDoc mergeRequestDoc
	if err := doc.DataTo(&mrDoc); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal merge request", goerr.V("id", id))
	}

	return r.fromDoc(&mrDoc), nil
}

func (r *mergeRequestRepository) GetAll(ctx context.Context) ([]*model.MergeRequest, error) {
	iter := r.collection().Documents(ctx)
	defer iter.Stop()

	var rows []*model.MergeRequest
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate merge requests")
		}

		var mrDoc mergeRequestDoc
		if err := doc.DataTo(&mrDoc); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal merge request", goerr.V("docID", doc.Ref.ID))
		}

		rows = append(rows, r.fromDoc(&mrDoc))
	}

	return rows, nil
}

func (r *mergeRequestRepository) Save(ctx context.Context, mr *model.MergeRequest) error {
	if _, err := r.collection().Doc(mr.ID.String()).Set(ctx, r.toDoc(mr)); err != nil {
		return goerr.Wrap(err, "failed to save merge request", goerr.V("id", mr.ID))
	}
	return nil
}

func (r *mergeRequestRepository) Delete(ctx context.Context, id types.MergeRequestID) error {
	if _, err := r.collection().Doc(id.String()).Delete(ctx); err != nil {
		return goerr.Wrap(err, "failed to delete merge request", goerr.V("id", id))
	}
	return nil
}
