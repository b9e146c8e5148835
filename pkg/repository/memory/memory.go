package memory

import (
	"github.com/secmon-lab/mergeminder/pkg/domain/interfaces"
)

// Memory is an in-memory Repository implementation used for tests and local
// development.
type Memory struct {
	mergeRequest *mergeRequestRepository
	project      *projectRepository
	userMapping  *userMappingRepository
}

var _ interfaces.Repository = &Memory{}

// New creates an empty in-memory repository
func New() *Memory {
	return &Memory{
		mergeRequest: newMergeRequestRepository(),
		project:      newProjectRepository(),
		userMapping:  newUserMappingRepository(),
	}
}

func (x *Memory) MergeRequest() interfaces.MergeRequestRepository {
	return x.mergeRequest
}

func (x *Memory) Project() interfaces.ProjectRepository {
	return x.project
}

func (x *Memory) UserMapping() interfaces.UserMappingRepository {
	return x.userMapping
}

func (x *Memory) Close() error {
	return nil
}
