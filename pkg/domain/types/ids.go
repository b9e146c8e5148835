package types

import (
	"fmt"

	"github.com/google/uuid"
)

// MergeRequestID is the GitLab-global identifier of a merge request. It is
// assigned by the platform and immutable, unlike the per-project IID shown
// to humans.
type MergeRequestID int64

// String returns the string representation of the merge request ID
func (x MergeRequestID) String() string {
	return fmt.Sprintf("%d", int64(x))
}

// ProjectID represents the generated identifier of a minded project row
type ProjectID string

// NewProjectID generates a new UUID v4 ProjectID
func NewProjectID() ProjectID {
	return ProjectID(uuid.New().String())
}

// String returns the string representation of the project ID
func (x ProjectID) String() string {
	return string(x)
}

// MappingID represents the generated identifier of a user mapping row
type MappingID string

// NewMappingID generates a new UUID v4 MappingID
func NewMappingID() MappingID {
	return MappingID(uuid.New().String())
}

// String returns the string representation of the mapping ID
func (x MappingID) String() string {
	return string(x)
}

// SlackUserID represents a Slack workspace user identifier (e.g. "U0123456")
type SlackUserID string

// String returns the string representation of the Slack user ID
func (x SlackUserID) String() string {
	return string(x)
}
