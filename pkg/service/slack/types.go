package slack

import (
	"context"

	"github.com/secmon-lab/mergeminder/pkg/domain/types"
)

// Service provides interface to the Slack API for notification and identity
// resolution.
type Service interface {
	// FindUserByEmail resolves a workspace user by exact email address.
	// Returns (nil, nil) when no user owns the address; errors are reserved
	// for API failures.
	FindUserByEmail(ctx context.Context, email string) (*User, error)

	// GetUserByID resolves a workspace user by internal ID
	GetUserByID(ctx context.Context, id types.SlackUserID) (*User, error)

	// ListUsers retrieves all non-deleted, non-bot users in the workspace
	ListUsers(ctx context.Context) ([]*User, error)

	// FindChannelByName resolves a public channel the bot has joined by
	// name. Returns ("", nil) when no such channel exists.
	FindChannelByName(ctx context.Context, name string) (string, error)

	// PostChannelMessage posts a plain text message to a channel. Link
	// unfurling is always disabled.
	PostChannelMessage(ctx context.Context, channelID, text string) error

	// PostDirectMessage opens (or reuses) a DM conversation with the user
	// and posts a plain text message. Link unfurling is always disabled.
	PostDirectMessage(ctx context.Context, userID types.SlackUserID, text string) error
}

// User represents a Slack workspace user
type User struct {
	ID       types.SlackUserID
	Name     string // Slack username (e.g. "john.doe")
	RealName string // display name (e.g. "John Doe")
	Email    string
	IsBot    bool
}
