package slack

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/mergeminder/pkg/domain/types"
	"github.com/slack-go/slack"
)

// DefaultCacheTTL is the default TTL for the channel ID cache
const DefaultCacheTTL = 5 * time.Minute

type cacheEntry struct {
	channelID string
	expiresAt time.Time
}

// client implements Service interface
type client struct {
	api      *slack.Client
	cacheTTL time.Duration

	mu    sync.RWMutex
	cache map[string]cacheEntry
}

// Option is a functional option for client configuration
type Option func(*client)

// WithCacheTTL sets the TTL for the channel ID cache
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *client) {
		c.cacheTTL = ttl
	}
}

// New creates a new Slack service with the provided bot token
func New(token string, opts ...Option) (Service, error) {
	if token == "" {
		return nil, goerr.New("Slack bot token is required")
	}

	c := &client{
		api:      slack.New(token),
		cacheTTL: DefaultCacheTTL,
		cache:    make(map[string]cacheEntry),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

func convertUser(u *slack.User) *User {
	return &User{
		ID:       types.SlackUserID(u.ID),
		Name:     u.Name,
		RealName: u.RealName,
		Email:    u.Profile.Email,
		IsBot:    u.IsBot,
	}
}

// FindUserByEmail resolves a workspace user by exact email address
func (c *client) FindUserByEmail(ctx context.Context, email string) (*User, error) {
	user, err := c.api.GetUserByEmailContext(ctx, email)
	if err != nil {
		// Slack reports an unknown address as an API error; the resolver
		// treats it as a miss, not a failure.
		if strings.Contains(err.Error(), "users_not_found") {
			return nil, nil
		}
		return nil, goerr.Wrap(err, "failed to look up user by email", goerr.V("email", email))
	}

	return convertUser(user), nil
}

// GetUserByID resolves a workspace user by internal ID
func (c *client) GetUserByID(ctx context.Context, id types.SlackUserID) (*User, error) {
	user, err := c.api.GetUserInfoContext(ctx, id.String())
	if err != nil {
		if strings.Contains(err.Error(), "user_not_found") {
			return nil, nil
		}
		return nil, goerr.Wrap(err, "failed to get user info", goerr.V("user_id", id))
	}

	return convertUser(user), nil
}

// ListUsers retrieves all non-deleted, non-bot users in the workspace
func (c *client) ListUsers(ctx context.Context) ([]*User, error) {
	users, err := c.api.GetUsersContext(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list users")
	}

	result := make([]*User, 0, len(users))
	for _, u := range users {
		if u.Deleted || u.IsBot {
			continue
		}
		result = append(result, convertUser(&u))
	}

	return result, nil
}

// FindChannelByName resolves a public channel by name with caching
func (c *client) FindChannelByName(ctx context.Context, name string) (string, error) {
	name = strings.TrimPrefix(name, "#")
	now := time.Now()

	c.mu.RLock()
	if entry, ok := c.cache[name]; ok && entry.expiresAt.After(now) {
		c.mu.RUnlock()
		return entry.channelID, nil
	}
	c.mu.RUnlock()

	var cursor string
	for {
		params := &slack.GetConversationsParameters{
			Types:           []string{"public_channel"},
			ExcludeArchived: true,
			Limit:           100,
			Cursor:          cursor,
		}

		convs, nextCursor, err := c.api.GetConversationsContext(ctx, params)
		if err != nil {
			return "", goerr.Wrap(err, "failed to get conversations", goerr.V("channel", name))
		}

		for _, conv := range convs {
			if conv.Name == name {
				c.mu.Lock()
				c.cache[name] = cacheEntry{
					channelID: conv.ID,
					expiresAt: now.Add(c.cacheTTL),
				}
				c.mu.Unlock()
				return conv.ID, nil
			}
		}

		if nextCursor == "" {
			return "", nil
		}
		cursor = nextCursor
	}
}

// PostChannelMessage posts a plain text message to a channel
func (c *client) PostChannelMessage(ctx context.Context, channelID, text string) error {
	_, _, err := c.api.PostMessageContext(ctx, channelID,
		slack.MsgOptionText(text, false),
		slack.MsgOptionDisableLinkUnfurl(),
	)
	if err != nil {
		return goerr.Wrap(err, "failed to post channel message", goerr.V("channel", channelID))
	}
	return nil
}

// PostDirectMessage opens a DM conversation with the user and posts a plain
// text message.
func (c *client) PostDirectMessage(ctx context.Context, userID types.SlackUserID, text string) error {
	channel, _, _, err := c.api.OpenConversationContext(ctx, &slack.OpenConversationParameters{
		Users: []string{userID.String()},
	})
	if err != nil {
		return goerr.Wrap(err, "failed to open DM conversation", goerr.V("user_id", userID))
	}

	_, _, err = c.api.PostMessageContext(ctx, channel.ID,
		slack.MsgOptionText(text, false),
		slack.MsgOptionDisableLinkUnfurl(),
	)
	if err != nil {
		return goerr.Wrap(err, "failed to post direct message", goerr.V("user_id", userID))
	}
	return nil
}
