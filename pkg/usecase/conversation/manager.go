// Package conversation implements the multi-turn admin dialogue the bot
// carries over Slack direct messages: adding projects, curating identity
// mappings, and read-only listings.
package conversation

import (
	"context"
	"strings"
	"sync"

	"github.com/secmon-lab/mergeminder/pkg/domain/types"
	"github.com/secmon-lab/mergeminder/pkg/usecase"
	"github.com/secmon-lab/mergeminder/pkg/utils/errutil"
	"github.com/secmon-lab/mergeminder/pkg/utils/logging"
)

// Conversation is one active multi-turn dialogue. Start returns the opening
// prompt; Receive consumes one user message and returns the reply; Finished
// reports whether the dialogue has run to completion.
type Conversation interface {
	Start(ctx context.Context) (string, error)
	Receive(ctx context.Context, input string) (string, error)
	Finished() bool
}

// SessionStore keeps at most one active conversation per Slack user.
type SessionStore interface {
	Get(userID types.SlackUserID) Conversation
	Set(userID types.SlackUserID, conv Conversation)
	Clear(userID types.SlackUserID)
}

type memorySessionStore struct {
	mu       sync.Mutex
	sessions map[types.SlackUserID]Conversation
}

// NewSessionStore returns an in-memory, mutex-guarded session store.
func NewSessionStore() SessionStore {
	return &memorySessionStore{
		sessions: make(map[types.SlackUserID]Conversation),
	}
}

func (s *memorySessionStore) Get(userID types.SlackUserID) Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[userID]
}

func (s *memorySessionStore) Set(userID types.SlackUserID, conv Conversation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[userID] = conv
}

func (s *memorySessionStore) Clear(userID types.SlackUserID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
}

const (
	exitReply    = "OK, never mind. Let me know if there's anything else I can do for you."
	apologyReply = "I'm sorry, something went wrong on my end. Let's start over."
	adminReply   = "Sorry, only administrators can do that."
)

// Manager routes incoming direct messages either into the user's active
// conversation or the command table.
type Manager struct {
	uc       *usecase.UseCases
	sessions SessionStore
}

// NewManager creates a conversation manager over the given session store.
func NewManager(uc *usecase.UseCases, sessions SessionStore) *Manager {
	return &Manager{
		uc:       uc,
		sessions: sessions,
	}
}

// HandleMessage processes one direct message from a user and returns the
// bot's reply. userEmail is the Slack profile email of the sender, used for
// admin gating; it may be empty.
func (m *Manager) HandleMessage(ctx context.Context, userID types.SlackUserID, userEmail, text string) string {
	trimmed := strings.TrimSpace(text)

	if active := m.sessions.Get(userID); active != nil {
		// "exit" always cancels, regardless of conversation state
		if strings.EqualFold(trimmed, "exit") {
			m.sessions.Clear(userID)
			return exitReply
		}

		reply, err := active.Receive(ctx, trimmed)
		if err != nil {
			m.sessions.Clear(userID)
			errutil.Handle(ctx, err, "conversation step failed")
			return apologyReply
		}
		if active.Finished() {
			m.sessions.Clear(userID)
		}
		return reply
	}

	return m.dispatch(ctx, userID, userEmail, trimmed)
}

func (m *Manager) dispatch(ctx context.Context, userID types.SlackUserID, userEmail, text string) string {
	lower := strings.ToLower(text)

	switch {
	case strings.Contains(lower, "admin help"):
		return adminHelpText

	case strings.Contains(lower, "help"):
		return helpText

	case strings.Contains(lower, "add project"):
		if !m.uc.IsAdmin(userEmail) {
			return adminReply
		}
		return m.start(ctx, userID, newAddProject(m.uc))

	case strings.Contains(lower, "set unmapped"), strings.Contains(lower, "map users"):
		if !m.uc.IsAdmin(userEmail) {
			return adminReply
		}
		return m.start(ctx, userID, newSetUnmapped(m.uc))

	case strings.Contains(lower, "search user"):
		return m.start(ctx, userID, newSearchUsers(m.uc))

	case strings.Contains(lower, "view mappings"), strings.Contains(lower, "show mappings"):
		return m.viewMappings(ctx)

	case strings.Contains(lower, "view projects"), strings.Contains(lower, "show projects"):
		return m.viewProjects(ctx, namespaceArg(text))

	case isGreeting(lower):
		return "Hello there! I'm MergeMinder. Say `help` to see what I can do."

	case strings.Contains(lower, "thank"):
		return "You're very welcome!"

	default:
		logging.From(ctx).Info("unrecognized conversation input", "user", userID)
		return "Sorry, I didn't catch that. Say `help` to see what I understand."
	}
}

// start begins a conversation; a dialogue that completes (or fails) in its
// opening turn never enters the session store.
func (m *Manager) start(ctx context.Context, userID types.SlackUserID, conv Conversation) string {
	prompt, err := conv.Start(ctx)
	if err != nil {
		errutil.Handle(ctx, err, "failed to start conversation")
		return apologyReply
	}
	if !conv.Finished() {
		m.sessions.Set(userID, conv)
	}
	return prompt
}

func isGreeting(lower string) bool {
	for _, g := range []string{"hello", "hi", "hey", "greetings"} {
		if lower == g || strings.HasPrefix(lower, g+" ") || strings.HasPrefix(lower, g+",") {
			return true
		}
	}
	return false
}

// namespaceArg extracts the optional trailing namespace of a
// "view projects <namespace>" command. Only the command words are matched
// case-insensitively; the namespace itself keeps the user's casing.
func namespaceArg(text string) string {
	lower := strings.ToLower(text)
	for _, prefix := range []string{"view projects", "show projects"} {
		if strings.HasPrefix(lower, prefix) {
			return strings.TrimSpace(text[len(prefix):])
		}
	}
	return ""
}

const helpText = "Here's what I can do:\n" +
	"• `view projects [namespace]` — list the projects I'm minding\n" +
	"• `view mappings` — list GitLab-to-Slack user mappings\n" +
	"• `search users` — find a Slack user by name\n" +
	"• `help` — this message\n" +
	"Administrators can say `admin help` for more.\n" +
	"Say `exit` at any time to cancel whatever we're doing."

const adminHelpText = "Administrator commands:\n" +
	"• `add project` — start minding a new project\n" +
	"• `set unmapped` — map a GitLab user to a Slack identity\n" +
	"Everything from `help` works too. Say `exit` at any time to cancel."
