package usecase_test

import (
	"context"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/mergeminder/pkg/domain/types"
	"github.com/secmon-lab/mergeminder/pkg/service/gitlab"
	"github.com/secmon-lab/mergeminder/pkg/service/slack"
)

// mockGitlabService is a mock implementation of gitlab.Service for testing
type mockGitlabService struct {
	mu          sync.RWMutex
	assignments map[string][]*gitlab.Assignment // keyed by "namespace/name"
	closed      map[string]bool                 // keyed by "fullPath!iid"
	users       map[string]*gitlab.User
}

func newMockGitlabService() *mockGitlabService {
	return &mockGitlabService{
		assignments: map[string][]*gitlab.Assignment{},
		closed:      map[string]bool{},
		users:       map[string]*gitlab.User{},
	}
}

func (m *mockGitlabService) setAssignments(fullPath string, assignments []*gitlab.Assignment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.assignments[fullPath] = assignments
}

func (m *mockGitlabService) setClosed(fullPath string, iid int64, closed bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed[mrKey(fullPath, iid)] = closed
}

func mrKey(fullPath string, iid int64) string {
	return fullPath + "!" + types.MergeRequestID(iid).String()
}

func (m *mockGitlabService) ListOpenAssignments(ctx context.Context, namespace, name string) ([]*gitlab.Assignment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.assignments[namespace+"/"+name], nil
}

func (m *mockGitlabService) IsMergedOrClosed(ctx context.Context, fullPath string, iid int64) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	closed, ok := m.closed[mrKey(fullPath, iid)]
	if !ok {
		return false, goerr.New("unexpected merge request lookup", goerr.V("path", fullPath), goerr.V("iid", iid))
	}
	return closed, nil
}

func (m *mockGitlabService) GetUser(ctx context.Context, username string) (*gitlab.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	user, ok := m.users[username]
	if !ok {
		return nil, goerr.New("user not found", goerr.V("username", username))
	}
	return user, nil
}

type postedMessage struct {
	channelID string
	userID    types.SlackUserID
	text      string
}

// mockSlackService is a mock implementation of slack.Service for testing
type mockSlackService struct {
	mu           sync.RWMutex
	usersByEmail map[string]*slack.User
	usersByID    map[types.SlackUserID]*slack.User
	users        []*slack.User
	channels     map[string]string // name -> ID

	channelPosts []postedMessage
	directPosts  []postedMessage
}

func newMockSlackService() *mockSlackService {
	return &mockSlackService{
		usersByEmail: map[string]*slack.User{},
		usersByID:    map[types.SlackUserID]*slack.User{},
		channels:     map[string]string{},
	}
}

func (m *mockSlackService) addUser(user *slack.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if user.Email != "" {
		m.usersByEmail[user.Email] = user
	}
	m.usersByID[user.ID] = user
	m.users = append(m.users, user)
}

func (m *mockSlackService) addChannel(name, id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.channels[name] = id
}

func (m *mockSlackService) FindUserByEmail(ctx context.Context, email string) (*slack.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.usersByEmail[email], nil
}

func (m *mockSlackService) GetUserByID(ctx context.Context, id types.SlackUserID) (*slack.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.usersByID[id], nil
}

func (m *mockSlackService) ListUsers(ctx context.Context) ([]*slack.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.users, nil
}

func (m *mockSlackService) FindChannelByName(ctx context.Context, name string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.channels[name], nil
}

func (m *mockSlackService) PostChannelMessage(ctx context.Context, channelID, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.channelPosts = append(m.channelPosts, postedMessage{channelID: channelID, text: text})
	return nil
}

func (m *mockSlackService) PostDirectMessage(ctx context.Context, userID types.SlackUserID, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.directPosts = append(m.directPosts, postedMessage{userID: userID, text: text})
	return nil
}

func (m *mockSlackService) channelMessages() []postedMessage {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]postedMessage, len(m.channelPosts))
	copy(out, m.channelPosts)
	return out
}

func (m *mockSlackService) directMessages() []postedMessage {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]postedMessage, len(m.directPosts))
	copy(out, m.directPosts)
	return out
}
