package conversation_test

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/mergeminder/pkg/domain/model"
	"github.com/secmon-lab/mergeminder/pkg/domain/types"
	"github.com/secmon-lab/mergeminder/pkg/repository/memory"
	"github.com/secmon-lab/mergeminder/pkg/service/gitlab"
	"github.com/secmon-lab/mergeminder/pkg/service/slack"
	"github.com/secmon-lab/mergeminder/pkg/usecase"
	"github.com/secmon-lab/mergeminder/pkg/usecase/conversation"
)

const (
	adminEmail = "admin@example.com"
	adminUser  = types.SlackUserID("U0ADMIN")
	plainUser  = types.SlackUserID("U0PLAIN")
)

// stubSlack implements just enough of slack.Service for conversation tests
type stubSlack struct {
	mu    sync.RWMutex
	users map[types.SlackUserID]*slack.User
}

func newStubSlack() *stubSlack {
	return &stubSlack{users: map[types.SlackUserID]*slack.User{}}
}

func (s *stubSlack) addUser(u *slack.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
}

func (s *stubSlack) FindUserByEmail(ctx context.Context, email string) (*slack.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (s *stubSlack) GetUserByID(ctx context.Context, id types.SlackUserID) (*slack.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.users[id], nil
}

func (s *stubSlack) ListUsers(ctx context.Context) ([]*slack.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*slack.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	return out, nil
}

func (s *stubSlack) FindChannelByName(ctx context.Context, name string) (string, error) {
	return "", nil
}

func (s *stubSlack) PostChannelMessage(ctx context.Context, channelID, text string) error {
	return nil
}

func (s *stubSlack) PostDirectMessage(ctx context.Context, userID types.SlackUserID, text string) error {
	return nil
}

// stubGitlab is a no-op gitlab.Service
type stubGitlab struct{}

func (stubGitlab) ListOpenAssignments(ctx context.Context, namespace, name string) ([]*gitlab.Assignment, error) {
	return nil, nil
}

func (stubGitlab) IsMergedOrClosed(ctx context.Context, fullPath string, iid int64) (bool, error) {
	return false, nil
}

func (stubGitlab) GetUser(ctx context.Context, username string) (*gitlab.User, error) {
	return nil, nil
}

func newConvEnv(t *testing.T) (*conversation.Manager, *memory.Memory, *stubSlack) {
	t.Helper()

	repo := memory.New()
	sl := newStubSlack()
	sl.addUser(&slack.User{ID: adminUser, Name: "admin", RealName: "Ada Admin", Email: adminEmail})
	sl.addUser(&slack.User{ID: plainUser, Name: "plain", RealName: "Paula Plain", Email: "paula@example.com"})

	uc := usecase.New(repo, stubGitlab{}, sl,
		usecase.WithAdminEmails([]string{adminEmail}),
	)

	return conversation.NewManager(uc, conversation.NewSessionStore()), repo, sl
}

func TestAddProjectConversation(t *testing.T) {
	ctx := context.Background()
	m, repo, _ := newConvEnv(t)

	reply := m.HandleMessage(ctx, adminUser, adminEmail, "add project")
	gt.True(t, strings.Contains(strings.ToLower(reply), "namespace"))

	// empty input re-prompts without advancing
	reply = m.HandleMessage(ctx, adminUser, adminEmail, "  ")
	gt.True(t, strings.Contains(strings.ToLower(reply), "namespace"))

	reply = m.HandleMessage(ctx, adminUser, adminEmail, "group")
	gt.True(t, strings.Contains(strings.ToLower(reply), "name"))

	reply = m.HandleMessage(ctx, adminUser, adminEmail, "repo")
	gt.True(t, strings.Contains(reply, "group/repo"))

	projects := gt.R1(repo.Project().List(ctx)).NoError(t)
	gt.Array(t, projects).Length(1)
	gt.Value(t, projects[0].FullPath()).Equal("group/repo")
}

func TestAddProjectRequiresAdmin(t *testing.T) {
	ctx := context.Background()
	m, repo, _ := newConvEnv(t)

	reply := m.HandleMessage(ctx, plainUser, "paula@example.com", "add project")
	gt.True(t, strings.Contains(reply, "administrators"))

	projects := gt.R1(repo.Project().List(ctx)).NoError(t)
	gt.Array(t, projects).Length(0)
}

func TestExitCancelsConversation(t *testing.T) {
	ctx := context.Background()
	m, repo, _ := newConvEnv(t)

	m.HandleMessage(ctx, adminUser, adminEmail, "add project")
	reply := m.HandleMessage(ctx, adminUser, adminEmail, "EXIT")
	gt.True(t, strings.Contains(reply, "never mind"))

	// the session is gone: the next message routes as a fresh command
	reply = m.HandleMessage(ctx, adminUser, adminEmail, "view projects")
	gt.True(t, strings.Contains(reply, "not minding any projects"))

	projects := gt.R1(repo.Project().List(ctx)).NoError(t)
	gt.Array(t, projects).Length(0)
}

func TestSetUnmappedConversation(t *testing.T) {
	ctx := context.Background()
	m, repo, _ := newConvEnv(t)

	gt.NoError(t, repo.UserMapping().Save(ctx, &model.UserMapping{
		ID:             types.NewMappingID(),
		GitlabUsername: "jdoe",
		GitlabName:     "Jane Doe",
	}))

	reply := m.HandleMessage(ctx, adminUser, adminEmail, "set unmapped")
	gt.True(t, strings.Contains(reply, "jdoe"))

	// junk selection re-prompts
	reply = m.HandleMessage(ctx, adminUser, adminEmail, "banana")
	gt.True(t, strings.Contains(reply, "number"))

	reply = m.HandleMessage(ctx, adminUser, adminEmail, "1")
	gt.True(t, strings.Contains(reply, "jdoe"))

	// junk value re-prompts
	reply = m.HandleMessage(ctx, adminUser, adminEmail, "???")
	gt.True(t, strings.Contains(strings.ToLower(reply), "email"))

	reply = m.HandleMessage(ctx, adminUser, adminEmail, "<mailto:jane@example.com|jane@example.com>")
	gt.True(t, strings.Contains(reply, "jane@example.com"))

	mapping := gt.R1(repo.UserMapping().GetByUsername(ctx, "jdoe")).NoError(t)
	gt.False(t, mapping.Unresolved())
	gt.Value(t, mapping.SlackEmail).Equal("jane@example.com")
}

func TestSetUnmappedNothingToDo(t *testing.T) {
	ctx := context.Background()
	m, _, _ := newConvEnv(t)

	reply := m.HandleMessage(ctx, adminUser, adminEmail, "set unmapped")
	gt.True(t, strings.Contains(reply, "already"))

	// no session lingers
	reply = m.HandleMessage(ctx, adminUser, adminEmail, "view projects")
	gt.True(t, strings.Contains(reply, "not minding"))
}

func TestSearchUsersConversation(t *testing.T) {
	ctx := context.Background()
	m, _, _ := newConvEnv(t)

	reply := m.HandleMessage(ctx, plainUser, "paula@example.com", "search users")
	gt.True(t, strings.Contains(strings.ToLower(reply), "look for"))

	reply = m.HandleMessage(ctx, plainUser, "paula@example.com", "ada")
	gt.True(t, strings.Contains(reply, "Ada Admin"))
	gt.True(t, strings.Contains(reply, adminUser.String()))
}

func TestViewProjectsAndMappings(t *testing.T) {
	ctx := context.Background()
	m, repo, _ := newConvEnv(t)

	gt.NoError(t, repo.Project().Save(ctx, &model.Project{
		ID: types.NewProjectID(), Namespace: "group", Name: "repo",
	}))
	gt.NoError(t, repo.Project().Save(ctx, &model.Project{
		ID: types.NewProjectID(), Namespace: "other", Name: "thing",
	}))
	gt.NoError(t, repo.UserMapping().Save(ctx, &model.UserMapping{
		ID: types.NewMappingID(), GitlabUsername: "jdoe", GitlabName: "Jane Doe", SlackUID: "U0001",
	}))

	reply := m.HandleMessage(ctx, plainUser, "paula@example.com", "view projects")
	gt.True(t, strings.Contains(reply, "group/repo"))
	gt.True(t, strings.Contains(reply, "other/thing"))

	reply = m.HandleMessage(ctx, plainUser, "paula@example.com", "view projects group")
	gt.True(t, strings.Contains(reply, "group/repo"))
	gt.False(t, strings.Contains(reply, "other/thing"))

	reply = m.HandleMessage(ctx, plainUser, "paula@example.com", "view mappings")
	gt.True(t, strings.Contains(reply, "jdoe"))
	gt.True(t, strings.Contains(reply, "U0001"))
}

func TestViewProjectsKeepsNamespaceCase(t *testing.T) {
	ctx := context.Background()
	m, repo, _ := newConvEnv(t)

	gt.NoError(t, repo.Project().Save(ctx, &model.Project{
		ID: types.NewProjectID(), Namespace: "MyGroup", Name: "repo",
	}))

	// the command words match case-insensitively, the namespace does not
	reply := m.HandleMessage(ctx, plainUser, "paula@example.com", "View Projects MyGroup")
	gt.True(t, strings.Contains(reply, "MyGroup/repo"))

	reply = m.HandleMessage(ctx, plainUser, "paula@example.com", "view projects mygroup")
	gt.False(t, strings.Contains(reply, "MyGroup/repo"))
}

func TestAdminEmailCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	m, _, _ := newConvEnv(t)

	reply := m.HandleMessage(ctx, adminUser, "Admin@Example.COM", "add project")
	gt.True(t, strings.Contains(strings.ToLower(reply), "namespace"))

	m.HandleMessage(ctx, adminUser, "Admin@Example.COM", "exit")
}

func TestUnknownAndPleasantries(t *testing.T) {
	ctx := context.Background()
	m, _, _ := newConvEnv(t)

	reply := m.HandleMessage(ctx, plainUser, "paula@example.com", "hello")
	gt.True(t, strings.Contains(reply, "MergeMinder"))

	reply = m.HandleMessage(ctx, plainUser, "paula@example.com", "thanks!")
	gt.True(t, strings.Contains(reply, "welcome"))

	reply = m.HandleMessage(ctx, plainUser, "paula@example.com", "fhqwhgads")
	gt.True(t, strings.Contains(reply, "help"))

	reply = m.HandleMessage(ctx, plainUser, "paula@example.com", "help")
	gt.True(t, strings.Contains(reply, "view projects"))

	reply = m.HandleMessage(ctx, adminUser, adminEmail, "admin help")
	gt.True(t, strings.Contains(reply, "add project"))
}
