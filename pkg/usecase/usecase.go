package usecase

import (
	"strings"
	"time"

	"github.com/secmon-lab/mergeminder/pkg/domain/interfaces"
	"github.com/secmon-lab/mergeminder/pkg/service/gitlab"
	"github.com/secmon-lab/mergeminder/pkg/service/slack"
)

// UseCases bundles the application operations over the repository and the
// external platform services.
type UseCases struct {
	repo      interfaces.Repository
	gitlabSvc gitlab.Service
	slackSvc  slack.Service

	channelName   string
	notifyUsers   bool
	emailDomains  []string
	ignoredLabels []string
	adminEmails   []string

	now func() time.Time
}

type Option func(*UseCases)

// WithChannel sets the Slack channel name for public announcements. Empty
// disables channel announcements.
func WithChannel(name string) Option {
	return func(uc *UseCases) {
		uc.channelName = name
	}
}

// WithNotifyUsers enables direct messages to assignees. When disabled,
// reminders are still computed and recorded but no DM is sent.
func WithNotifyUsers(enabled bool) Option {
	return func(uc *UseCases) {
		uc.notifyUsers = enabled
	}
}

// WithEmailDomains sets the domains used to guess email addresses from
// GitLab display names during identity resolution.
func WithEmailDomains(domains []string) Option {
	return func(uc *UseCases) {
		uc.emailDomains = domains
	}
}

// WithIgnoredLabels sets the merge request labels that exempt an MR from
// minding. Matching is case-insensitive.
func WithIgnoredLabels(labels []string) Option {
	return func(uc *UseCases) {
		uc.ignoredLabels = labels
	}
}

// WithAdminEmails sets the email addresses allowed to run mutating
// conversations.
func WithAdminEmails(emails []string) Option {
	return func(uc *UseCases) {
		uc.adminEmails = emails
	}
}

// WithClock overrides the time source. For testing.
func WithClock(now func() time.Time) Option {
	return func(uc *UseCases) {
		uc.now = now
	}
}

func New(repo interfaces.Repository, gitlabSvc gitlab.Service, slackSvc slack.Service, opts ...Option) *UseCases {
	uc := &UseCases{
		repo:      repo,
		gitlabSvc: gitlabSvc,
		slackSvc:  slackSvc,
		now:       time.Now,
	}

	for _, opt := range opts {
		opt(uc)
	}

	return uc
}

// Repository exposes the underlying repository for controllers that need
// direct read access.
func (uc *UseCases) Repository() interfaces.Repository {
	return uc.repo
}

// SlackService exposes the Slack service for controllers that deliver
// replies themselves.
func (uc *UseCases) SlackService() slack.Service {
	return uc.slackSvc
}

// IsAdmin reports whether the given Slack profile email belongs to a
// configured administrator. Email comparison is case-insensitive.
func (uc *UseCases) IsAdmin(email string) bool {
	if email == "" {
		return false
	}
	for _, admin := range uc.adminEmails {
		if strings.EqualFold(admin, email) {
			return true
		}
	}
	return false
}
