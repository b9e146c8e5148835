package usecase

import (
	"context"
	"errors"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/mergeminder/pkg/domain/model"
	"github.com/secmon-lab/mergeminder/pkg/domain/types"
	"github.com/secmon-lab/mergeminder/pkg/service/gitlab"
	"github.com/secmon-lab/mergeminder/pkg/service/slack"
	"github.com/secmon-lab/mergeminder/pkg/utils/logging"
)

// ResolveSlackUser maps a GitLab user to a Slack workspace user, trying each
// strategy in order:
//
//  1. a curated mapping row (UID is authoritative, then mapped email)
//  2. the email address GitLab publishes for the user
//  3. addresses guessed from the display name and the configured domains
//  4. a fuzzy match over the workspace directory
//
// Before falling through to the fuzzy heuristic, an unresolved mapping row is
// created (once per username) so an administrator can curate the user even
// when the fuzzy match happens to land. When every strategy misses,
// (nil, nil) is returned.
func (uc *UseCases) ResolveSlackUser(ctx context.Context, glUser *gitlab.User) (*slack.User, error) {
	logger := logging.From(ctx)

	mapping, err := uc.repo.UserMapping().GetByUsername(ctx, glUser.Username)
	if err != nil && !errors.Is(err, types.ErrNotFound) {
		return nil, goerr.Wrap(err, "failed to load user mapping", goerr.V("username", glUser.Username))
	}

	if mapping != nil && !mapping.Unresolved() {
		if mapping.SlackUID != "" {
			user, err := uc.slackSvc.GetUserByID(ctx, mapping.SlackUID)
			if err != nil {
				return nil, err
			}
			if user != nil {
				return user, nil
			}
			logger.Warn("mapped Slack UID no longer exists",
				"username", glUser.Username, "slack_uid", mapping.SlackUID)
		}
		if mapping.SlackEmail != "" {
			user, err := uc.slackSvc.FindUserByEmail(ctx, mapping.SlackEmail)
			if err != nil {
				return nil, err
			}
			if user != nil {
				return user, nil
			}
		}
	}

	if glUser.Email != "" {
		user, err := uc.slackSvc.FindUserByEmail(ctx, glUser.Email)
		if err != nil {
			return nil, err
		}
		if user != nil {
			return user, nil
		}
	}

	for _, email := range uc.guessEmails(glUser.Name) {
		user, err := uc.slackSvc.FindUserByEmail(ctx, email)
		if err != nil {
			return nil, err
		}
		if user != nil {
			logger.Info("resolved Slack user by guessed email",
				"username", glUser.Username, "email", email)
			return user, nil
		}
	}

	if mapping == nil {
		if err := uc.createUnresolvedMapping(ctx, glUser); err != nil {
			return nil, err
		}
	}

	user, err := uc.fuzzyMatch(ctx, glUser.Name)
	if err != nil {
		return nil, err
	}
	if user != nil {
		logger.Info("resolved Slack user by fuzzy name match",
			"username", glUser.Username, "slack_uid", user.ID)
		return user, nil
	}

	logger.Info("could not resolve Slack identity", "username", glUser.Username)
	return nil, nil
}

// guessEmails builds candidate addresses from the display name: lowercased,
// whitespace collapsed to dots, one per configured domain.
func (uc *UseCases) guessEmails(name string) []string {
	fields := strings.Fields(strings.ToLower(name))
	if len(fields) == 0 {
		return nil
	}
	local := strings.Join(fields, ".")

	emails := make([]string, 0, len(uc.emailDomains))
	for _, domain := range uc.emailDomains {
		emails = append(emails, local+"@"+domain)
	}
	return emails
}

// fuzzyMatch returns the first workspace user whose real name contains every
// token of the GitLab display name. Matches are unranked: the first hit in
// enumeration order wins.
func (uc *UseCases) fuzzyMatch(ctx context.Context, name string) (*slack.User, error) {
	tokens := strings.Fields(strings.ToLower(name))
	if len(tokens) == 0 {
		return nil, nil
	}

	users, err := uc.slackSvc.ListUsers(ctx)
	if err != nil {
		return nil, err
	}

	for _, user := range users {
		realName := strings.ToLower(user.RealName)
		matched := true
		for _, token := range tokens {
			if !strings.Contains(realName, token) {
				matched = false
				break
			}
		}
		if matched {
			return user, nil
		}
	}

	return nil, nil
}

func (uc *UseCases) createUnresolvedMapping(ctx context.Context, glUser *gitlab.User) error {
	mapping := &model.UserMapping{
		ID:             types.NewMappingID(),
		GitlabUsername: glUser.Username,
		GitlabName:     glUser.Name,
	}
	if err := uc.repo.UserMapping().Save(ctx, mapping); err != nil {
		return goerr.Wrap(err, "failed to create unresolved mapping",
			goerr.V("username", glUser.Username))
	}

	logging.From(ctx).Info("created unresolved user mapping awaiting curation",
		"username", glUser.Username)
	return nil
}

// SearchSlackUsers returns workspace users matching the query: every query
// token must appear in the user's username, real name or email,
// case-insensitively.
func (uc *UseCases) SearchSlackUsers(ctx context.Context, query string) ([]*slack.User, error) {
	tokens := strings.Fields(strings.ToLower(query))
	if len(tokens) == 0 {
		return nil, goerr.New("search query is empty")
	}

	users, err := uc.slackSvc.ListUsers(ctx)
	if err != nil {
		return nil, err
	}

	var matches []*slack.User
	for _, user := range users {
		haystack := strings.ToLower(user.Name + " " + user.RealName + " " + user.Email)
		matched := true
		for _, token := range tokens {
			if !strings.Contains(haystack, token) {
				matched = false
				break
			}
		}
		if matched {
			matches = append(matches, user)
		}
	}

	return matches, nil
}
