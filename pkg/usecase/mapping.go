package usecase

import (
	"context"
	"errors"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/mergeminder/pkg/domain/model"
	"github.com/secmon-lab/mergeminder/pkg/domain/types"
	"github.com/secmon-lab/mergeminder/pkg/utils/logging"
)

// ListMappings returns every GitLab-to-Slack identity mapping.
func (uc *UseCases) ListMappings(ctx context.Context) ([]*model.UserMapping, error) {
	return uc.repo.UserMapping().GetAll(ctx)
}

// ListUnresolvedMappings returns only the mappings still awaiting curation.
func (uc *UseCases) ListUnresolvedMappings(ctx context.Context) ([]*model.UserMapping, error) {
	mappings, err := uc.repo.UserMapping().GetAll(ctx)
	if err != nil {
		return nil, err
	}

	var unresolved []*model.UserMapping
	for _, m := range mappings {
		if m.Unresolved() {
			unresolved = append(unresolved, m)
		}
	}
	return unresolved, nil
}

// CreateMapping registers a mapping row for a GitLab user ahead of time,
// optionally curated immediately when value is non-empty. An existing row for
// the username is updated in place.
func (uc *UseCases) CreateMapping(ctx context.Context, username, name, value string) (*model.UserMapping, error) {
	if strings.TrimSpace(username) == "" {
		return nil, goerr.New("GitLab username is required")
	}

	mapping, err := uc.repo.UserMapping().GetByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, types.ErrNotFound) {
			return nil, goerr.Wrap(err, "failed to load mapping", goerr.V("username", username))
		}
		mapping = &model.UserMapping{
			ID:             types.NewMappingID(),
			GitlabUsername: username,
		}
	}
	if name != "" {
		mapping.GitlabName = name
	}

	if err := uc.repo.UserMapping().Save(ctx, mapping); err != nil {
		return nil, goerr.Wrap(err, "failed to save mapping", goerr.V("username", username))
	}

	if value == "" {
		return mapping, nil
	}
	return uc.SetMapping(ctx, mapping.ID, value)
}

// SetMapping curates the mapping row identified by id. The value is either a
// Slack user ID (authoritative) or an email address; exactly one is set, the
// other cleared.
func (uc *UseCases) SetMapping(ctx context.Context, id types.MappingID, value string) (*model.UserMapping, error) {
	mapping, err := uc.repo.UserMapping().GetByID(ctx, id)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load mapping", goerr.V("id", id))
	}

	uid, email, err := ParseMappingValue(value)
	if err != nil {
		return nil, err
	}

	if uid != "" {
		user, err := uc.slackSvc.GetUserByID(ctx, uid)
		if err != nil {
			return nil, err
		}
		if user == nil {
			return nil, goerr.New("no Slack user with that ID", goerr.V("slack_uid", uid))
		}
		mapping.SlackUID = uid
		mapping.SlackEmail = ""
	} else {
		mapping.SlackUID = ""
		mapping.SlackEmail = email
	}

	if err := uc.repo.UserMapping().Save(ctx, mapping); err != nil {
		return nil, goerr.Wrap(err, "failed to save mapping", goerr.V("id", id))
	}

	logging.From(ctx).Info("curated user mapping",
		"username", mapping.GitlabUsername,
		"slack_uid", mapping.SlackUID,
		"slack_email", mapping.SlackEmail,
	)

	return mapping, nil
}

// ParseMappingValue interprets admin input for a mapping: Slack wraps typed
// addresses in mailto links and user references in <@...> mentions, and a
// bare token starting with "U" is taken as a user ID.
func ParseMappingValue(value string) (types.SlackUserID, string, error) {
	v := strings.TrimSpace(value)

	// <mailto:jane@example.com|jane@example.com>
	if strings.HasPrefix(v, "<mailto:") {
		v = strings.TrimPrefix(v, "<mailto:")
		v = strings.TrimSuffix(v, ">")
		if idx := strings.Index(v, "|"); idx >= 0 {
			v = v[:idx]
		}
	}

	// <@U0123ABC>
	if strings.HasPrefix(v, "<@") && strings.HasSuffix(v, ">") {
		return types.SlackUserID(v[2 : len(v)-1]), "", nil
	}

	if strings.Contains(v, "@") {
		return "", v, nil
	}

	// Slack user IDs are uppercase; accept a lowercase paste
	if upper := strings.ToUpper(v); strings.HasPrefix(upper, "U") && len(v) > 1 {
		return types.SlackUserID(upper), "", nil
	}

	return "", "", goerr.New("value must be a Slack user ID or an email address", goerr.V("value", value))
}
