package model

import (
	"github.com/secmon-lab/mergeminder/pkg/domain/types"
)

// UserMapping associates a GitLab user with a Slack identity. A row with
// neither SlackUID nor SlackEmail set is "unresolved": created automatically
// the first time resolution fails for a username, and waiting for an admin
// to curate it. GitlabUsername is unique across the table.
type UserMapping struct {
	ID             types.MappingID
	GitlabUsername string
	GitlabName     string
	SlackUID       types.SlackUserID
	SlackEmail     string
}

// Unresolved reports whether the mapping still needs manual curation.
func (x *UserMapping) Unresolved() bool {
	return x.SlackUID == "" && x.SlackEmail == ""
}
