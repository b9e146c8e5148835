package conversation

import (
	"context"
	"fmt"
	"strings"

	"github.com/secmon-lab/mergeminder/pkg/domain/model"
	"github.com/secmon-lab/mergeminder/pkg/utils/errutil"
)

// viewMappings renders the full identity mapping table in one turn.
func (m *Manager) viewMappings(ctx context.Context) string {
	mappings, err := m.uc.ListMappings(ctx)
	if err != nil {
		errutil.Handle(ctx, err, "failed to list mappings")
		return apologyReply
	}

	if len(mappings) == 0 {
		return "I haven't seen any GitLab users yet, so there's nothing to map."
	}

	var b strings.Builder
	b.WriteString("GitLab-to-Slack mappings:\n")
	for _, mapping := range mappings {
		fmt.Fprintf(&b, "• %s (%s) → ", mapping.GitlabUsername, mapping.GitlabName)
		switch {
		case mapping.SlackUID != "":
			fmt.Fprintf(&b, "<@%s>", mapping.SlackUID)
		case mapping.SlackEmail != "":
			b.WriteString(mapping.SlackEmail)
		default:
			b.WriteString("_unmapped_")
		}
		b.WriteString("\n")
	}

	return strings.TrimRight(b.String(), "\n")
}

// viewProjects renders the tracked project list, optionally filtered to one
// namespace.
func (m *Manager) viewProjects(ctx context.Context, namespace string) string {
	var projects []*model.Project
	var err error
	if namespace != "" {
		projects, err = m.uc.Repository().Project().ListByNamespace(ctx, namespace)
	} else {
		projects, err = m.uc.ListProjects(ctx)
	}
	if err != nil {
		errutil.Handle(ctx, err, "failed to list projects")
		return apologyReply
	}

	if len(projects) == 0 {
		if namespace != "" {
			return fmt.Sprintf("I'm not minding any projects in *%s*.", namespace)
		}
		return "I'm not minding any projects yet. An administrator can say `add project` to get me started."
	}

	var b strings.Builder
	b.WriteString("I'm minding these projects:\n")
	for _, p := range projects {
		fmt.Fprintf(&b, "• %s\n", p.FullPath())
	}

	return strings.TrimRight(b.String(), "\n")
}
