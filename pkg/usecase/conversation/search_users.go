package conversation

import (
	"context"
	"fmt"
	"strings"

	"github.com/secmon-lab/mergeminder/pkg/usecase"
)

// searchUsers is a single-prompt dialogue that looks up Slack users by name.
type searchUsers struct {
	uc       *usecase.UseCases
	finished bool
}

func newSearchUsers(uc *usecase.UseCases) *searchUsers {
	return &searchUsers{uc: uc}
}

func (c *searchUsers) Start(ctx context.Context) (string, error) {
	return "Who should I look for? Give me part of a name.", nil
}

func (c *searchUsers) Receive(ctx context.Context, input string) (string, error) {
	if strings.TrimSpace(input) == "" {
		return "I need something to search for. Part of a name will do.", nil
	}

	matches, err := c.uc.SearchSlackUsers(ctx, input)
	if err != nil {
		return "", err
	}

	c.finished = true

	if len(matches) == 0 {
		return fmt.Sprintf("I couldn't find anyone matching *%s*.", input), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Here's who I found for *%s*:\n", input)
	for _, u := range matches {
		fmt.Fprintf(&b, "• %s (@%s) — ID: %s", u.RealName, u.Name, u.ID)
		if u.Email != "" {
			fmt.Fprintf(&b, ", %s", u.Email)
		}
		b.WriteString("\n")
	}

	return strings.TrimRight(b.String(), "\n"), nil
}

func (c *searchUsers) Finished() bool {
	return c.finished
}
