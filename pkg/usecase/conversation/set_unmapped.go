package conversation

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/secmon-lab/mergeminder/pkg/domain/model"
	"github.com/secmon-lab/mergeminder/pkg/usecase"
)

type setUnmappedState int

const (
	setUnmappedSelectingRow setUnmappedState = iota
	setUnmappedInputtingValue
)

// setUnmapped walks an administrator through curating one unresolved identity
// mapping: pick a row by number, then supply the Slack email or user ID.
type setUnmapped struct {
	uc         *usecase.UseCases
	state      setUnmappedState
	candidates []*model.UserMapping
	selected   *model.UserMapping
	finished   bool
}

func newSetUnmapped(uc *usecase.UseCases) *setUnmapped {
	return &setUnmapped{uc: uc}
}

func (c *setUnmapped) Start(ctx context.Context) (string, error) {
	unresolved, err := c.uc.ListUnresolvedMappings(ctx)
	if err != nil {
		return "", err
	}

	if len(unresolved) == 0 {
		c.finished = true
		return "Good news: every GitLab user I've seen is already mapped.", nil
	}

	c.candidates = unresolved

	var b strings.Builder
	b.WriteString("These GitLab users still need a Slack identity:\n")
	for i, m := range unresolved {
		fmt.Fprintf(&b, "%d. %s (%s)\n", i+1, m.GitlabUsername, m.GitlabName)
	}
	fmt.Fprintf(&b, "Which one should we map? Reply with a number between 1 and %d.", len(unresolved))

	return b.String(), nil
}

func (c *setUnmapped) Receive(ctx context.Context, input string) (string, error) {
	switch c.state {
	case setUnmappedSelectingRow:
		n, err := strconv.Atoi(strings.TrimSpace(input))
		if err != nil || n < 1 || n > len(c.candidates) {
			return fmt.Sprintf("Please reply with a number between 1 and %d, or `exit` to cancel.", len(c.candidates)), nil
		}

		c.selected = c.candidates[n-1]
		c.state = setUnmappedInputtingValue
		return fmt.Sprintf("OK, mapping *%s* (%s). Reply with their Slack email address or member ID.",
			c.selected.GitlabUsername, c.selected.GitlabName), nil

	default:
		// validate before mutating so bad input re-prompts instead of aborting
		if _, _, err := usecase.ParseMappingValue(input); err != nil {
			return "That doesn't look like an email address or a Slack member ID. Try again, or say `exit` to cancel.", nil
		}

		mapping, err := c.uc.SetMapping(ctx, c.selected.ID, input)
		if err != nil {
			return "", err
		}

		c.finished = true
		target := mapping.SlackEmail
		if mapping.SlackUID != "" {
			target = mapping.SlackUID.String()
		}
		return fmt.Sprintf("Done! *%s* is now mapped to %s.", mapping.GitlabUsername, target), nil
	}
}

func (c *setUnmapped) Finished() bool {
	return c.finished
}
