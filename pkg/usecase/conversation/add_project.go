package conversation

import (
	"context"
	"fmt"

	"github.com/secmon-lab/mergeminder/pkg/usecase"
)

type addProjectState int

const (
	addProjectSelectingNamespace addProjectState = iota
	addProjectSelectingName
)

// addProject walks an administrator through registering a new project:
// namespace first, then project name.
type addProject struct {
	uc        *usecase.UseCases
	state     addProjectState
	namespace string
	finished  bool
}

func newAddProject(uc *usecase.UseCases) *addProject {
	return &addProject{uc: uc}
}

func (c *addProject) Start(ctx context.Context) (string, error) {
	return "Sure! Which namespace (group) is the project in?", nil
}

func (c *addProject) Receive(ctx context.Context, input string) (string, error) {
	switch c.state {
	case addProjectSelectingNamespace:
		if input == "" {
			return "I still need the namespace. Which group is the project in?", nil
		}
		c.namespace = input
		c.state = addProjectSelectingName
		return fmt.Sprintf("Got it. And the name of the project within *%s*?", c.namespace), nil

	default:
		if input == "" {
			return "I still need the project name. What is it?", nil
		}

		project, err := c.uc.AddProject(ctx, c.namespace+"/"+input)
		if err != nil {
			return "", err
		}

		c.finished = true
		return fmt.Sprintf("All set! I'm now minding *%s*.", project.FullPath()), nil
	}
}

func (c *addProject) Finished() bool {
	return c.finished
}
