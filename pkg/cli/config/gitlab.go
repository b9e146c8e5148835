package config

import (
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/mergeminder/pkg/service/gitlab"
	"github.com/urfave/cli/v3"
)

// GitLab holds CLI flags for the GitLab integration
type GitLab struct {
	baseURL string
	token   string
}

// Flags returns CLI flags for GitLab configuration
func (x *GitLab) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "gitlab-url",
			Usage:       "GitLab base URL (empty uses gitlab.com)",
			Category:    "GitLab",
			Sources:     cli.EnvVars("MERGEMINDER_GITLAB_URL"),
			Destination: &x.baseURL,
		},
		&cli.StringFlag{
			Name:        "gitlab-token",
			Usage:       "GitLab personal access token (api scope)",
			Category:    "GitLab",
			Sources:     cli.EnvVars("MERGEMINDER_GITLAB_TOKEN"),
			Destination: &x.token,
		},
	}
}

// LogValue returns the loggable representation with the token redacted
func (x GitLab) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("url", x.baseURL),
		slog.Int("token.len", len(x.token)),
	)
}

// Configure creates the GitLab service
func (x *GitLab) Configure() (gitlab.Service, error) {
	svc, err := gitlab.New(x.baseURL, x.token)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to initialize GitLab service")
	}
	return svc, nil
}
