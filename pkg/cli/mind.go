package cli

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/mergeminder/pkg/cli/config"
	"github.com/secmon-lab/mergeminder/pkg/usecase"
	"github.com/secmon-lab/mergeminder/pkg/utils/logging"
	"github.com/secmon-lab/mergeminder/pkg/utils/safe"
	"github.com/urfave/cli/v3"
)

// buildUseCases wires one-shot commands: repository, services and use cases
// from the shared configuration structs.
func buildUseCases(ctx context.Context, appCfg *config.AppConfig, repoCfg *config.Repository, slackCfg *config.Slack, gitlabCfg *config.GitLab) (*usecase.UseCases, func(), error) {
	if err := appCfg.Load(); err != nil {
		return nil, nil, goerr.Wrap(err, "failed to load application configuration")
	}

	repo, err := repoCfg.Configure(ctx)
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to initialize repository")
	}

	closer := func() {
		safe.Close(ctx, repo)
	}

	gitlabSvc, err := gitlabCfg.Configure()
	if err != nil {
		closer()
		return nil, nil, err
	}

	slackSvc, err := slackCfg.Configure()
	if err != nil {
		closer()
		return nil, nil, err
	}

	uc := usecase.New(repo, gitlabSvc, slackSvc,
		usecase.WithChannel(slackCfg.Channel()),
		usecase.WithNotifyUsers(slackCfg.NotifyUsers()),
		usecase.WithEmailDomains(appCfg.Minder.EmailDomains),
		usecase.WithIgnoredLabels(appCfg.Minder.IgnoredLabels),
		usecase.WithAdminEmails(appCfg.Minder.AdminEmails),
	)

	return uc, closer, nil
}

func cmdMind() *cli.Command {
	var appCfg config.AppConfig
	var repoCfg config.Repository
	var slackCfg config.Slack
	var gitlabCfg config.GitLab

	var flags []cli.Flag
	flags = append(flags, appCfg.Flags()...)
	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, slackCfg.Flags()...)
	flags = append(flags, gitlabCfg.Flags()...)

	return &cli.Command{
		Name:  "mind",
		Usage: "Run one minding cycle over all tracked projects and exit",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			uc, closer, err := buildUseCases(ctx, &appCfg, &repoCfg, &slackCfg, &gitlabCfg)
			if err != nil {
				return err
			}
			defer closer()

			return uc.MindAll(ctx)
		},
	}
}

func cmdPurge() *cli.Command {
	var appCfg config.AppConfig
	var repoCfg config.Repository
	var slackCfg config.Slack
	var gitlabCfg config.GitLab

	var flags []cli.Flag
	flags = append(flags, appCfg.Flags()...)
	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, slackCfg.Flags()...)
	flags = append(flags, gitlabCfg.Flags()...)

	return &cli.Command{
		Name:  "purge",
		Usage: "Remove state for merged and closed merge requests and exit",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			uc, closer, err := buildUseCases(ctx, &appCfg, &repoCfg, &slackCfg, &gitlabCfg)
			if err != nil {
				return err
			}
			defer closer()

			purged, err := uc.Purge(ctx)
			if err != nil {
				return err
			}

			logging.Default().Info("purge complete", "purged", purged)
			return nil
		},
	}
}
