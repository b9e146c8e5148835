package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/secmon-lab/mergeminder/pkg/cli/config"
	httpctrl "github.com/secmon-lab/mergeminder/pkg/controller/http"
	"github.com/secmon-lab/mergeminder/pkg/service/worker"
	"github.com/secmon-lab/mergeminder/pkg/usecase"
	"github.com/secmon-lab/mergeminder/pkg/usecase/conversation"
	"github.com/secmon-lab/mergeminder/pkg/utils/logging"
	"github.com/secmon-lab/mergeminder/pkg/utils/safe"
	"github.com/urfave/cli/v3"
)

const (
	mindInterval  = 5 * time.Minute
	purgeInterval = 5 * time.Minute
)

func cmdServe() *cli.Command {
	var addr string
	var appCfg config.AppConfig
	var repoCfg config.Repository
	var slackCfg config.Slack
	var gitlabCfg config.GitLab

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "HTTP server address",
			Value:       ":8080",
			Sources:     cli.EnvVars("MERGEMINDER_ADDR"),
			Destination: &addr,
		},
	}
	flags = append(flags, appCfg.Flags()...)
	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, slackCfg.Flags()...)
	flags = append(flags, gitlabCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start the minder server with periodic minding and purging",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			if err := appCfg.Load(); err != nil {
				return goerr.Wrap(err, "failed to load application configuration")
			}

			sched, err := appCfg.ConfigureSchedule()
			if err != nil {
				return goerr.Wrap(err, "failed to configure schedule")
			}

			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer safe.Close(ctx, repo)

			gitlabSvc, err := gitlabCfg.Configure()
			if err != nil {
				return err
			}
			logging.Default().Info("GitLab service enabled", "gitlab", gitlabCfg)

			slackSvc, err := slackCfg.Configure()
			if err != nil {
				return err
			}
			logging.Default().Info("Slack service enabled", "slack", slackCfg)

			uc := usecase.New(repo, gitlabSvc, slackSvc,
				usecase.WithChannel(slackCfg.Channel()),
				usecase.WithNotifyUsers(slackCfg.NotifyUsers()),
				usecase.WithEmailDomains(appCfg.Minder.EmailDomains),
				usecase.WithIgnoredLabels(appCfg.Minder.IgnoredLabels),
				usecase.WithAdminEmails(appCfg.Minder.AdminEmails),
			)

			minderWorker := worker.NewMinderWorker(uc, sched, mindInterval)
			if err := minderWorker.Start(ctx); err != nil {
				return goerr.Wrap(err, "failed to start minder worker")
			}

			purgeWorker := worker.NewPurgeWorker(uc, sched, purgeInterval)
			if err := purgeWorker.Start(ctx); err != nil {
				return goerr.Wrap(err, "failed to start purge worker")
			}

			httpOpts := []httpctrl.Options{}
			if slackCfg.IsWebhookConfigured() {
				manager := conversation.NewManager(uc, conversation.NewSessionStore())
				httpOpts = append(httpOpts, httpctrl.WithSlackWebhook(manager, slackCfg.SigningSecret()))
				logging.Default().Info("Slack webhook handler enabled")
			} else {
				logging.Default().Info("Slack signing secret not configured, bot conversations disabled")
			}

			server := &http.Server{
				Addr:              addr,
				Handler:           httpctrl.New(uc, httpOpts...),
				ReadHeaderTimeout: 30 * time.Second,
			}

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

			errCh := make(chan error, 1)
			go func() {
				logging.Default().Info("Starting HTTP server", "addr", addr)
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- goerr.Wrap(err, "failed to start server")
				}
			}()

			select {
			case err := <-errCh:
				return err
			case sig := <-sigCh:
				logging.Default().Info("Received shutdown signal", "signal", sig)

				minderWorker.Stop()
				purgeWorker.Stop()

				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()

				if err := server.Shutdown(shutdownCtx); err != nil {
					return goerr.Wrap(err, "failed to shutdown server gracefully")
				}

				logging.Default().Info("Server shutdown completed")
				return nil
			}
		},
	}
}
