package config

import (
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/secmon-lab/mergeminder/pkg/service/schedule"
	"github.com/urfave/cli/v3"
)

// AppConfig is the TOML application configuration: minding policy and the
// alert schedule. Everything has a sensible default, so the file is optional.
type AppConfig struct {
	path string

	Minder   MinderConfig   `toml:"minder"`
	Schedule ScheduleConfig `toml:"schedule"`
}

// MinderConfig is the minding policy section
type MinderConfig struct {
	// EmailDomains are tried when guessing an email address from a GitLab
	// display name, e.g. ["example.com"]
	EmailDomains []string `toml:"email_domains"`

	// IgnoredLabels exempt merge requests from minding (case-insensitive)
	IgnoredLabels []string `toml:"ignored_labels"`

	// AdminEmails are the Slack profile emails allowed to run mutating
	// bot conversations
	AdminEmails []string `toml:"admin_emails"`
}

// ScheduleConfig is the alert window section
type ScheduleConfig struct {
	Timezone   string `toml:"timezone"`
	BeginHour  int    `toml:"begin_hour"`
	EndHour    int    `toml:"end_hour"`
	Weekends   bool   `toml:"weekends"`
	AlwaysSend bool   `toml:"always_send"`
}

// Flags returns CLI flags for application configuration
func (x *AppConfig) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Usage:       "Path to TOML configuration file",
			Sources:     cli.EnvVars("MERGEMINDER_CONFIG"),
			Destination: &x.path,
		},
	}
}

// Load reads and validates the configuration file. Without a path the
// defaults apply: 08:00-17:00 weekday alerting in UTC, no email domains, no
// ignored labels.
func (x *AppConfig) Load() error {
	x.Schedule.BeginHour = 8
	x.Schedule.EndHour = 17

	if x.path == "" {
		return nil
	}

	data, err := os.ReadFile(x.path)
	if err != nil {
		return goerr.Wrap(err, "failed to read config file", goerr.V("path", x.path))
	}

	if err := toml.Unmarshal(data, x); err != nil {
		return goerr.Wrap(err, "failed to parse config file", goerr.V("path", x.path))
	}

	return nil
}

// ConfigureSchedule builds the alert schedule from the configuration
func (x *AppConfig) ConfigureSchedule() (*schedule.Schedule, error) {
	return schedule.New(x.Schedule.Timezone,
		schedule.WithAlertWindow(x.Schedule.BeginHour, x.Schedule.EndHour),
		schedule.WithWeekends(x.Schedule.Weekends),
		schedule.WithAlwaysSend(x.Schedule.AlwaysSend),
	)
}
