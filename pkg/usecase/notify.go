package usecase

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/mergeminder/pkg/domain/model"
	"github.com/secmon-lab/mergeminder/pkg/service/gitlab"
	"github.com/secmon-lab/mergeminder/pkg/utils/errutil"
	"github.com/secmon-lab/mergeminder/pkg/utils/logging"
)

// notifyAssignment delivers the channel announcement and the direct reminder
// for one escalation. Delivery failures are logged, never escalated: the
// state row must still be written by the caller.
func (uc *UseCases) notifyAssignment(ctx context.Context, a *gitlab.Assignment, tier model.ReminderTier, hours int64) {
	logger := logging.From(ctx)

	params := model.TemplateParams{
		AssigneeFirstName: a.Assignee.FirstName(),
		AssigneeName:      a.Assignee.Name,
		AssigneeUsername:  a.Assignee.Username,
		AuthorName:        a.Author.Name,
		MRName:            a.MRName(),
		MRLink:            a.MRLink(),
		Title:             a.TitleLine(),
		Project:           a.FullPath(),
		Hours:             hours,
	}

	logger.Info("sending reminder",
		"project", a.FullPath(),
		"mr", a.MR.IID,
		"assignee", a.Assignee.Username,
		"tier", tier.Name,
		"hours", hours,
	)

	if uc.channelName != "" {
		if err := uc.announceToChannel(ctx, tier.ChannelMessage(params)); err != nil {
			errutil.Handle(ctx, err, "failed to announce to channel")
		}
	}

	if !uc.notifyUsers {
		logger.Info("user notification is disabled, skipping direct message",
			"assignee", a.Assignee.Username)
		return
	}

	if err := uc.remindAssignee(ctx, a, tier, params); err != nil {
		errutil.Handle(ctx, err, "failed to send direct reminder")
	}
}

func (uc *UseCases) announceToChannel(ctx context.Context, text string) error {
	channelID, err := uc.slackSvc.FindChannelByName(ctx, uc.channelName)
	if err != nil {
		return err
	}
	if channelID == "" {
		return goerr.New("announcement channel not found", goerr.V("channel", uc.channelName))
	}

	return uc.slackSvc.PostChannelMessage(ctx, channelID, text)
}

func (uc *UseCases) remindAssignee(ctx context.Context, a *gitlab.Assignment, tier model.ReminderTier, params model.TemplateParams) error {
	logger := logging.From(ctx)

	slackUser, err := uc.ResolveSlackUser(ctx, a.Assignee)
	if err != nil {
		return err
	}
	if slackUser == nil {
		logger.Info("assignee has no Slack identity yet, skipping direct message",
			"username", a.Assignee.Username)
		return nil
	}

	var text string
	if a.SelfAssigned() {
		text = tier.AuthorMessage(params)
	} else {
		text = tier.PrivateMessage(params)
	}
	if text == "" {
		// the initial tier carries no author reminder
		return nil
	}

	return uc.slackSvc.PostDirectMessage(ctx, slackUser.ID, text)
}
