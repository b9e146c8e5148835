package model

import (
	"strconv"
	"strings"
)

// ReminderTier is one step of the escalation ladder. Hours is the elapsed
// assignment time at which the tier starts; Alert marks tiers that produce a
// user-facing message (the others exist only as dedup checkpoints, still
// recorded in the database so a later cycle does not re-send a lower tier).
type ReminderTier struct {
	Name    string
	Hours   int64
	Alert   bool
	private string
	author  string
	channel string
}

// TierNone is the sentinel "no reminder sent yet" value stored for a merge
// request that has never been notified at any tier.
const TierNone int64 = -1

const channelAnnouncement = "[*%FQPN%*] %MRLINK% has been assigned to %ASSIGNEE_NAME% (@%USERNAME%) for %HOURS% hours."

// The author reminder is intentionally absent for the initial tier: an
// author assigned to their own merge request needs no introduction.
const authorReminder = "Hey %F_NAME%.  I just wanted to let you know that your merge request %MRNAME% (%TITLE%) in [%FQPN%] is assigned" +
	" to you.  It has been assigned to you for around %HOURS% hours.  Please don't forget about it!"

// tiers is the escalation ladder in ascending threshold order. The table is
// immutable; TierForHours is the only lookup.
var tiers = []ReminderTier{
	{
		Name: "initial", Hours: 0, Alert: true,
		private: "Hey %F_NAME%!  I just wanted to let you know that you've been assigned a " +
			"merge request -- %MRNAME% (%TITLE%).  It was created by %AUTHOR_NAME% in project [%FQPN%].  Please do your best to take a look at it when you can!",
		author:  "",
		channel: channelAnnouncement,
	},
	{
		Name: "2h", Hours: 2, Alert: false,
		private: "Hey there, %F_NAME%!  I see that merge request %MRNAME% (%TITLE%) in project [%FQPN%]" +
			" has been sitting there for a couple of hours.  Please do your best to take a look at it when you can.",
		author:  authorReminder,
		channel: channelAnnouncement,
	},
	{
		Name: "4h", Hours: 4, Alert: true,
		private: "Hey there, %F_NAME%!  I see that merge request %MRNAME% (%TITLE%) in project [%FQPN%]" +
			" has been assigned to you for four hours now.  Help %AUTHOR_NAME% out and take a look when you have a chance.",
		author:  authorReminder,
		channel: channelAnnouncement,
	},
	{
		Name: "6h", Hours: 6, Alert: false,
		private: "Hey there, %F_NAME%!  I see that merge request %MRNAME% (%TITLE%) in project [%FQPN%]" +
			" has been assigned to you for six hours now.  Help %AUTHOR_NAME% out and take a look when you have a chance.",
		author:  authorReminder,
		channel: channelAnnouncement,
	},
	{
		Name: "8h", Hours: 8, Alert: true,
		private: "%F_NAME%, %F_NAME%, %F_NAME%.  I see that merge request %MRNAME% (%TITLE%) in project [%FQPN%]" +
			" has been assigned to you for eight hours now.  Help %AUTHOR_NAME% out and review it as soon as you can.",
		author:  authorReminder,
		channel: channelAnnouncement,
	},
	{
		Name: "12h", Hours: 12, Alert: true,
		private: "%F_NAME%, I see that merge request %MRNAME% (%TITLE%) in project [%FQPN%]" +
			" has been assigned to you for over twelve hours.  %AUTHOR_NAME% probably wants to get this thing closed.  Please take a look ASAP.  Thanks.",
		author:  authorReminder,
		channel: channelAnnouncement,
	},
	{
		Name: "1d", Hours: 24, Alert: true,
		private: "%F_NAME%, I see %MRNAME% (%TITLE%) in project [%FQPN%]" +
			" has been assigned to you for over a day!  They don't call me MergeMinder for nothing!  Let's get this closed.  Please take a look ASAP.  Thank you.",
		author:  authorReminder,
		channel: channelAnnouncement,
	},
	{
		Name: "2d", Hours: 48, Alert: true,
		private: "Come on, %F_NAME%!  I see that %MRNAME% (%TITLE%) in project [%FQPN%]" +
			" has been assigned to you for over two days.  Please take a look at this and resolve it ASAP.  Thanks.",
		author:  authorReminder,
		channel: channelAnnouncement,
	},
}

// TierForHours returns the highest tier whose threshold has been reached.
// Every non-negative input maps to exactly one tier; anything past 48h stays
// at the terminal tier. Unknown elapsed time (negative) maps to the initial
// tier.
func TierForHours(hours int64) ReminderTier {
	for i := len(tiers) - 1; i > 0; i-- {
		if hours >= tiers[i].Hours {
			return tiers[i]
		}
	}
	return tiers[0]
}

// Tiers returns a copy of the escalation ladder in ascending order.
func Tiers() []ReminderTier {
	out := make([]ReminderTier, len(tiers))
	copy(out, tiers)
	return out
}

// TemplateParams carries the values substituted into reminder templates.
type TemplateParams struct {
	AssigneeFirstName string
	AssigneeName      string
	AssigneeUsername  string
	AuthorName        string
	MRName            string // e.g. "MR!42"
	MRLink            string // Slack-hyperlinked MR reference
	Title             string // first line only
	Project           string // fully qualified "namespace/name"
	Hours             int64
}

// render performs single-pass placeholder substitution. strings.Replacer
// never re-scans replaced text, so a filled value containing a placeholder
// token cannot trigger recursive substitution.
func render(template string, p TemplateParams) string {
	if template == "" {
		return ""
	}
	return strings.NewReplacer(
		"%ASSIGNEE_NAME%", p.AssigneeName,
		"%AUTHOR_NAME%", p.AuthorName,
		"%USERNAME%", p.AssigneeUsername,
		"%F_NAME%", p.AssigneeFirstName,
		"%MRNAME%", p.MRName,
		"%MRLINK%", p.MRLink,
		"%TITLE%", p.Title,
		"%FQPN%", p.Project,
		"%HOURS%", formatHours(p.Hours),
	).Replace(template)
}

// PrivateMessage renders the direct reminder for an assignee who is not the
// author of the merge request.
func (t ReminderTier) PrivateMessage(p TemplateParams) string {
	return render(t.private, p)
}

// AuthorMessage renders the direct reminder for an assignee who is also the
// author. It returns an empty string at the initial tier.
func (t ReminderTier) AuthorMessage(p TemplateParams) string {
	return render(t.author, p)
}

// ChannelMessage renders the public channel announcement.
func (t ReminderTier) ChannelMessage(p TemplateParams) string {
	return render(t.channel, p)
}

func formatHours(h int64) string {
	if h < 0 {
		h = 0
	}
	return strconv.FormatInt(h, 10)
}
