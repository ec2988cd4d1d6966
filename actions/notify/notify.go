// Package notify relays newly created issue comments to a Discord channel.
package notify

import (
	"context"
	"fmt"

	"bitbucket.org/creachadair/stringset"
	"github.com/google/go-github/github"
	"github.com/mtraver/gaelog"
	"github.com/octo/ghdiscord/discord"
	"github.com/octo/ghdiscord/event"
)

// TriggerOn holds the issue comment actions that are relayed.
var TriggerOn = stringset.New("created")

func init() {
	event.IssueCommentHandler("notify", handler)
}

func handler(ctx context.Context, e *github.IssueCommentEvent) error {
	if !TriggerOn.Contains(e.GetAction()) {
		gaelog.Debugf(ctx, "notify: ignoring issue comment action %q", e.GetAction())
		return nil
	}

	if e.Comment == nil || e.Issue == nil {
		gaelog.Warningf(ctx, "notify: issue comment event without comment or issue, not relaying")
		return nil
	}

	c, err := discord.New(ctx)
	if err != nil {
		return err
	}

	msg := discord.Message{
		Content: formatMessage(e),
	}
	if err := c.Send(ctx, msg); err != nil {
		recordFailed(ctx)
		return err
	}

	recordSent(ctx)
	gaelog.Infof(ctx, "notify: relayed comment by @%s on %q", e.GetComment().GetUser().GetLogin(), e.GetIssue().GetTitle())
	return nil
}

func formatMessage(e *github.IssueCommentEvent) string {
	return fmt.Sprintf("💬 **%s** commented on [%s](%s):\n> %s",
		e.GetComment().GetUser().GetLogin(),
		e.GetIssue().GetTitle(),
		e.GetIssue().GetHTMLURL(),
		e.GetComment().GetBody())
}
