package messagebuilder

import (
	"fmt"

	"github.com/aeokiss/github-bitrix24-bridge/application/dto"
	"github.com/aeokiss/github-bitrix24-bridge/domain/event"
	"github.com/aeokiss/github-bitrix24-bridge/domain/identity"
	"github.com/aeokiss/github-bitrix24-bridge/domain/markup"
	"github.com/aeokiss/github-bitrix24-bridge/domain/message"
)

const noDescription = "No description provided."

// Builder implements the composition rule table. All rules are pure:
// they read the payload, resolve identities against the mapping and
// return the composed message with its notification targets.
type Builder struct{}

func NewBuilder() *Builder {
	return &Builder{}
}

// PullRequest handles pull_request events: opened/edited with the
// metadata block and transcoded body, assigned/unassigned with the
// target detail line, closed split on merged, and a one-line fallback
// for every other action.
func (b *Builder) PullRequest(e *dto.WebhookEvent, m identity.Mapping) (*message.Composed, error) {
	pr := e.PullRequest
	if pr == nil || pr.User == nil || pr.User.Login == "" {
		return nil, fmt.Errorf("%w: pull request user", event.ErrMissingActor)
	}

	actor := identity.ResolveOne(m, pr.User.Login)
	title := markup.EscapeReserved(pr.Title)
	url := pr.HTMLURL

	switch e.Action {
	case "opened", "edited":
		body := pr.Body
		if body == "" {
			body = noDescription
		}
		rendered, mentioned := markup.RenderBody(body, m)
		info := markup.WrapDivider(countsLine(pr.ChangedFiles, pr.Commits))
		base := markup.EscapeReserved(pr.Base.Ref)
		head := markup.EscapeReserved(pr.Head.Ref)

		return &message.Composed{
			Body: fmt.Sprintf("%s has %s [B]PULL REQUEST[/B] into [I]%s[/I] from [I]%s[/I] [URL=%s]%s[/URL] ＃%d\n%s\n%s\n%s",
				actor.Mention(), e.Action, base, head, url, title, pr.Number, info, rendered, url),
			NotifyUserIDs: resolvedIDs(mentioned),
			NotifyText:    "[GITHUB] Mentioned you in PULL REQUEST " + url,
		}, nil

	case "assigned", "unassigned":
		target, detail, notify, err := assigneeDetail(e, m)
		if err != nil {
			return nil, err
		}
		return &message.Composed{
			Body: fmt.Sprintf("%s has %s [B]PULL REQUEST[/B] [URL=%s]%s[/URL] ＃%d\n%s\n%s",
				actor.Mention(), e.Action, url, title, pr.Number, detail, url),
			NotifyUserIDs: target,
			NotifyText:    fmt.Sprintf("[GITHUB] %s you in PULL REQUEST %s", notify, url),
		}, nil

	case "closed":
		if pr.Merged {
			info := markup.WrapDivider(countsLine(pr.ChangedFiles, pr.Commits))
			base := markup.EscapeReserved(pr.Base.Ref)
			head := markup.EscapeReserved(pr.Head.Ref)
			return &message.Composed{
				Body: fmt.Sprintf("%s has merged [B]PULL REQUEST[/B] into [I]%s[/I] from [I]%s[/I] [URL=%s]%s[/URL] ＃%d\n%s\n%s",
					actor.Mention(), base, head, url, title, pr.Number, info, url),
			}, nil
		}
		return &message.Composed{
			Body: fmt.Sprintf("%s has closed [B]PULL REQUEST[/B] with unmerged commits [URL=%s]%s[/URL] ＃%d\n%s",
				actor.Mention(), url, title, pr.Number, url),
		}, nil
	}

	return &message.Composed{
		Body: fmt.Sprintf("%s has %s [B]PULL REQUEST[/B] [URL=%s]%s[/URL] ＃%d\n%s",
			actor.Mention(), e.Action, url, title, pr.Number, url),
	}, nil
}

// ReviewRequested handles the review_requested action regardless of
// event name. The requested party, when resolved, is the notification
// target.
func (b *Builder) ReviewRequested(e *dto.WebhookEvent, m identity.Mapping) (*message.Composed, error) {
	requestedLogin := ""
	if e.RequestedReviewer != nil {
		requestedLogin = e.RequestedReviewer.Login
	}
	if requestedLogin == "" && e.RequestedTeam != nil {
		requestedLogin = e.RequestedTeam.Name
	}
	if requestedLogin == "" {
		return nil, fmt.Errorf("%w: requested reviewer", event.ErrMissingActor)
	}
	if e.Sender == nil || e.Sender.Login == "" {
		return nil, fmt.Errorf("%w: review request sender", event.ErrMissingActor)
	}
	if e.PullRequest == nil {
		return nil, fmt.Errorf("%w: pull request user", event.ErrMissingActor)
	}

	requested := identity.ResolveOne(m, requestedLogin)
	sender := identity.ResolveOne(m, e.Sender.Login)
	title := markup.EscapeReserved(e.PullRequest.Title)
	url := e.PullRequest.HTMLURL

	var targets []int
	if requested.Resolved() {
		targets = []int{requested.ID}
	}

	return &message.Composed{
		Body: fmt.Sprintf("%s has been [B]REQUESTED to REVIEW[/B] [URL=%s]%s[/URL] by %s\n%s",
			requested.Mention(), url, title, sender.Mention(), url),
		NotifyUserIDs: targets,
		NotifyText:    "[GITHUB] Requested to PULL REQUEST review by you " + url,
	}, nil
}

// Review handles pull_request_review events. An approval is a short
// line without the quoted body, notifying the pull request author; any
// other state carries the transcoded review body with no forced
// notification.
func (b *Builder) Review(e *dto.WebhookEvent, m identity.Mapping) (*message.Composed, error) {
	if e.Review == nil || e.Review.User == nil || e.Review.User.Login == "" {
		return nil, fmt.Errorf("%w: review user", event.ErrMissingActor)
	}
	pr := e.PullRequest
	if pr == nil || pr.User == nil || pr.User.Login == "" {
		return nil, fmt.Errorf("%w: pull request user", event.ErrMissingActor)
	}

	reviewer := identity.ResolveOne(m, e.Review.User.Login)
	author := identity.ResolveOne(m, pr.User.Login)
	title := markup.EscapeReserved(pr.Title)
	url := pr.HTMLURL
	reviewURL := e.Review.HTMLURL

	if e.Review.State == "approved" {
		var targets []int
		if author.Resolved() {
			targets = []int{author.ID}
		}
		return &message.Composed{
			Body: fmt.Sprintf("%s has approved [B]PULL REQUEST[/B] [URL=%s]%s[/URL], which created by %s\n%s",
				reviewer.Mention(), url, title, author.Mention(), reviewURL),
			NotifyUserIDs: targets,
			NotifyText:    "[GITHUB] Approved PULL REQUEST " + reviewURL,
		}, nil
	}

	rendered, _ := markup.RenderBody(e.Review.Body, m)
	return &message.Composed{
		Body: fmt.Sprintf("%s has %s a [B]REVIEW[/B] on %s [B]PULL REQUEST[/B] [URL=%s]%s[/URL], which created by %s\n%s\n%s",
			reviewer.Mention(), e.Action, pr.State, url, title, author.Mention(), rendered, reviewURL),
	}, nil
}

// ReviewComment handles pull_request_review_comment events. The changed
// file path and diff context go verbatim into the quoted block; the
// comment body follows unquoted. No forced notification.
func (b *Builder) ReviewComment(e *dto.WebhookEvent, m identity.Mapping) (*message.Composed, error) {
	if e.Comment == nil || e.Comment.User == nil || e.Comment.User.Login == "" {
		return nil, fmt.Errorf("%w: review comment user", event.ErrMissingActor)
	}
	pr := e.PullRequest
	if pr == nil || pr.User == nil || pr.User.Login == "" {
		return nil, fmt.Errorf("%w: pull request user", event.ErrMissingActor)
	}

	commenter := identity.ResolveOne(m, e.Comment.User.Login)
	author := identity.ResolveOne(m, pr.User.Login)
	title := markup.EscapeReserved(pr.Title)
	quote := markup.WrapDivider(e.Comment.Path + "\n" + e.Comment.DiffHunk)

	return &message.Composed{
		Body: fmt.Sprintf("%s has %s a [B]COMMENT REVIEW[/B] on %s [B]PULL REQUEST[/B] [URL=%s]%s[/URL], which created by %s\n\n%s\n%s\n%s",
			commenter.Mention(), e.Action, pr.State, pr.HTMLURL, title, author.Mention(), quote, e.Comment.Body, e.Comment.HTMLURL),
	}, nil
}

// Issue handles issues events, mirroring the pull request rule without
// the branch and counts metadata.
func (b *Builder) Issue(e *dto.WebhookEvent, m identity.Mapping) (*message.Composed, error) {
	if e.Sender == nil || e.Sender.Login == "" {
		return nil, fmt.Errorf("%w: issue user", event.ErrMissingActor)
	}
	issue := e.Issue
	if issue == nil {
		return nil, fmt.Errorf("%w: issue user", event.ErrMissingActor)
	}

	actor := identity.ResolveOne(m, e.Sender.Login)
	title := markup.EscapeReserved(issue.Title)
	url := issue.HTMLURL

	switch e.Action {
	case "opened", "edited":
		rendered, mentioned := markup.RenderBody(issue.Body, m)
		return &message.Composed{
			Body: fmt.Sprintf("%s has %s an [B]ISSUE[/B] [URL=%s]%s[/URL] ＃%d\n%s\n%s",
				actor.Mention(), e.Action, url, title, issue.Number, rendered, url),
			NotifyUserIDs: resolvedIDs(mentioned),
			NotifyText:    "[GITHUB] Mentioned you in ISSUE " + url,
		}, nil

	case "assigned", "unassigned":
		target, detail, notify, err := assigneeDetail(e, m)
		if err != nil {
			return nil, err
		}
		return &message.Composed{
			Body: fmt.Sprintf("%s has %s an [B]ISSUE[/B] [URL=%s]%s[/URL] ＃%d\n%s\n%s",
				actor.Mention(), e.Action, url, title, issue.Number, detail, url),
			NotifyUserIDs: target,
			NotifyText:    fmt.Sprintf("[GITHUB] %s you in ISSUE %s", notify, url),
		}, nil
	}

	return &message.Composed{
		Body: fmt.Sprintf("%s has %s an [B]ISSUE[/B] [URL=%s]%s[/URL] ＃%d\n%s",
			actor.Mention(), e.Action, url, title, issue.Number, url),
	}, nil
}

// IssueComment handles comments on plain issues. Mentions inside the
// comment are rewritten and become notification targets.
func (b *Builder) IssueComment(e *dto.WebhookEvent, m identity.Mapping) (*message.Composed, error) {
	return b.comment(e, m, "ISSUE")
}

// PullRequestComment handles issue_comment events whose subject is a
// pull request.
func (b *Builder) PullRequestComment(e *dto.WebhookEvent, m identity.Mapping) (*message.Composed, error) {
	return b.comment(e, m, "PULL REQUEST")
}

func (b *Builder) comment(e *dto.WebhookEvent, m identity.Mapping, subject string) (*message.Composed, error) {
	if e.Comment == nil || e.Comment.User == nil || e.Comment.User.Login == "" {
		return nil, fmt.Errorf("%w: comment user", event.ErrMissingActor)
	}
	issue := e.Issue
	if issue == nil || issue.User == nil || issue.User.Login == "" {
		return nil, fmt.Errorf("%w: issue user", event.ErrMissingActor)
	}

	commenter := identity.ResolveOne(m, e.Comment.User.Login)
	author := identity.ResolveOne(m, issue.User.Login)
	title := markup.EscapeReserved(issue.Title)
	quote, mentioned := markup.QuoteComment(e.Comment.Body, m)

	return &message.Composed{
		Body: fmt.Sprintf("%s has %s a [B]COMMENT[/B] on a %s [B]%s[/B] %s %s ＃%d\n%s\n%s",
			commenter.Mention(), e.Action, issue.State, subject, author.Mention(), title, issue.Number, quote, e.Comment.HTMLURL),
		NotifyUserIDs: resolvedIDs(mentioned),
		NotifyText:    fmt.Sprintf("[GITHUB] Mentioned you in COMMENT on %s %s", subject, e.Comment.HTMLURL),
	}, nil
}

// assigneeDetail resolves the (un)assigned target and builds the quoted
// detail line shared by the pull request and issue rules.
func assigneeDetail(e *dto.WebhookEvent, m identity.Mapping) (targets []int, detail, notify string, err error) {
	if e.Assignee == nil || e.Assignee.Login == "" {
		return nil, "", "", fmt.Errorf("%w: assignee", event.ErrMissingActor)
	}
	target := identity.ResolveOne(m, e.Assignee.Login)
	if target.Resolved() {
		targets = []int{target.ID}
	}

	verb, notify := "Added", "Assigned"
	if e.Action == "unassigned" {
		verb, notify = "Removed", "Unassigned"
	}
	return targets, markup.WrapDivider(verb + " : " + target.Mention()), notify, nil
}

// countsLine renders the changed-file and commit counts, pluralized
// above one.
func countsLine(changedFiles, commits int) string {
	files := "Changed file"
	if changedFiles > 1 {
		files = "Changed files"
	}
	commitWord := "Commit"
	if commits > 1 {
		commitWord = "Commits"
	}
	return fmt.Sprintf("%s : %d, %s : %d", files, changedFiles, commitWord, commits)
}

func resolvedIDs(ids []identity.Identity) []int {
	var out []int
	for _, id := range ids {
		if id.Resolved() {
			out = append(out, id.ID)
		}
	}
	return out
}
