package event

import "fmt"

// Kind identifies which composition rule handles an incoming event.
type Kind int

const (
	KindUnknown Kind = iota
	KindReviewRequested
	KindPullRequest
	KindPullRequestComment
	KindIssueComment
	KindIssue
	KindReview
	KindReviewComment
)

func (k Kind) String() string {
	switch k {
	case KindReviewRequested:
		return "review_requested"
	case KindPullRequest:
		return "pull_request"
	case KindPullRequestComment:
		return "pull_request_comment"
	case KindIssueComment:
		return "issue_comment"
	case KindIssue:
		return "issue"
	case KindReview:
		return "review"
	case KindReviewComment:
		return "review_comment"
	}
	return "unknown"
}

// Source event names and actions this bridge understands.
const (
	NamePullRequest   = "pull_request"
	NameIssueComment  = "issue_comment"
	NameIssues        = "issues"
	NameReview        = "pull_request_review"
	NameReviewComment = "pull_request_review_comment"

	ActionReviewRequested = "review_requested"
)

// Route selects the composer for an incoming event. The explicit
// review_requested action wins over the event name. issue_comment
// events split on whether the commented subject carries pull-request
// fields: GitHub delivers comments on pull requests as issue_comment
// with a pull_request stub inside the issue.
func Route(eventName, action string, commentOnPullRequest bool) (Kind, error) {
	if action == ActionReviewRequested {
		return KindReviewRequested, nil
	}

	switch eventName {
	case NamePullRequest:
		return KindPullRequest, nil
	case NameIssueComment:
		if commentOnPullRequest {
			return KindPullRequestComment, nil
		}
		return KindIssueComment, nil
	case NameIssues:
		return KindIssue, nil
	case NameReview:
		return KindReview, nil
	case NameReviewComment:
		return KindReviewComment, nil
	}

	return KindUnknown, fmt.Errorf("%w: event=%q action=%q", ErrUnroutable, eventName, action)
}
