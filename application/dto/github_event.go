package dto

// WebhookEvent is the envelope of one source-control webhook delivery.
// Only the fields the composition rules read are modeled; the bridge
// never writes back into the payload.
type WebhookEvent struct {
	Action            string       `json:"action"`
	PullRequest       *PullRequest `json:"pull_request,omitempty"`
	Issue             *Issue       `json:"issue,omitempty"`
	Comment           *Comment     `json:"comment,omitempty"`
	Review            *Review      `json:"review,omitempty"`
	RequestedReviewer *User        `json:"requested_reviewer,omitempty"`
	RequestedTeam     *Team        `json:"requested_team,omitempty"`
	Assignee          *User        `json:"assignee,omitempty"`
	Sender            *User        `json:"sender,omitempty"`
	Repository        *Repository  `json:"repository,omitempty"`
}

type User struct {
	Login string `json:"login"`
}

type Team struct {
	Name string `json:"name"`
}

type Repository struct {
	Name          string `json:"name"`
	FullName      string `json:"full_name"`
	Owner         User   `json:"owner"`
	DefaultBranch string `json:"default_branch"`
}

type PullRequest struct {
	Number       int    `json:"number"`
	Title        string `json:"title"`
	Body         string `json:"body"`
	HTMLURL      string `json:"html_url"`
	State        string `json:"state"`
	Merged       bool   `json:"merged"`
	ChangedFiles int    `json:"changed_files"`
	Commits      int    `json:"commits"`
	User         *User  `json:"user"`
	Head         Ref    `json:"head"`
	Base         Ref    `json:"base"`
}

type Ref struct {
	Ref string `json:"ref"`
}

type Issue struct {
	Number      int           `json:"number"`
	Title       string        `json:"title"`
	Body        string        `json:"body"`
	HTMLURL     string        `json:"html_url"`
	State       string        `json:"state"`
	User        *User         `json:"user"`
	PullRequest *IssuePullRef `json:"pull_request,omitempty"`
}

// IssuePullRef is present on issue payloads only when the issue is the
// issue-side view of a pull request.
type IssuePullRef struct {
	URL string `json:"url"`
}

type Comment struct {
	Body     string `json:"body"`
	HTMLURL  string `json:"html_url"`
	Path     string `json:"path"`
	DiffHunk string `json:"diff_hunk"`
	User     *User  `json:"user"`
}

type Review struct {
	Body    string `json:"body"`
	HTMLURL string `json:"html_url"`
	State   string `json:"state"`
	User    *User  `json:"user"`
}

// CommentOnPullRequest reports whether an issue_comment payload targets
// a pull request rather than a plain issue.
func (e *WebhookEvent) CommentOnPullRequest() bool {
	return e.Issue != nil && e.Issue.PullRequest != nil
}
