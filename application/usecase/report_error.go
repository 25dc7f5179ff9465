package usecase

import (
	"context"
	"log/slog"
	"net/url"
	"runtime/debug"
	"strings"

	"github.com/aeokiss/github-bitrix24-bridge/application/port"
	"github.com/aeokiss/github-bitrix24-bridge/domain/message"
	"github.com/aeokiss/github-bitrix24-bridge/pkg/logger"
)

const (
	openIssueURL = "https://github.com/aeokiss/github-bitrix24-bridge/issues/new"
	jobTitle     = "github-bitrix24-bridge"
)

// ReportErrorUseCase is the pipeline's last resort: it renders a
// failure into the diagnostic template and pushes it through the same
// dispatcher, best-effort. It never returns an error — a failure here
// must not surface to the hosting job's exit status.
type ReportErrorUseCase struct {
	bitrix24 port.Bitrix24Client
	repoSlug string
	runID    string
	logger   *slog.Logger
}

func NewReportErrorUseCase(bitrix24 port.Bitrix24Client, repoSlug, runID string, logger *slog.Logger) *ReportErrorUseCase {
	return &ReportErrorUseCase{
		bitrix24: bitrix24,
		repoSlug: repoSlug,
		runID:    runID,
		logger:   logger,
	}
}

func (uc *ReportErrorUseCase) Execute(ctx context.Context, runErr error) {
	errorsReportedCounter.Inc()

	body := BuildErrorMessage(runErr, uc.runURL())

	if err := uc.bitrix24.Send(ctx, &message.Composed{Body: body}); err != nil {
		// Swallowed: the diagnostic channel is best-effort.
		uc.logger.Error("Failed to deliver error report",
			logger.ApplicationFields("error_report_failed",
				slog.String("original_error", runErr.Error()),
				slog.String("dispatch_error", err.Error()),
			),
		)
		return
	}

	uc.logger.Info("Error report delivered",
		logger.ApplicationFields("error_reported",
			slog.String("error", runErr.Error()),
		),
	)
}

func (uc *ReportErrorUseCase) runURL() string {
	if uc.repoSlug == "" || uc.runID == "" {
		return ""
	}
	return "https://github.com/" + uc.repoSlug + "/actions/runs/" + uc.runID
}

// BuildErrorMessage renders the fixed diagnostic template: warning
// glyph, link to the triggering run when known, a pre-filled open-issue
// deep link, and the stack trace in a code block.
func BuildErrorMessage(err error, runURL string) string {
	job := jobTitle
	if runURL != "" {
		job = "[URL=" + runURL + "]" + jobTitle + "[/URL]"
	}

	trace := err.Error() + "\n\n" + strings.TrimSpace(string(debug.Stack()))
	issueBody := url.QueryEscape("[CODE]\n" + trace + "\n[/CODE]")
	issueLink := openIssueURL + "?title=" + url.QueryEscape(err.Error()) + "&body=" + issueBody

	return strings.Join([]string{
		"❗ An internal error occurred in " + job,
		"(but the job didn't fail as this notification is not critical).",
		"To solve the problem, please [URL=" + issueLink + "]open an issue[/URL]",
		"",
		"[CODE]",
		trace,
		"[/CODE]",
	}, "\n")
}
