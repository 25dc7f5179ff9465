package usecase

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newReportTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestBuildErrorMessage(t *testing.T) {
	t.Run("with run url the job title links to the run", func(t *testing.T) {
		msg := BuildErrorMessage(errors.New("compose failed"), "https://github.com/acme/widgets/actions/runs/99")

		assert.Contains(t, msg, "❗ An internal error occurred in [URL=https://github.com/acme/widgets/actions/runs/99]github-bitrix24-bridge[/URL]")
		assert.Contains(t, msg, "(but the job didn't fail as this notification is not critical).")
		assert.Contains(t, msg, "open an issue")
		assert.Contains(t, msg, "[CODE]\ncompose failed")
		assert.True(t, strings.HasSuffix(msg, "[/CODE]"))
	})

	t.Run("without run url the job title stays plain", func(t *testing.T) {
		msg := BuildErrorMessage(errors.New("compose failed"), "")

		assert.Contains(t, msg, "❗ An internal error occurred in github-bitrix24-bridge\n")
		assert.NotContains(t, msg, "[URL=]")
	})

	t.Run("issue link carries the escaped error", func(t *testing.T) {
		msg := BuildErrorMessage(errors.New("bad thing & worse"), "")

		assert.Contains(t, msg, "issues/new?title="+url.QueryEscape("bad thing & worse"))
	})

	t.Run("stack trace follows the error text", func(t *testing.T) {
		msg := BuildErrorMessage(errors.New("boom"), "")

		assert.Contains(t, msg, "boom\n\ngoroutine")
	})
}

func TestReportErrorExecute(t *testing.T) {
	t.Run("delivers the rendered report", func(t *testing.T) {
		b24 := &mockBitrix24{}
		uc := NewReportErrorUseCase(b24, "acme/widgets", "12345", newReportTestLogger())

		uc.Execute(context.Background(), errors.New("pipeline broke"))

		require.Len(t, b24.sent, 1)
		assert.Contains(t, b24.sent[0].Body, "pipeline broke")
		assert.Contains(t, b24.sent[0].Body, "https://github.com/acme/widgets/actions/runs/12345")
		assert.Empty(t, b24.sent[0].NotifyUserIDs)
	})

	t.Run("missing run metadata omits the run link", func(t *testing.T) {
		b24 := &mockBitrix24{}
		uc := NewReportErrorUseCase(b24, "", "", newReportTestLogger())

		uc.Execute(context.Background(), errors.New("pipeline broke"))

		require.Len(t, b24.sent, 1)
		assert.NotContains(t, b24.sent[0].Body, "actions/runs")
	})

	t.Run("dispatch failure is swallowed", func(t *testing.T) {
		b24 := &mockBitrix24{err: errors.New("bitrix down")}
		uc := NewReportErrorUseCase(b24, "acme/widgets", "12345", newReportTestLogger())

		assert.NotPanics(t, func() {
			uc.Execute(context.Background(), errors.New("pipeline broke"))
		})
	})
}
