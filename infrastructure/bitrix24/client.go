package bitrix24

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/VictoriaMetrics/metrics"

	"github.com/aeokiss/github-bitrix24-bridge/domain/message"
	"github.com/aeokiss/github-bitrix24-bridge/pkg/logger"
)

const (
	chatPage   = "im.message.add.json"
	notifyPage = "im.notify.personal.add.json"

	defaultBotName = "Github Mention To Bitrix24"
)

var (
	b24MessageOK  = metrics.NewCounter(`bitrix24_api_calls_total{operation="message_add",status="ok"}`)
	b24MessageErr = metrics.NewCounter(`bitrix24_api_calls_total{operation="message_add",status="error"}`)
	b24MessageDur = metrics.NewHistogram(`bitrix24_api_duration_seconds{operation="message_add"}`)

	b24NotifyOK  = metrics.NewCounter(`bitrix24_api_calls_total{operation="notify_personal_add",status="ok"}`)
	b24NotifyErr = metrics.NewCounter(`bitrix24_api_calls_total{operation="notify_personal_add",status="error"}`)
	b24NotifyDur = metrics.NewHistogram(`bitrix24_api_duration_seconds{operation="notify_personal_add"}`)
)

// Client posts composed messages through a Bitrix24 inbound webhook.
type Client struct {
	webhookURL string
	chatID     string
	botName    string
	httpClient *http.Client
	logger     *slog.Logger
	now        func() time.Time
}

func NewClient(webhookURL, chatID, botName string, logger *slog.Logger) *Client {
	if botName == "" {
		botName = defaultBotName
	}
	return &Client{
		webhookURL: strings.TrimRight(webhookURL, "/"),
		chatID:     chatID,
		botName:    botName,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		logger: logger,
		now:    time.Now,
	}
}

// Send posts the shared-channel message, always, then issues one
// personal notification per distinct target id, sequentially and in
// first-seen order. A transport failure aborts the remaining
// notifications; the channel post, once delivered, stays delivered.
func (c *Client) Send(ctx context.Context, msg *message.Composed) error {
	if err := c.postToChat(ctx, msg.Body); err != nil {
		return err
	}

	seen := make(map[int]struct{}, len(msg.NotifyUserIDs))
	for _, userID := range msg.NotifyUserIDs {
		if _, dup := seen[userID]; dup {
			continue
		}
		seen[userID] = struct{}{}
		if err := c.notifyPersonal(ctx, userID, msg.NotifyText); err != nil {
			return fmt.Errorf("notify user %d: %w", userID, err)
		}
	}

	return nil
}

func (c *Client) postToChat(ctx context.Context, body string) error {
	params := url.Values{}
	params.Set("CHAT_ID", c.chatID)
	params.Set("URL_PREVIEW", "N")
	params.Set("MESSAGE", "[B]"+c.botName+"[/B]\n"+body)

	if err := c.get(ctx, chatPage, params, b24MessageDur); err != nil {
		b24MessageErr.Inc()
		return fmt.Errorf("bitrix24 message add: %w", err)
	}
	b24MessageOK.Inc()
	return nil
}

func (c *Client) notifyPersonal(ctx context.Context, userID int, text string) error {
	// A fresh tag per call keeps Bitrix24 from collapsing repeated
	// notifications for the same user.
	tag := "GITHUB" + strconv.FormatInt(c.now().UnixMilli(), 10)

	params := url.Values{}
	params.Set("USER_ID", strconv.Itoa(userID))
	params.Set("TAG", tag)
	params.Set("MESSAGE", text+"\n[CHAT="+c.chatID+"]Go to Chat[/CHAT]")

	if err := c.get(ctx, notifyPage, params, b24NotifyDur); err != nil {
		b24NotifyErr.Inc()
		return fmt.Errorf("bitrix24 notify personal add: %w", err)
	}
	b24NotifyOK.Inc()
	return nil
}

func (c *Client) get(ctx context.Context, page string, params url.Values, dur *metrics.Histogram) error {
	start := time.Now()
	reqURL := c.webhookURL + "/" + page + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		duration := time.Since(start).Milliseconds()
		c.logger.Error("Bitrix24 call failed",
			logger.ExternalFieldsWithError("bitrix24", c.webhookURL+"/"+page, "GET", 0, duration, err.Error()),
		)
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	duration := time.Since(start).Milliseconds()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.logger.Error("Bitrix24 call non-200",
			logger.ExternalFieldsWithError("bitrix24", c.webhookURL+"/"+page, "GET", resp.StatusCode, duration, string(respBody)),
		)
		return fmt.Errorf("status %d, body: %s", resp.StatusCode, respBody)
	}

	c.logger.Debug("Bitrix24 call completed",
		logger.ExternalFields("bitrix24", c.webhookURL+"/"+page, "GET", resp.StatusCode, duration),
	)
	dur.Update(float64(duration) / 1000)

	return nil
}
