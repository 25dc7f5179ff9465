package github

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/VictoriaMetrics/metrics"
	"gopkg.in/yaml.v3"

	"github.com/aeokiss/github-bitrix24-bridge/domain/identity"
	"github.com/aeokiss/github-bitrix24-bridge/pkg/logger"
)

const (
	defaultBaseURL = "https://api.github.com"

	// Pinned REST API version, per GitHub's versioning guidance.
	apiVersion = "2022-11-28"
)

var (
	ghContentsOK  = metrics.NewCounter(`github_api_calls_total{operation="get_contents",status="ok"}`)
	ghContentsErr = metrics.NewCounter(`github_api_calls_total{operation="get_contents",status="error"}`)
	ghContentsDur = metrics.NewHistogram(`github_api_duration_seconds{operation="get_contents"}`)
)

// Client loads the identity-mapping configuration file from a GitHub
// repository through the contents API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewClient(baseURL, token string, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		logger: logger,
	}
}

type contentsResponse struct {
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
}

// LoadMapping fetches the mapping file at the given revision and parses
// it. The file is YAML, one entry per source login:
//
//	octocat:
//	  id: 42
//	  name: The Octocat
//
// An empty ref loads the repository's default branch.
func (c *Client) LoadMapping(ctx context.Context, owner, repo, path, ref string) (identity.Mapping, error) {
	start := time.Now()

	reqURL := fmt.Sprintf("%s/repos/%s/%s/contents/%s",
		c.baseURL, url.PathEscape(owner), url.PathEscape(repo), path)
	if ref != "" {
		reqURL += "?ref=" + url.QueryEscape(ref)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", apiVersion)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		duration := time.Since(start).Milliseconds()
		c.logger.Error("GitHub GetContents failed",
			logger.ExternalFieldsWithError("github", reqURL, "GET", 0, duration, err.Error()),
		)
		ghContentsErr.Inc()
		return nil, fmt.Errorf("github get contents: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	duration := time.Since(start).Milliseconds()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.logger.Error("GitHub GetContents non-200",
			logger.ExternalFieldsWithError("github", reqURL, "GET", resp.StatusCode, duration, string(respBody)),
		)
		ghContentsErr.Inc()
		return nil, fmt.Errorf("github get contents: status %d, body: %s", resp.StatusCode, respBody)
	}

	var contents contentsResponse
	if err := json.NewDecoder(resp.Body).Decode(&contents); err != nil {
		ghContentsErr.Inc()
		return nil, fmt.Errorf("decode contents response: %w", err)
	}

	raw, err := decodeContent(contents)
	if err != nil {
		ghContentsErr.Inc()
		return nil, err
	}

	var mapping identity.Mapping
	if err := yaml.Unmarshal(raw, &mapping); err != nil {
		ghContentsErr.Inc()
		return nil, fmt.Errorf("parse mapping file: %w", err)
	}

	c.logger.Debug("GitHub GetContents completed",
		logger.ExternalFields("github", reqURL, "GET", resp.StatusCode, duration),
	)
	ghContentsOK.Inc()
	ghContentsDur.Update(float64(duration) / 1000)

	return mapping, nil
}

func decodeContent(contents contentsResponse) ([]byte, error) {
	switch contents.Encoding {
	case "base64":
		// The API wraps base64 content with newlines.
		raw, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(contents.Content, "\n", ""))
		if err != nil {
			return nil, fmt.Errorf("decode file content: %w", err)
		}
		return raw, nil
	case "", "none":
		return []byte(contents.Content), nil
	}
	return nil, fmt.Errorf("unsupported content encoding %q", contents.Encoding)
}
