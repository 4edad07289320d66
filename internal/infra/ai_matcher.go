package infra

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/nrad-K/trend-crawler/internal/config"
	"github.com/nrad-K/trend-crawler/internal/domain/service"
	"github.com/nrad-K/trend-crawler/internal/logger"
	"github.com/nrad-K/trend-crawler/internal/retry"
)

const aiMatcherSystemPrompt = "あなたは求人データの分類担当です。与えられた候補の中から最も適切なものを1つだけ、候補の文字列そのままで答えてください。該当するものがなければ「なし」と答えてください。"

// AIMatcherはOpenAI互換のチャットAPIで候補を選ばせます。
type AIMatcher struct {
	endpoint   string
	model      string
	apiKey     string
	httpClient *http.Client
	policy     retry.Policy
	logger     logger.AppLogger
}

var _ service.Matcher = (*AIMatcher)(nil)

// NewAIMatcherはAIMatcherを生成します。
func NewAIMatcher(cfg config.AIConfig, apiKey string, logger logger.AppLogger) *AIMatcher {
	return &AIMatcher{
		endpoint: cfg.Endpoint,
		model:    cfg.Model,
		apiKey:   apiKey,
		httpClient: &http.Client{
			Timeout: config.Duration(cfg.TimeoutSeconds),
		},
		policy: retry.Policy{
			MaxAttempts: 3,
			BaseDelay:   time.Second,
			Backoff:     retry.Linear,
		},
		logger: logger,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// BestMatchはoptionsの中からtextに最も近い候補を返します。
// 回答が候補に含まれない場合は空文字です。
func (m *AIMatcher) BestMatch(ctx context.Context, text string, options []string, hint string) (string, error) {
	if m == nil {
		return "", fmt.Errorf("ai matcher is nil")
	}
	if m.apiKey == "" || m.endpoint == "" || m.model == "" {
		return "", fmt.Errorf("ai matcher misconfigured")
	}
	if strings.TrimSpace(text) == "" || len(options) == 0 {
		return "", nil
	}

	body, err := json.Marshal(chatRequest{
		Model: m.model,
		Messages: []chatMessage{
			{Role: "system", Content: aiMatcherSystemPrompt},
			{Role: "user", Content: buildMatchPrompt(text, options, hint)},
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal ai payload: %w", err)
	}

	var answer string
	policy := m.policy
	policy.OnRetry = func(attempt int, err error) {
		m.logger.Warn("AIへの問い合わせを再試行します", "attempt", attempt, "error", err)
	}
	err = retry.Do(ctx, policy, func(ctx context.Context, _ int) error {
		a, err := m.send(ctx, body)
		if err != nil {
			return err
		}
		answer = a
		return nil
	})
	if err != nil {
		return "", err
	}

	return pickOption(answer, options), nil
}

func (m *AIMatcher) send(ctx context.Context, body []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", retry.Permanent(fmt.Errorf("new request: %w", err))
	}
	req.Header.Set("Authorization", "Bearer "+m.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("send ai request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		err := fmt.Errorf("ai error %s: %s", resp.Status, strings.TrimSpace(string(payload)))
		// 認証や入力の誤りは再試行しても変わらない
		if resp.StatusCode < http.StatusInternalServerError && resp.StatusCode != http.StatusTooManyRequests {
			return "", retry.Permanent(err)
		}
		return "", err
	}

	var decoded chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", retry.Permanent(fmt.Errorf("decode ai response: %w", err))
	}
	if len(decoded.Choices) == 0 {
		return "", nil
	}
	return decoded.Choices[0].Message.Content, nil
}

func buildMatchPrompt(text string, options []string, hint string) string {
	var b strings.Builder
	if hint != "" {
		b.WriteString(hint)
		b.WriteString("\n\n")
	}
	b.WriteString("入力: ")
	b.WriteString(text)
	b.WriteString("\n\n候補:\n")
	for _, o := range options {
		b.WriteString("- ")
		b.WriteString(o)
		b.WriteString("\n")
	}
	return b.String()
}

// pickOptionはAIの回答を候補と照合します。引用符や箇条書き記号は取り除きます。
func pickOption(answer string, options []string) string {
	a := strings.TrimSpace(answer)
	a = strings.TrimLeft(a, "-・* ")
	a = strings.Trim(a, "\"'「」`")
	a = strings.TrimSpace(a)
	if a == "" {
		return ""
	}
	for _, o := range options {
		if a == o {
			return o
		}
	}
	for _, o := range options {
		if strings.EqualFold(service.NormalizeText(a), service.NormalizeText(o)) {
			return o
		}
	}
	return ""
}
