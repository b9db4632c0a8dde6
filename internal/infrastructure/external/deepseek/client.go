// Package deepseek implements the narrative feedback generator on top of
// the DeepSeek chat-completions API.
package deepseek

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/hackathonweekly/checkin-hub/internal/application"
	"github.com/hackathonweekly/checkin-hub/pkg/circuitbreaker"
)

// ErrGeneration indicates the API call failed or returned no content.
var ErrGeneration = errors.New("deepseek: generation failed")

// ══════════════════════════════════════════════════════════════════════════════
// WIRE TYPES
// ══════════════════════════════════════════════════════════════════════════════

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// ══════════════════════════════════════════════════════════════════════════════
// CLIENT
// ══════════════════════════════════════════════════════════════════════════════

// ClientConfig contains configuration for the DeepSeek client.
type ClientConfig struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
	Logger  *slog.Logger
}

// Client generates narrative feedback. It satisfies
// application.FeedbackGenerator.
type Client struct {
	config     ClientConfig
	httpClient *http.Client
	logger     *slog.Logger
	breaker    *circuitbreaker.Breaker
}

var _ application.FeedbackGenerator = (*Client)(nil)

// NewClient creates a new DeepSeek client.
func NewClient(config ClientConfig) *Client {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.Model == "" {
		config.Model = "deepseek-chat"
	}
	if config.BaseURL == "" {
		config.BaseURL = "https://api.deepseek.com"
	}

	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		logger:     config.Logger,
		breaker:    circuitbreaker.New(circuitbreaker.DefaultConfig("deepseek")),
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// FeedbackGenerator
// ──────────────────────────────────────────────────────────────────────────────

const feedbackSystemPrompt = "你是一个超级活泼可爱的AI助手，善于分析用户的学习进展并给出鼓励。" +
	"你的回复要既体现对用户目标和历史的关注，又保持轻松愉快的语气。"

const replySystemPrompt = "你是一个热情友好的飞书助手，喜欢用活泼的语气回答问题，" +
	"善于理解用户真实需求并给予有价值的回应。"

// Generate implements application.FeedbackGenerator.
func (c *Client) Generate(ctx context.Context, fc application.FeedbackContext) (string, error) {
	return c.complete(ctx, feedbackSystemPrompt, buildPrompt(fc), 100)
}

// Reply implements application.FeedbackGenerator.
func (c *Client) Reply(ctx context.Context, text string) (string, error) {
	prompt := fmt.Sprintf(`用户在群里@了机器人，并发送了以下消息:
"%s"

请生成一个热情、有帮助性且不敷衍的回复。回复应该:
1. 语气友好活泼
2. 内容具体有深度，不泛泛而谈
3. 表达对用户问题的理解
4. 适当使用emoji增加亲和力
5. 整体控制在100字以内`, text)

	return c.complete(ctx, replySystemPrompt, prompt, 200)
}

// buildPrompt assembles the mode-specific prompt from the feedback context.
func buildPrompt(fc application.FeedbackContext) string {
	var history strings.Builder
	for i, h := range fc.History {
		fmt.Fprintf(&history, "第%d次打卡内容：%s\n", i+1, h)
	}

	head := fmt.Sprintf(`用户 %s 的学习情况：

【报名目标】
%s

【历史打卡记录】
%s
【最新打卡】（第%d次）
%s

`, fc.Nickname, fc.Goals, history.String(), fc.Index, fc.Content)

	switch fc.Mode {
	case application.ModeRanking:
		return head + `请生成一个简洁的项目进度总结（20字左右），要求：
1. 清晰说明用户目标的完成程度（已完成XX%/部分完成/刚起步）
2. 提及一项具体的进展或成就
3. 语气客观、中立
4. 不要包含鼓励性语言，纯粹描述事实
5. 不超过25个字`
	case application.ModeFinal:
		return head + `请生成一个简短的总结（20-30字），要求：
1. 首先说明用户具体的目标内容
2. 然后说明该目标的完成程度（已完成/部分完成/刚起步）
3. 结合打卡内容，具体说明在目标上取得了什么进展
4. 加入1个emoji表情点缀
5. 语气要积极但实事求是`
	default:
		return head + `请根据以上信息生成一段专业且积极的打卡反馈（50字左右），要求：
1. 结合用户目标和本次打卡内容，具体指出本次进步或成果，给予真诚的肯定和夸奖。
2. 参考历史打卡，体现连续性和成长，但不要出现"第一次打卡""历史打卡为空"等字眼。
3. 语气积极、认可成长，避免哄小孩式表达。
4. 结尾可鼓励继续坚持目标和提升。
5. 不要使用"你很棒""加油哦"这类简单口头禅，要有内容、有针对性。
6. 可适当加入一个专业相关emoji。`
	}
}

// complete performs one chat-completion call under the circuit breaker.
func (c *Client) complete(ctx context.Context, system, prompt string, maxTokens int) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: c.config.Model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: prompt},
		},
		Temperature: 0.8,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("%w: encode request: %v", ErrGeneration, err)
	}

	var content string
	err = c.breaker.Execute(ctx, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost,
			c.config.BaseURL+"/v1/chat/completions", bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("%w: %v", ErrGeneration, err)
		}
		req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrGeneration, err)
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("%w: read response: %v", ErrGeneration, err)
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("%w: status %d", ErrGeneration, resp.StatusCode)
		}

		var chat chatResponse
		if err := json.Unmarshal(data, &chat); err != nil {
			return fmt.Errorf("%w: decode response: %v", ErrGeneration, err)
		}
		if chat.Error != nil {
			return fmt.Errorf("%w: %s", ErrGeneration, chat.Error.Message)
		}
		if len(chat.Choices) == 0 {
			return fmt.Errorf("%w: empty choices", ErrGeneration)
		}

		content = strings.TrimSpace(chat.Choices[0].Message.Content)
		return nil
	})
	if err != nil {
		return "", err
	}

	c.logger.Debug("completion generated", slog.Int("chars", len(content)))

	return content, nil
}
