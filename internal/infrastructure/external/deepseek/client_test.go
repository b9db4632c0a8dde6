package deepseek

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackathonweekly/checkin-hub/internal/application"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func newTestClient(baseURL string) *Client {
	return NewClient(ClientConfig{
		BaseURL: baseURL,
		APIKey:  "sk-test",
		Timeout: 2 * time.Second,
		Logger:  testLogger,
	})
}

// completionServer answers chat completions with the given content and
// captures the last request.
func completionServer(t *testing.T, content string, captured *chatRequest) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(captured))

		var resp chatResponse
		resp.Choices = make([]struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		}, 1)
		resp.Choices[0].Message.Content = content
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func TestGenerate(t *testing.T) {
	var captured chatRequest
	srv := completionServer(t, "  连续三天推进登录模块，成长很稳！🚀  ", &captured)
	defer srv.Close()

	got, err := newTestClient(srv.URL).Generate(context.Background(), application.FeedbackContext{
		Nickname: "小明",
		Goals:    "完成 MVP",
		History:  []string{"搭好了项目框架", "完成了数据库设计"},
		Content:  "实现了登录模块",
		Index:    3,
		Mode:     application.ModeNormal,
	})
	require.NoError(t, err)
	assert.Equal(t, "连续三天推进登录模块，成长很稳！🚀", got)

	assert.Equal(t, "deepseek-chat", captured.Model)
	assert.InDelta(t, 0.8, captured.Temperature, 0.001)
	assert.Equal(t, 100, captured.MaxTokens)

	require.Len(t, captured.Messages, 2)
	assert.Equal(t, "system", captured.Messages[0].Role)
	user := captured.Messages[1].Content
	assert.Contains(t, user, "小明")
	assert.Contains(t, user, "完成 MVP")
	assert.Contains(t, user, "第2次打卡内容：完成了数据库设计")
	assert.Contains(t, user, "（第3次）")
}

func TestGenerate_ModeSelectsPrompt(t *testing.T) {
	base := application.FeedbackContext{Nickname: "alice", Goals: "ship it", Content: "done", Index: 7}

	ranking := base
	ranking.Mode = application.ModeRanking
	final := base
	final.Mode = application.ModeFinal

	// The ranking prompt asks for a factual progress line, the final prompt
	// for a closing summary; the default asks for daily feedback.
	assert.Contains(t, buildPrompt(ranking), "项目进度总结")
	assert.Contains(t, buildPrompt(final), "简短的总结")
	assert.Contains(t, buildPrompt(base), "打卡反馈")
}

func TestReply(t *testing.T) {
	var captured chatRequest
	srv := completionServer(t, "好问题！建议先跑通最小流程～", &captured)
	defer srv.Close()

	got, err := newTestClient(srv.URL).Reply(context.Background(), "打卡格式是什么？")
	require.NoError(t, err)
	assert.Equal(t, "好问题！建议先跑通最小流程～", got)

	assert.Equal(t, 200, captured.MaxTokens)
	assert.Contains(t, captured.Messages[1].Content, "打卡格式是什么？")
}

func TestGenerate_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Generate(context.Background(), application.FeedbackContext{
		Nickname: "alice", Content: "done",
	})
	assert.ErrorIs(t, err, ErrGeneration)
}

func TestGenerate_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"error":{"message":"insufficient quota"}}`)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Generate(context.Background(), application.FeedbackContext{
		Nickname: "alice", Content: "done",
	})
	require.ErrorIs(t, err, ErrGeneration)
	assert.True(t, strings.Contains(err.Error(), "insufficient quota"))
}

func TestGenerate_EmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"choices":[]}`)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Generate(context.Background(), application.FeedbackContext{
		Nickname: "alice", Content: "done",
	})
	assert.ErrorIs(t, err, ErrGeneration)
}
