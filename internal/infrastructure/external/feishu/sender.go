package feishu

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/hackathonweekly/checkin-hub/internal/application"
)

var _ application.MessageSender = (*Client)(nil)

// Send implements application.MessageSender by posting a text message to
// the given chat.
func (c *Client) Send(ctx context.Context, chatID, text string) error {
	content, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return fmt.Errorf("%w: encode content: %v", ErrAPI, err)
	}

	body, err := json.Marshal(sendMessageRequest{
		ReceiveID: chatID,
		MsgType:   "text",
		Content:   string(content),
	})
	if err != nil {
		return fmt.Errorf("%w: encode request: %v", ErrAPI, err)
	}

	var resp apiResponse
	path := "/open-apis/im/v1/messages?receive_id_type=chat_id"
	if err := c.doJSON(ctx, http.MethodPost, path, body, &resp); err != nil {
		return err
	}
	if resp.Code != 0 {
		return fmt.Errorf("%w: send message: %s (code %d)", ErrAPI, resp.Msg, resp.Code)
	}

	c.logger.Debug("message sent", slog.String("chat_id", chatID))

	return nil
}
