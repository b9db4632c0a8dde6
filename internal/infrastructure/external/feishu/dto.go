package feishu

// ══════════════════════════════════════════════════════════════════════════════
// WIRE TYPES
// Response envelopes of the Feishu open platform. Every call returns a code
// and msg; code 0 means success.
// ══════════════════════════════════════════════════════════════════════════════

// tokenResponse is the tenant access token response.
type tokenResponse struct {
	Code              int    `json:"code"`
	Msg               string `json:"msg"`
	TenantAccessToken string `json:"tenant_access_token"`
	Expire            int    `json:"expire"` // seconds
}

// apiResponse is the generic envelope of write calls.
type apiResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

// tablesResponse lists the tables of a Bitable app.
type tablesResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data struct {
		Items []struct {
			TableID string `json:"table_id"`
			Name    string `json:"name"`
		} `json:"items"`
	} `json:"data"`
}

// recordsResponse lists the rows of a Bitable table.
type recordsResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data struct {
		HasMore   bool   `json:"has_more"`
		PageToken string `json:"page_token"`
		Items     []struct {
			RecordID string                 `json:"record_id"`
			Fields   map[string]interface{} `json:"fields"`
		} `json:"items"`
	} `json:"data"`
}

// sendMessageRequest is the body of the send-message call. Content is itself
// a JSON document, serialized as a string per the platform contract.
type sendMessageRequest struct {
	ReceiveID string `json:"receive_id"`
	MsgType   string `json:"msg_type"`
	Content   string `json:"content"`
}

// ──────────────────────────────────────────────────────────────────────────────
// Sign-up sheet field names
// The roster Bitable is created from a fixed sign-up form; the column names
// below are its exact (Chinese) question titles.
// ──────────────────────────────────────────────────────────────────────────────

const (
	fieldRole         = "您想做什么角色？"
	fieldNickname     = "您的姓名/昵称"
	fieldFocusArea    = "您计划在活动中开发的项目名称"
	fieldIntroduction = "项目简介（100 字以内）"
	fieldGoals        = "预期 21 天内要达成的目标！目标会在社群中公示哦，一起加油！"
	fieldSubmittedAt  = "提交时间"
)
