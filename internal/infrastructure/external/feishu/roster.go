package feishu

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hackathonweekly/checkin-hub/internal/application"
	"github.com/hackathonweekly/checkin-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// ROSTER IMPORT
// The sign-up link points at a Bitable app; the roster lives in its first
// table. Rows are fetched page by page and mapped to roster entries.
// ══════════════════════════════════════════════════════════════════════════════

const recordsPageSize = 100

var _ application.RosterClient = (*Client)(nil)

// FetchParticipants implements application.RosterClient.
func (c *Client) FetchParticipants(ctx context.Context, link string) ([]application.RosterEntry, error) {
	baseID, err := extractBaseID(link)
	if err != nil {
		return nil, err
	}

	tableID, err := c.firstTableID(ctx, baseID)
	if err != nil {
		return nil, err
	}

	var entries []application.RosterEntry
	pageToken := ""
	for {
		path := fmt.Sprintf("/open-apis/bitable/v1/apps/%s/tables/%s/records?page_size=%d",
			baseID, tableID, recordsPageSize)
		if pageToken != "" {
			path += "&page_token=" + url.QueryEscape(pageToken)
		}

		var records recordsResponse
		if err := c.doJSON(ctx, http.MethodGet, path, nil, &records); err != nil {
			return nil, err
		}
		if records.Code != 0 {
			return nil, fmt.Errorf("%w: list records: %s (code %d)", ErrAPI, records.Msg, records.Code)
		}

		for _, item := range records.Data.Items {
			entries = append(entries, mapRosterEntry(item.Fields))
		}

		if !records.Data.HasMore || records.Data.PageToken == "" {
			break
		}
		pageToken = records.Data.PageToken
	}

	c.logger.Info("roster fetched",
		slog.String("base_id", baseID),
		slog.Int("rows", len(entries)),
	)

	return entries, nil
}

// firstTableID returns the id of the Bitable app's first table.
func (c *Client) firstTableID(ctx context.Context, baseID string) (string, error) {
	var tables tablesResponse
	path := fmt.Sprintf("/open-apis/bitable/v1/apps/%s/tables", baseID)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &tables); err != nil {
		return "", err
	}
	if tables.Code != 0 {
		return "", fmt.Errorf("%w: list tables: %s (code %d)", ErrAPI, tables.Msg, tables.Code)
	}
	if len(tables.Data.Items) == 0 {
		return "", fmt.Errorf("%w: bitable %s has no tables", ErrAPI, baseID)
	}

	return tables.Data.Items[0].TableID, nil
}

// extractBaseID pulls the Bitable app token out of a share link. The token
// is the last long path segment, e.g. /base/<token> or /wiki/<token>.
func extractBaseID(link string) (string, error) {
	parsed, err := url.Parse(link)
	if err != nil {
		return "", fmt.Errorf("%w: invalid signup link: %v", ErrAPI, err)
	}

	baseID := ""
	for _, part := range strings.Split(parsed.Path, "/") {
		if len(part) > 20 {
			baseID = part
		}
	}
	if baseID == "" {
		return "", fmt.Errorf("%w: no base id in signup link %q", ErrAPI, link)
	}

	return baseID, nil
}

// mapRosterEntry converts one Bitable row into a roster entry.
func mapRosterEntry(fields map[string]interface{}) application.RosterEntry {
	return application.RosterEntry{
		Nickname:     strings.TrimSpace(fieldString(fields[fieldNickname])),
		Role:         fieldString(fields[fieldRole]),
		FocusArea:    strings.TrimSpace(fieldString(fields[fieldFocusArea])),
		Introduction: strings.TrimSpace(fieldString(fields[fieldIntroduction])),
		Goals:        strings.TrimSpace(fieldString(fields[fieldGoals])),
		SubmittedAt:  fieldTime(fields[fieldSubmittedAt]),
	}
}

// fieldString flattens a Bitable cell value. Text columns may arrive as a
// plain string, a rich-text segment list, or a multi-select string list.
func fieldString(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case []interface{}:
		var sb strings.Builder
		for _, seg := range val {
			switch s := seg.(type) {
			case string:
				sb.WriteString(s)
			case map[string]interface{}:
				if text, ok := s["text"].(string); ok {
					sb.WriteString(text)
				}
			}
		}
		return sb.String()
	default:
		return ""
	}
}

// fieldTime parses a Bitable date cell: epoch milliseconds or an ISO string.
// Unparseable values fall back to the current time so an odd row never
// blocks the whole import.
func fieldTime(v interface{}) time.Time {
	switch val := v.(type) {
	case float64:
		return time.UnixMilli(int64(val)).In(timeutil.CommunityTZ)
	case string:
		if t, err := time.Parse(time.RFC3339, val); err == nil {
			return t.In(timeutil.CommunityTZ)
		}
	}
	return timeutil.Now()
}
