// Package application defines the collaborator ports shared by the command
// and query sides. The core never talks to Feishu or the text-generation
// service directly; it depends on these interfaces and degrades gracefully
// when they fail.
package application

import (
	"context"
	"time"
)

// RosterEntry is one sign-up row fetched from the external roster source.
type RosterEntry struct {
	Nickname     string
	Role         string // raw role answer; rows without the developer tag are skipped
	FocusArea    string
	Introduction string
	Goals        string
	SubmittedAt  time.Time
}

// RosterClient pulls sign-up rows from the spreadsheet-like roster source
// referenced by a period's signup link.
type RosterClient interface {
	FetchParticipants(ctx context.Context, link string) ([]RosterEntry, error)
}

// FeedbackMode selects the prompt shape for generated narratives.
type FeedbackMode string

const (
	// ModeNormal - feedback for a single fresh check-in.
	ModeNormal FeedbackMode = "normal"

	// ModeFinal - closing summary at end of period.
	ModeFinal FeedbackMode = "final-summary"

	// ModeRanking - terse progress line for leaderboard entries.
	ModeRanking FeedbackMode = "ranking-summary"
)

// FeedbackContext carries everything the generator needs to produce a
// narrative for one participant.
type FeedbackContext struct {
	Nickname string
	Goals    string   // composite goal bundle (project, introduction, goals)
	History  []string // prior check-in contents, oldest first, excluding Content
	Content  string   // the check-in being commented on
	Index    int      // 1-based check-in index of Content
	Mode     FeedbackMode
}

// FeedbackGenerator produces narrative text. Calls may block on network I/O;
// implementations must bound them with a timeout. Callers treat failure as
// non-fatal and fall back to canned text.
type FeedbackGenerator interface {
	// Generate produces a check-in/ranking/closing narrative.
	Generate(ctx context.Context, fc FeedbackContext) (string, error)

	// Reply produces a free-form answer to a mention of the bot.
	Reply(ctx context.Context, text string) (string, error)
}

// MessageSender delivers a text message to a chat channel.
type MessageSender interface {
	Send(ctx context.Context, chatID, text string) error
}
