package feishu

import (
	"encoding/json"
	"strings"
)

// ══════════════════════════════════════════════════════════════════════════════
// SIGNUP CARD PARSING
// The group sign-up card is a rich-text message whose body mixes tagged
// elements. Only the tags we understand are read; unknown tags are skipped
// so platform additions never break classification.
// ══════════════════════════════════════════════════════════════════════════════

// Markers the classifier looks for inside the card body. The instruction
// markers identify the explanatory sign-up paragraph; the counter marker
// identifies a roster-entry update of the same card, which must not retrigger
// the lifecycle.
const (
	markerRename    = "修改群昵称"
	markerIntro     = "自我介绍"
	markerGoal      = "本期目标"
	markerHeadcount = "人参加群接龙"
)

// cardElement is one tagged node of the card body. Tags carry different
// field sets; unused fields stay empty after unmarshalling.
type cardElement struct {
	Tag  string `json:"tag"`
	Text string `json:"text"`
	Href string `json:"href"`
}

// cardContent is the rich-text payload: a title and lines of elements.
type cardContent struct {
	Title   string          `json:"title"`
	Content [][]cardElement `json:"content"`
}

// SignupCard is the parsed classification result of a rich-text message.
type SignupCard struct {
	Title string

	// Link is the first hyperlink found in the body, the roster source.
	Link string

	// HasInstructions is true when the explanatory sign-up paragraph with
	// its rename/intro/goal markers is present.
	HasInstructions bool

	// HasHeadcount is true when the "current N participants" counter is
	// present, marking a roster-entry update rather than the initial card.
	HasHeadcount bool
}

// ParseSignupCard parses a rich-text message body. Returns false when the
// payload is not valid rich-text JSON; the caller treats that as a soft
// failure and stays silent.
func ParseSignupCard(raw []byte) (*SignupCard, bool) {
	var content cardContent
	if err := json.Unmarshal(raw, &content); err != nil {
		return nil, false
	}

	card := &SignupCard{Title: content.Title}

	var text strings.Builder
	for _, line := range content.Content {
		for _, el := range line {
			switch el.Tag {
			case "text":
				text.WriteString(el.Text)
			case "a":
				text.WriteString(el.Text)
				if card.Link == "" {
					card.Link = el.Href
				}
			}
		}
		text.WriteByte('\n')
	}

	body := text.String()
	card.HasInstructions = strings.Contains(body, markerRename) &&
		strings.Contains(body, markerIntro) &&
		strings.Contains(body, markerGoal)
	card.HasHeadcount = strings.Contains(body, markerHeadcount)

	return card, true
}

// IsOpenTrigger reports whether the card is the initial goal-setting card
// that opens a new period: matching title, sign-up instructions, a roster
// link, and no headcount counter yet.
func (c *SignupCard) IsOpenTrigger(wantTitle string) bool {
	return c.Title == wantTitle &&
		c.HasInstructions &&
		c.Link != "" &&
		!c.HasHeadcount
}
