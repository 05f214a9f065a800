// Copyright (c) 2025 Quillworks.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

// Document store keys and collections
const (
	KeyCurrentPrompt = "current_prompt"
	KeyPollPrompts   = "poll_prompts"
	KeyPlotIdeas     = "prompts/plot_ideas"
	KeyTwistIdeas    = "prompts/twist_ideas"
	KeyUserInputs    = "prompts/user_inputs"

	HistoryCollection = "challenge_history"
)

// MaxPromptLen caps both round prompts and user submissions.
const MaxPromptLen = 150

// Embed colors
const (
	ColorDarkPurple = 0x71368A
	ColorGreyple    = 0x99AAB5
	ColorRed        = 0xED4245
)

// PromptRecord is the single current_prompt slot. A persisted slot means the
// challenge is active.
type PromptRecord struct {
	Text string `json:"text"`
}

// PollRecord is the persisted three-candidate poll awaiting resolution.
// MessageID points into the chat platform's reaction store; votes are never
// tallied locally.
type PollRecord struct {
	Candidates [3]string `json:"candidates"`
	ChannelID  string    `json:"channel_id"`
	MessageID  string    `json:"message_id"`
}

// IdeaPoolRecord holds one curated idea pool, populated out-of-band.
type IdeaPoolRecord struct {
	Ideas []string `json:"ideas"`
}

// UserInputsRecord collects user-submitted prompt ideas. Appends use
// union-of-set semantics, so Inputs never holds duplicates.
type UserInputsRecord struct {
	Inputs []string `json:"inputs"`
}

// HistoryRecord is one completed round. Append-only, never mutated.
type HistoryRecord struct {
	EndDate      string   `json:"end_date"` // UTC calendar date, YYYY-MM-DD
	Prompt       string   `json:"prompt"`
	Participants []string `json:"participants"`
}

// Message is a platform-neutral announcement payload. The discord package
// renders it as an embed.
type Message struct {
	Title       string
	Description string
	Fields      []string
	Color       int
}

// Mention renders a user ref in the chat platform's mention syntax.
func Mention(userID string) string {
	return "<@" + userID + ">"
}
