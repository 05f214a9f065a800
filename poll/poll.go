// Copyright (c) 2025 Quillworks.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package poll

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/quillworks/quill/ideas"
	"github.com/quillworks/quill/models"
	"github.com/quillworks/quill/store"
)

var (
	// ErrEmptyPool is returned when candidate synthesis is requested while
	// either idea pool is empty. Callers decide whether that aborts a
	// scheduled start or is reported to an admin.
	ErrEmptyPool = errors.New("idea pools are empty")

	// ErrMessageNotFound is returned by a Publisher when a message ref no
	// longer resolves (e.g. the poll message was deleted).
	ErrMessageNotFound = errors.New("message not found")
)

// ChoiceTokens are the reaction affordances, one per candidate, in
// candidate order.
var ChoiceTokens = [3]string{"1️⃣", "2️⃣", "3️⃣"}

// seedOffset excludes the bot's own seeding reaction from each tally.
const seedOffset = 1

// Publisher is the announcement collaborator the engine publishes through.
type Publisher interface {
	Send(channelID string, msg models.Message) (messageID string, err error)
	React(channelID, messageID, token string) error
	// ReactionCounts returns raw reaction counts per token, including the
	// bot's own seed reactions. Returns ErrMessageNotFound if the message
	// no longer resolves.
	ReactionCounts(channelID, messageID string) (map[string]int, error)
}

// Engine synthesizes prompt candidates, publishes them for voting, and
// resolves the vote into next round's prompt.
type Engine struct {
	ideas *ideas.Repository
	store *store.Store
	pub   Publisher
}

func NewEngine(repo *ideas.Repository, st *store.Store, pub Publisher) *Engine {
	return &Engine{ideas: repo, store: st, pub: pub}
}

// Synthesize draws three candidate prompts, each an independent uniform
// (plot, twist) pair. Draws are with replacement: duplicate candidates are
// allowed.
func (e *Engine) Synthesize() ([3]string, error) {
	plots := e.ideas.PlotIdeas()
	twists := e.ideas.TwistIdeas()
	if len(plots) == 0 || len(twists) == 0 {
		return [3]string{}, ErrEmptyPool
	}

	var candidates [3]string
	for i := range candidates {
		candidates[i] = plots[rand.Intn(len(plots))] + ", BUT " + twists[rand.Intn(len(twists))]
	}
	return candidates, nil
}

// Open synthesizes three candidates, publishes them as a single message with
// one reaction affordance per candidate, and persists the poll. Any stale
// poll record is overwritten, keeping at most one poll at a time.
func (e *Engine) Open(channelID string) (models.PollRecord, error) {
	candidates, err := e.Synthesize()
	if err != nil {
		return models.PollRecord{}, err
	}

	msg := models.Message{
		Title: "Vote for next week's prompt!",
		Color: models.ColorDarkPurple,
	}
	for i, c := range candidates {
		msg.Fields = append(msg.Fields, fmt.Sprintf("**%d.** %s", i+1, c))
	}

	messageID, err := e.pub.Send(channelID, msg)
	if err != nil {
		return models.PollRecord{}, fmt.Errorf("publish poll: %w", err)
	}

	for _, token := range ChoiceTokens {
		if err := e.pub.React(channelID, messageID, token); err != nil {
			slog.Warn("failed to seed poll reaction", "token", token, "error", err)
		}
	}

	rec := models.PollRecord{Candidates: candidates, ChannelID: channelID, MessageID: messageID}
	if err := e.store.Set(models.KeyPollPrompts, rec); err != nil {
		return models.PollRecord{}, fmt.Errorf("persist poll: %w", err)
	}

	slog.Info("poll opened", "channel_id", channelID, "message_id", messageID)
	return rec, nil
}

// Resolve tallies the pending poll and returns the winning candidate text,
// clearing the persisted poll. With no pending poll, or a poll whose message
// was deleted, it falls back to a freshly synthesized random candidate; the
// fallback still requires non-empty pools and propagates ErrEmptyPool.
func (e *Engine) Resolve() (string, error) {
	raw, ok, err := e.store.Get(models.KeyPollPrompts)
	if err != nil {
		return "", fmt.Errorf("load poll: %w", err)
	}
	if !ok {
		slog.Info("no pending poll, picking a random prompt")
		return e.randomPrompt()
	}

	var rec models.PollRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		slog.Error("malformed poll record, picking a random prompt", "error", err)
		e.clear()
		return e.randomPrompt()
	}

	counts, err := e.pub.ReactionCounts(rec.ChannelID, rec.MessageID)
	if errors.Is(err, ErrMessageNotFound) {
		slog.Warn("poll message gone, picking a random prompt", "message_id", rec.MessageID)
		e.clear()
		return e.randomPrompt()
	}
	if err != nil {
		return "", fmt.Errorf("read poll reactions: %w", err)
	}

	votes := tally(counts)
	winner := pickWinner(votes)
	e.clear()

	slog.Info("poll resolved",
		"votes_1", votes[0],
		"votes_2", votes[1],
		"votes_3", votes[2],
		"winner", winner,
	)
	return rec.Candidates[winner], nil
}

func (e *Engine) randomPrompt() (string, error) {
	candidates, err := e.Synthesize()
	if err != nil {
		return "", err
	}
	return candidates[0], nil
}

func (e *Engine) clear() {
	if err := e.store.Delete(models.KeyPollPrompts); err != nil {
		slog.Error("failed to clear poll record", "error", err)
	}
}

// tally converts raw reaction counts into per-candidate votes, excluding the
// bot's seed reaction. Counts are clamped at zero, never negative.
func tally(counts map[string]int) [3]int {
	var votes [3]int
	for i, token := range ChoiceTokens {
		v := counts[token] - seedOffset
		if v < 0 {
			v = 0
		}
		votes[i] = v
	}
	return votes
}

// pickWinner returns the index with the most votes. Ties, including the
// three-way tie at zero when nobody voted, are broken uniformly at random
// among the tied indices.
func pickWinner(votes [3]int) int {
	max := votes[0]
	for _, v := range votes[1:] {
		if v > max {
			max = v
		}
	}

	var tied []int
	for i, v := range votes {
		if v == max {
			tied = append(tied, i)
		}
	}

	if len(tied) == 1 {
		return tied[0]
	}
	return tied[rand.Intn(len(tied))]
}
