// Copyright (c) 2025 Quillworks.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package challenge

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/quillworks/quill/models"
	"github.com/quillworks/quill/poll"
	"github.com/quillworks/quill/schedule"
	"github.com/quillworks/quill/store"
)

// ErrGuildNotConfigured is returned when an operation targets a guild whose
// challenge channel or participant role does not resolve.
var ErrGuildNotConfigured = errors.New("guild has no challenge channel or role")

// Guild is one community the bot serves, with its challenge channel and
// participant role already resolved.
type Guild struct {
	ID        string
	ChannelID string
	RoleID    string
}

// Gateway is the chat-platform collaborator the lifecycle drives. Roster
// membership lives entirely on the platform side (a role); the lifecycle
// only adds, removes and enumerates members through it.
type Gateway interface {
	// Guilds lists guilds where both the challenge channel and the
	// participant role resolve. Guilds missing either are omitted, not
	// errors.
	Guilds() []Guild
	// Members returns the roster of g as user refs, oldest join first.
	Members(g Guild) ([]string, error)
	HasMember(g Guild, userID string) (bool, error)
	AddMember(g Guild, userID string) error
	RemoveMember(g Guild, userID string) error
	Announce(channelID string, msg models.Message) error
}

// Operation results. Double transitions are informational no-ops, not
// errors.
type (
	StartResult int
	EndResult   int
	JoinResult  int
	LeaveResult int
)

const (
	Started StartResult = iota
	StartAlreadyActive
)

const (
	Ended EndResult = iota
	EndNothingActive
)

const (
	Joined JoinResult = iota
	JoinAlreadyJoined
	JoinInactive
)

const (
	Left LeaveResult = iota
	LeaveNotJoined
	LeaveInactive
)

// Manager owns the challenge lifecycle: a strict two-state machine
// (Inactive ⇄ Active) whose state is the prompt slot. All mutating
// operations run under one mutex so the scheduler's triggers and admin
// commands can never interleave a double start or double end.
type Manager struct {
	mu      sync.RWMutex
	prompts *PromptStore
	polls   *poll.Engine
	gateway Gateway
	store   *store.Store

	endDay time.Weekday
	endAt  schedule.TimeOfDay

	current string // cached prompt; empty means Inactive

	now func() time.Time // test override
}

// NewManager reconstructs the lifecycle state from the prompt slot, so a
// restart mid-round comes back Active.
func NewManager(st *store.Store, polls *poll.Engine, gw Gateway, endDay time.Weekday, endAt schedule.TimeOfDay) (*Manager, error) {
	prompts := NewPromptStore(st)
	text, ok, err := prompts.Load()
	if err != nil {
		return nil, err
	}

	m := &Manager{
		prompts: prompts,
		polls:   polls,
		gateway: gw,
		store:   st,
		endDay:  endDay,
		endAt:   endAt,
	}
	if ok {
		m.current = text
		slog.Info("resumed active challenge", "prompt", text)
	}
	return m, nil
}

// Prompt returns the active round's prompt, or ok=false while Inactive.
// Takes a read lock: command handlers and the scheduler run on separate
// goroutines, and the cached prompt must not be read mid-write.
func (m *Manager) Prompt() (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current, m.current != ""
}

// EndsAt returns the round-end instant: the next occurrence of the
// configured end day and time. The same value drives the end trigger.
func (m *Manager) EndsAt() time.Time {
	return schedule.NextOccurrence(m.timeNow(), m.endDay, m.endAt)
}

// Start begins a new round: resolves the pending poll into a prompt,
// persists it, and announces the round in every guild. While Active it is a
// reported no-op. An empty-pool failure leaves the challenge Inactive.
func (m *Manager) Start() (StartResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current != "" {
		return StartAlreadyActive, nil
	}

	prompt, err := m.polls.Resolve()
	if err != nil {
		return 0, fmt.Errorf("pick prompt: %w", err)
	}
	if err := m.prompts.Save(prompt); err != nil {
		return 0, err
	}
	m.current = prompt

	msg := startMessage(prompt, m.EndsAt())
	for _, g := range m.gateway.Guilds() {
		if err := m.gateway.Announce(g.ChannelID, msg); err != nil {
			slog.Warn("failed to announce round start", "guild", g.ID, "error", err)
		}
	}

	slog.Info("challenge started", "prompt", prompt)
	return Started, nil
}

// End closes the active round: snapshots and clears the roster in every
// guild (best effort, each guild independent), announces the recap, records
// history once, clears the prompt slot, and opens next week's poll. While
// Inactive it is a reported no-op.
func (m *Manager) End() (EndResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == "" {
		return EndNothingActive, nil
	}
	prompt := m.current

	guilds := m.gateway.Guilds()
	var participants []string
	for _, g := range guilds {
		members, err := m.gateway.Members(g)
		if err != nil {
			slog.Warn("failed to read roster", "guild", g.ID, "error", err)
			continue
		}
		participants = append(participants, members...)
		for _, userID := range members {
			if err := m.gateway.RemoveMember(g, userID); err != nil {
				slog.Warn("failed to remove participant", "guild", g.ID, "user", userID, "error", err)
			}
		}
	}

	msg := endMessage(prompt, participants)
	for _, g := range guilds {
		if err := m.gateway.Announce(g.ChannelID, msg); err != nil {
			slog.Warn("failed to announce round end", "guild", g.ID, "error", err)
		}
	}

	// Global effects happen exactly once, strictly after the per-guild loop.
	record := models.HistoryRecord{
		EndDate:      m.timeNow().UTC().Format("2006-01-02"),
		Prompt:       prompt,
		Participants: participants,
	}
	if err := m.store.Append(models.HistoryCollection, record); err != nil {
		return 0, fmt.Errorf("record history: %w", err)
	}
	if err := m.prompts.Clear(); err != nil {
		return 0, err
	}
	m.current = ""

	// Seed next round's vote.
	if len(guilds) > 0 {
		if _, err := m.polls.Open(guilds[0].ChannelID); err != nil {
			slog.Error("failed to open next poll", "error", err)
		}
	} else {
		slog.Warn("no guild resolved a challenge channel, next poll not opened")
	}

	slog.Info("challenge ended", "prompt", prompt, "participants", len(participants))
	return Ended, nil
}

// Join adds a user to the roster. Valid only while Active; joining twice is
// a reported no-op.
func (m *Manager) Join(guildID, userID string) (JoinResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == "" {
		return JoinInactive, nil
	}

	g, err := m.guild(guildID)
	if err != nil {
		return 0, err
	}

	joined, err := m.gateway.HasMember(g, userID)
	if err != nil {
		return 0, fmt.Errorf("check roster: %w", err)
	}
	if joined {
		return JoinAlreadyJoined, nil
	}
	if err := m.gateway.AddMember(g, userID); err != nil {
		return 0, fmt.Errorf("join roster: %w", err)
	}

	slog.Info("participant joined", "guild", guildID, "user", userID)
	return Joined, nil
}

// Leave removes a user from the roster. Valid only while Active; leaving
// while not joined is a reported no-op.
func (m *Manager) Leave(guildID, userID string) (LeaveResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == "" {
		return LeaveInactive, nil
	}

	g, err := m.guild(guildID)
	if err != nil {
		return 0, err
	}

	joined, err := m.gateway.HasMember(g, userID)
	if err != nil {
		return 0, fmt.Errorf("check roster: %w", err)
	}
	if !joined {
		return LeaveNotJoined, nil
	}
	if err := m.gateway.RemoveMember(g, userID); err != nil {
		return 0, fmt.Errorf("leave roster: %w", err)
	}

	slog.Info("participant left", "guild", guildID, "user", userID)
	return Left, nil
}

// Participants returns the guild's roster as user refs, newest join first.
func (m *Manager) Participants(guildID string) ([]string, error) {
	g, err := m.guild(guildID)
	if err != nil {
		return nil, err
	}
	members, err := m.gateway.Members(g)
	if err != nil {
		return nil, fmt.Errorf("read roster: %w", err)
	}
	return reversed(members), nil
}

// History returns every completed round, oldest first.
func (m *Manager) History() ([]models.HistoryRecord, error) {
	raws, err := m.store.List(models.HistoryCollection)
	if err != nil {
		return nil, err
	}

	records := make([]models.HistoryRecord, 0, len(raws))
	for _, raw := range raws {
		var rec models.HistoryRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("malformed history record: %w", err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func (m *Manager) guild(guildID string) (Guild, error) {
	for _, g := range m.gateway.Guilds() {
		if g.ID == guildID {
			return g, nil
		}
	}
	return Guild{}, ErrGuildNotConfigured
}

func (m *Manager) timeNow() time.Time {
	if m.now != nil {
		return m.now()
	}
	return time.Now()
}

func reversed(s []string) []string {
	out := make([]string, len(s))
	for i, v := range s {
		out[len(s)-1-i] = v
	}
	return out
}
