// Copyright (c) 2025 Quillworks.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/quillworks/quill/challenge"
	"github.com/quillworks/quill/db"
	"github.com/quillworks/quill/models"
	"github.com/quillworks/quill/poll"
	"github.com/quillworks/quill/store"
)

// SetupTestDB opens a fresh in-memory sqlite database with the full schema.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	conn, err := sql.Open("sqlite", "file::memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	// In-memory sqlite is per-connection; keep a single one
	conn.SetMaxOpenConns(1)

	if err := db.CreateSchema(conn); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	t.Cleanup(func() { conn.Close() })
	return conn
}

// SetupStore opens a test database and wraps it in a document store.
func SetupStore(t *testing.T) *store.Store {
	t.Helper()
	return store.New(SetupTestDB(t))
}

// SeedPools writes the plot and twist idea pools.
func SeedPools(t *testing.T, st *store.Store, plots, twists []string) {
	t.Helper()

	if err := st.Set(models.KeyPlotIdeas, models.IdeaPoolRecord{Ideas: plots}); err != nil {
		t.Fatalf("Failed to seed plot ideas: %v", err)
	}
	if err := st.Set(models.KeyTwistIdeas, models.IdeaPoolRecord{Ideas: twists}); err != nil {
		t.Fatalf("Failed to seed twist ideas: %v", err)
	}
}

// GetRecord loads and decodes the record under key, failing the test if it
// is missing or malformed.
func GetRecord(t *testing.T, st *store.Store, key string, v any) {
	t.Helper()

	raw, ok, err := st.Get(key)
	if err != nil {
		t.Fatalf("Failed to get %q: %v", key, err)
	}
	if !ok {
		t.Fatalf("Record %q not found", key)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		t.Fatalf("Failed to decode %q: %v", key, err)
	}
}

// SentMessage is one message recorded by the fake gateway.
type SentMessage struct {
	ChannelID string
	MessageID string
	Msg       models.Message
}

// FakeGateway implements challenge.Gateway and poll.Publisher in memory.
type FakeGateway struct {
	GuildList []challenge.Guild
	Rosters   map[string][]string       // guild ID → member IDs, join order
	Sent      []SentMessage             // every message, announcements included
	Reactions map[string]map[string]int // message ID → token → raw count
	Deleted   map[string]bool           // message IDs that resolve to NotFound

	nextID int
}

func NewFakeGateway(guilds ...challenge.Guild) *FakeGateway {
	return &FakeGateway{
		GuildList: guilds,
		Rosters:   make(map[string][]string),
		Reactions: make(map[string]map[string]int),
		Deleted:   make(map[string]bool),
	}
}

func (f *FakeGateway) Guilds() []challenge.Guild {
	return f.GuildList
}

func (f *FakeGateway) Members(g challenge.Guild) ([]string, error) {
	members := f.Rosters[g.ID]
	out := make([]string, len(members))
	copy(out, members)
	return out, nil
}

func (f *FakeGateway) HasMember(g challenge.Guild, userID string) (bool, error) {
	for _, m := range f.Rosters[g.ID] {
		if m == userID {
			return true, nil
		}
	}
	return false, nil
}

func (f *FakeGateway) AddMember(g challenge.Guild, userID string) error {
	f.Rosters[g.ID] = append(f.Rosters[g.ID], userID)
	return nil
}

func (f *FakeGateway) RemoveMember(g challenge.Guild, userID string) error {
	members := f.Rosters[g.ID]
	for i, m := range members {
		if m == userID {
			f.Rosters[g.ID] = append(members[:i:i], members[i+1:]...)
			return nil
		}
	}
	return nil
}

func (f *FakeGateway) Announce(channelID string, msg models.Message) error {
	_, err := f.Send(channelID, msg)
	return err
}

func (f *FakeGateway) Send(channelID string, msg models.Message) (string, error) {
	f.nextID++
	messageID := fmt.Sprintf("msg-%d", f.nextID)
	f.Sent = append(f.Sent, SentMessage{ChannelID: channelID, MessageID: messageID, Msg: msg})
	f.Reactions[messageID] = make(map[string]int)
	return messageID, nil
}

func (f *FakeGateway) React(channelID, messageID, token string) error {
	if f.Deleted[messageID] {
		return poll.ErrMessageNotFound
	}
	f.Reactions[messageID][token]++
	return nil
}

func (f *FakeGateway) ReactionCounts(channelID, messageID string) (map[string]int, error) {
	if f.Deleted[messageID] {
		return nil, poll.ErrMessageNotFound
	}
	counts, ok := f.Reactions[messageID]
	if !ok {
		return nil, poll.ErrMessageNotFound
	}
	out := make(map[string]int, len(counts))
	for k, v := range counts {
		out[k] = v
	}
	return out, nil
}

// Cast records user votes on a message: n raw reactions for the token on
// top of whatever is already there.
func (f *FakeGateway) Cast(t *testing.T, messageID, token string, n int) {
	t.Helper()
	if _, ok := f.Reactions[messageID]; !ok {
		t.Fatalf("Unknown message %q", messageID)
	}
	f.Reactions[messageID][token] += n
}
