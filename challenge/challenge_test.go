// Copyright (c) 2025 Quillworks.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package challenge_test

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/quillworks/quill/challenge"
	"github.com/quillworks/quill/ideas"
	"github.com/quillworks/quill/models"
	"github.com/quillworks/quill/poll"
	"github.com/quillworks/quill/schedule"
	"github.com/quillworks/quill/store"
	"github.com/quillworks/quill/testutil"
)

var testGuild = challenge.Guild{ID: "g1", ChannelID: "chan-1", RoleID: "role-1"}

type fixture struct {
	mgr *challenge.Manager
	gw  *testutil.FakeGateway
	st  *store.Store
}

func setup(t *testing.T) *fixture {
	t.Helper()

	st := testutil.SetupStore(t)
	testutil.SeedPools(t, st, []string{"A spy defects"}, []string{"it was all staged"})
	gw := testutil.NewFakeGateway(testGuild)
	polls := poll.NewEngine(ideas.New(st), st, gw)

	mgr, err := challenge.NewManager(st, polls, gw, time.Sunday, schedule.TimeOfDay{Hour: 16})
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	return &fixture{mgr: mgr, gw: gw, st: st}
}

func mustStart(t *testing.T, f *fixture) {
	t.Helper()
	res, err := f.mgr.Start()
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if res != challenge.Started {
		t.Fatalf("Start() = %v, want Started", res)
	}
}

func TestStartAnnouncesAndActivates(t *testing.T) {
	f := setup(t)
	mustStart(t, f)

	prompt, active := f.mgr.Prompt()
	if !active {
		t.Fatal("Prompt() active = false after start")
	}
	if prompt != "A spy defects, BUT it was all staged" {
		t.Errorf("prompt = %q", prompt)
	}

	if len(f.gw.Sent) != 1 {
		t.Fatalf("sent %d messages, want 1 announcement", len(f.gw.Sent))
	}
	sent := f.gw.Sent[0]
	if sent.ChannelID != testGuild.ChannelID {
		t.Errorf("announcement channel = %q, want %q", sent.ChannelID, testGuild.ChannelID)
	}
	if !strings.Contains(sent.Msg.Description, prompt) {
		t.Errorf("announcement %q does not carry the prompt", sent.Msg.Description)
	}

	// The prompt slot is persisted, not just cached
	var rec models.PromptRecord
	testutil.GetRecord(t, f.st, models.KeyCurrentPrompt, &rec)
	if rec.Text != prompt {
		t.Errorf("stored prompt = %q, want %q", rec.Text, prompt)
	}
}

func TestStartWhileActive(t *testing.T) {
	f := setup(t)
	mustStart(t, f)

	res, err := f.mgr.Start()
	if err != nil {
		t.Fatalf("second Start() error = %v", err)
	}
	if res != challenge.StartAlreadyActive {
		t.Errorf("second Start() = %v, want StartAlreadyActive", res)
	}

	// No second announcement
	if len(f.gw.Sent) != 1 {
		t.Errorf("sent %d messages after double start, want 1", len(f.gw.Sent))
	}
}

func TestStartEmptyPoolStaysInactive(t *testing.T) {
	st := testutil.SetupStore(t)
	gw := testutil.NewFakeGateway(testGuild)
	polls := poll.NewEngine(ideas.New(st), st, gw)
	mgr, err := challenge.NewManager(st, polls, gw, time.Sunday, schedule.TimeOfDay{Hour: 16})
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}

	if _, err := mgr.Start(); !errors.Is(err, poll.ErrEmptyPool) {
		t.Fatalf("Start() error = %v, want ErrEmptyPool", err)
	}
	if _, active := mgr.Prompt(); active {
		t.Error("challenge became active despite the failed start")
	}
	if len(gw.Sent) != 0 {
		t.Errorf("sent %d messages on failed start, want 0", len(gw.Sent))
	}
}

func TestEndRoundTrip(t *testing.T) {
	f := setup(t)
	mustStart(t, f)
	prompt, _ := f.mgr.Prompt()

	for _, userID := range []string{"u1", "u2"} {
		if res, err := f.mgr.Join(testGuild.ID, userID); err != nil || res != challenge.Joined {
			t.Fatalf("Join(%s) = %v, %v", userID, res, err)
		}
	}

	res, err := f.mgr.End()
	if err != nil {
		t.Fatalf("End() error = %v", err)
	}
	if res != challenge.Ended {
		t.Fatalf("End() = %v, want Ended", res)
	}

	if _, active := f.mgr.Prompt(); active {
		t.Error("challenge still active after end")
	}
	if _, ok, _ := f.st.Get(models.KeyCurrentPrompt); ok {
		t.Error("prompt slot still present after end")
	}

	// Roster emptied
	if roster := f.gw.Rosters[testGuild.ID]; len(roster) != 0 {
		t.Errorf("roster = %v after end, want empty", roster)
	}

	// Exactly one history record with the round's prompt and participants
	history, err := f.mgr.History()
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("history has %d records, want 1", len(history))
	}
	rec := history[0]
	if rec.Prompt != prompt {
		t.Errorf("history prompt = %q, want %q", rec.Prompt, prompt)
	}
	if len(rec.Participants) != 2 {
		t.Errorf("history participants = %v, want 2 entries", rec.Participants)
	}

	// Recap mentions both participants, then next week's poll opens
	recap := f.gw.Sent[len(f.gw.Sent)-2]
	for _, userID := range []string{"u1", "u2"} {
		if !strings.Contains(recap.Msg.Description, models.Mention(userID)) {
			t.Errorf("recap %q missing mention of %s", recap.Msg.Description, userID)
		}
	}
	nextPoll := f.gw.Sent[len(f.gw.Sent)-1]
	if nextPoll.ChannelID != testGuild.ChannelID || len(nextPoll.Msg.Fields) != 3 {
		t.Errorf("last message is not a three-candidate poll: %+v", nextPoll)
	}
	var pollRec models.PollRecord
	testutil.GetRecord(t, f.st, models.KeyPollPrompts, &pollRec)
	if pollRec.MessageID != nextPoll.MessageID {
		t.Errorf("stored poll message = %q, want %q", pollRec.MessageID, nextPoll.MessageID)
	}
}

func TestEndNoParticipants(t *testing.T) {
	f := setup(t)
	mustStart(t, f)

	if _, err := f.mgr.End(); err != nil {
		t.Fatalf("End() error = %v", err)
	}

	recap := f.gw.Sent[len(f.gw.Sent)-2]
	if !strings.Contains(recap.Msg.Description, "no participants this week") {
		t.Errorf("recap = %q, want the empty-roster wording", recap.Msg.Description)
	}

	history, err := f.mgr.History()
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(history) != 1 || len(history[0].Participants) != 0 {
		t.Errorf("history = %+v, want one record with no participants", history)
	}
}

func TestEndWhileInactive(t *testing.T) {
	f := setup(t)

	res, err := f.mgr.End()
	if err != nil {
		t.Fatalf("End() error = %v", err)
	}
	if res != challenge.EndNothingActive {
		t.Errorf("End() = %v, want EndNothingActive", res)
	}
	if len(f.gw.Sent) != 0 {
		t.Errorf("sent %d messages on no-op end, want 0", len(f.gw.Sent))
	}
}

func TestJoinIdempotent(t *testing.T) {
	f := setup(t)
	mustStart(t, f)

	if res, _ := f.mgr.Join(testGuild.ID, "u1"); res != challenge.Joined {
		t.Fatalf("first Join() = %v, want Joined", res)
	}
	if res, _ := f.mgr.Join(testGuild.ID, "u1"); res != challenge.JoinAlreadyJoined {
		t.Errorf("second Join() = %v, want JoinAlreadyJoined", res)
	}
	if roster := f.gw.Rosters[testGuild.ID]; len(roster) != 1 {
		t.Errorf("roster = %v, want a single entry", roster)
	}
}

func TestJoinWhileInactive(t *testing.T) {
	f := setup(t)

	res, err := f.mgr.Join(testGuild.ID, "u1")
	if err != nil {
		t.Fatalf("Join() error = %v", err)
	}
	if res != challenge.JoinInactive {
		t.Errorf("Join() = %v, want JoinInactive", res)
	}
}

func TestLeave(t *testing.T) {
	f := setup(t)
	mustStart(t, f)

	if _, err := f.mgr.Join(testGuild.ID, "u1"); err != nil {
		t.Fatalf("Join() error = %v", err)
	}
	if res, _ := f.mgr.Leave(testGuild.ID, "u1"); res != challenge.Left {
		t.Errorf("Leave() = %v, want Left", res)
	}
	if res, _ := f.mgr.Leave(testGuild.ID, "u1"); res != challenge.LeaveNotJoined {
		t.Errorf("second Leave() = %v, want LeaveNotJoined", res)
	}
}

func TestLeaveWhileInactive(t *testing.T) {
	f := setup(t)

	res, err := f.mgr.Leave(testGuild.ID, "u1")
	if err != nil {
		t.Fatalf("Leave() error = %v", err)
	}
	if res != challenge.LeaveInactive {
		t.Errorf("Leave() = %v, want LeaveInactive", res)
	}
}

func TestJoinUnknownGuild(t *testing.T) {
	f := setup(t)
	mustStart(t, f)

	if _, err := f.mgr.Join("unknown", "u1"); !errors.Is(err, challenge.ErrGuildNotConfigured) {
		t.Errorf("Join() error = %v, want ErrGuildNotConfigured", err)
	}
}

func TestParticipantsNewestFirst(t *testing.T) {
	f := setup(t)
	mustStart(t, f)

	for _, userID := range []string{"u1", "u2", "u3"} {
		if _, err := f.mgr.Join(testGuild.ID, userID); err != nil {
			t.Fatalf("Join(%s) error = %v", userID, err)
		}
	}

	got, err := f.mgr.Participants(testGuild.ID)
	if err != nil {
		t.Fatalf("Participants() error = %v", err)
	}
	want := []string{"u3", "u2", "u1"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Participants() = %v, want %v", got, want)
		}
	}
}

func TestRestartResumesActiveRound(t *testing.T) {
	f := setup(t)
	mustStart(t, f)
	prompt, _ := f.mgr.Prompt()

	// A second manager over the same store simulates a process restart
	polls := poll.NewEngine(ideas.New(f.st), f.st, f.gw)
	mgr2, err := challenge.NewManager(f.st, polls, f.gw, time.Sunday, schedule.TimeOfDay{Hour: 16})
	if err != nil {
		t.Fatalf("NewManager() after restart error = %v", err)
	}

	got, active := mgr2.Prompt()
	if !active {
		t.Fatal("restarted manager is not active")
	}
	if got != prompt {
		t.Errorf("restarted prompt = %q, want %q", got, prompt)
	}

	// And a no-op start confirms the state machine, not just the cache
	if res, _ := mgr2.Start(); res != challenge.StartAlreadyActive {
		t.Errorf("Start() after restart = %v, want StartAlreadyActive", res)
	}
}

func TestPromptConcurrentWithTransitions(t *testing.T) {
	// Command handlers read the prompt from their own goroutines while the
	// scheduler drives transitions; run under -race.
	f := setup(t)

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-done:
				return
			default:
				f.mgr.Prompt()
			}
		}
	}()

	mustStart(t, f)
	if _, err := f.mgr.End(); err != nil {
		t.Fatalf("End() error = %v", err)
	}
	close(done)
	wg.Wait()

	if _, active := f.mgr.Prompt(); active {
		t.Error("challenge still active after end")
	}
}

func TestEndWithoutGuilds(t *testing.T) {
	st := testutil.SetupStore(t)
	testutil.SeedPools(t, st, []string{"A spy defects"}, []string{"it was all staged"})
	gw := testutil.NewFakeGateway() // no guilds resolve
	polls := poll.NewEngine(ideas.New(st), st, gw)
	mgr, err := challenge.NewManager(st, polls, gw, time.Sunday, schedule.TimeOfDay{Hour: 16})
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	if _, err := mgr.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	var logs bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&logs, nil)))
	defer slog.SetDefault(prev)

	res, err := mgr.End()
	if err != nil {
		t.Fatalf("End() error = %v", err)
	}
	if res != challenge.Ended {
		t.Fatalf("End() = %v, want Ended", res)
	}

	// No channel to open the poll in: nothing persisted, and the skip is
	// logged rather than silent.
	if _, ok, _ := st.Get(models.KeyPollPrompts); ok {
		t.Error("poll record persisted despite no resolvable channel")
	}
	if !strings.Contains(logs.String(), "next poll not opened") {
		t.Errorf("end log %q missing the skipped-poll warning", logs.String())
	}
}

func TestEndsAt(t *testing.T) {
	f := setup(t)

	endsAt := f.mgr.EndsAt()
	if endsAt.Weekday() != time.Sunday {
		t.Errorf("EndsAt() weekday = %v, want Sunday", endsAt.Weekday())
	}
	if endsAt.Hour() != 16 || endsAt.Minute() != 0 {
		t.Errorf("EndsAt() time = %02d:%02d, want 16:00", endsAt.Hour(), endsAt.Minute())
	}
	if !endsAt.After(time.Now().UTC()) {
		t.Errorf("EndsAt() = %v is not in the future", endsAt)
	}
}
