// Copyright (c) 2025 Quillworks.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package challenge owns the weekly challenge lifecycle.

# State Machine

Two states, with the prompt slot as the source of truth:

	Inactive (no persisted prompt) ⇄ Active (persisted prompt)

Start and End are the only transitions; Join and Leave are self-loops valid
while Active. The Manager reconstructs its state from the PromptStore at
startup, so a process restart mid-round resumes Active.

# Concurrency

All mutating operations hold the write half of a single RWMutex: Start and
End each perform a sequence of external calls (roster enumeration, role
removal, sends, history write, poll open) that must observe a consistent
prompt. The scheduler's triggers and admin commands contend for the same
lock and block until the in-flight operation finishes. Prompt takes the
read half, so concurrent snapshots never observe a half-applied
transition; Participants and History read only through their
collaborators and take no lock.

# Multi-Guild

Per-guild side effects during End (roster snapshot, role removal, recap
send) are best effort and independent: one guild's failure never aborts the
others. The global effects - the history append, the prompt clear, and
opening next week's poll - happen exactly once after the per-guild loop.
*/
package challenge
