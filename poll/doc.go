// Copyright (c) 2025 Quillworks.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package poll runs the three-candidate vote that picks each round's prompt.

# Lifecycle

A poll is opened at the end of one round and resolved at the start of the
next:

	engine.Open(channelID)  // synthesize 3 candidates, publish, persist
	engine.Resolve()        // tally reactions, tie-break, clear, return winner

At most one poll exists at a time: Open overwrites any stale record and
Resolve deletes it.

# Tallying

The engine never counts votes itself. It asks the Publisher for the raw
reaction counts attached to the published message and subtracts one per
token for the bot's own seed reaction (clamped at zero). The winner is the
candidate with the highest tally; ties are broken uniformly at random, which
with a three-option poll is common enough (including the nobody-voted case)
that a fair random continuation beats blocking on a human.

# Fallbacks

A missing poll record, or a poll message that was deleted, degrades to a
freshly synthesized random candidate. That path still needs non-empty idea
pools and surfaces ErrEmptyPool otherwise.
*/
package poll
