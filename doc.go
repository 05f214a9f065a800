// Copyright (c) 2025 Quillworks.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the Weekly Quill bot.

Weekly Quill runs a recurring community writing challenge: every week it
picks a prompt (a plot idea with a twist), opens the round for sign-ups,
announces the recap when the round ends, and polls the community on next
week's prompt.

# Starting the Bot

The bot requires environment variables or CLI flags for configuration:

	DISCORD_TOKEN=... DATABASE_URL=quill.db go run main.go

Or with flags:

	go run main.go -d quill.db -t sqlite --channel weekly-quill

# Configuration

Required settings:

  - DISCORD_TOKEN: bot token
  - DATABASE_URL (-d): sqlite path or postgres connection string

Optional settings:

  - DATABASE_TYPE (-t): sqlite (default) or postgres
  - CHALLENGE_CHANNEL, CHALLENGE_ROLE: per-guild channel/role names
  - START_DAY, START_TIME, END_DAY, END_TIME: weekly cadence in UTC
    (default Monday 14:00 → Sunday 16:00)

# Architecture

The bot uses small packages with dependency injection:

  - store: durable document store over database/sql
  - ideas: plot/twist idea pools and user submissions
  - poll: three-candidate prompt vote (open, tally, tie-break, resolve)
  - challenge: the two-state round lifecycle and history
  - schedule: weekly triggers for start and end
  - discord: platform adapter and slash-command surface
  - cliparse: configuration parsing
  - db: schema creation

See package documentation for each component.
*/
package main
