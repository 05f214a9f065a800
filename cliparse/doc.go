// Copyright (c) 2025 Quillworks.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse parses bot configuration from CLI flags with environment
variable fallbacks.

Required settings:

  - DISCORD_TOKEN: bot token (environment only)
  - DATABASE_URL (-d): sqlite path or postgres connection string

Optional settings:

  - DATABASE_TYPE (-t): "sqlite" (default) or "postgres"
  - CHALLENGE_CHANNEL (--channel): challenge channel name (default "weekly-quill")
  - CHALLENGE_ROLE (--role): participant role name (default "Weekly Quill")
  - START_DAY/START_TIME (--start-day/--start-time): weekly start, default Monday 14:00 UTC
  - END_DAY/END_TIME (--end-day/--end-time): weekly end, default Sunday 16:00 UTC

An unparsable day or time is a startup error; the scheduler never runs with
an undefined cadence. The configured end instant is the single source for
both the end trigger and every announcement that quotes it.
*/
package cliparse
