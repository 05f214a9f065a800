// Copyright (c) 2025 Quillworks.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines the domain types shared across the bot.

# Persisted Records

Each record type maps to one document-store key:

  - PromptRecord    → current_prompt (the active round's prompt, or absent)
  - PollRecord      → poll_prompts (the pending three-candidate vote)
  - IdeaPoolRecord  → prompts/plot_ideas, prompts/twist_ideas
  - UserInputsRecord → prompts/user_inputs
  - HistoryRecord   → challenge_history collection (append-only)

# Messages

Message is the platform-neutral announcement payload produced by the poll
and challenge packages and rendered to a Discord embed by the discord
package. Colors follow the bot's palette: dark purple for round and poll
announcements, greyple for informational replies, red for errors.
*/
package models
