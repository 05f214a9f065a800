// Copyright (c) 2025 Quillworks.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package discord binds the bot to the Discord platform.

Adapter implements the collaborator contracts the core depends on
(challenge.Gateway, poll.Publisher) over a live discordgo session: embeds,
reactions and reaction counts, role-based roster membership, and per-guild
channel/role resolution by name.

Commands is the inbound slash-command surface:

	/join /leave /info /participants /prompt /admin-start /admin-end

All commands are gated to the configured challenge channel. Admin commands
require the administrator permission and run deferred, reporting the
outcome as an ephemeral followup. Error and status replies are ephemeral;
join successes and round announcements are public.
*/
package discord
