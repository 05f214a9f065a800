// Copyright (c) 2025 Quillworks.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package discord

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/quillworks/quill/challenge"
	"github.com/quillworks/quill/ideas"
	"github.com/quillworks/quill/models"
	"github.com/quillworks/quill/schedule"
)

const inactiveReply = "The **Weekly Quill** challenge is **not active** at the moment. Please wait until the next challenge starts."

const adminContactReply = "Error. Please contact an administrator."

const infoBase = "Each week, **Weekly Quill** kicks off a fun writing challenge, combining a randomly selected plot idea with a plot twist! Participate, write whatever comes to mind, however long, and share your take on the weekly prompt with the community!"

var commandDefs = []*discordgo.ApplicationCommand{
	{Name: "join", Description: "Join the Weekly Quill challenge"},
	{Name: "leave", Description: "Leave the Weekly Quill challenge"},
	{Name: "info", Description: "Get information about the Weekly Quill challenge"},
	{Name: "participants", Description: "List all participants of the current Weekly Quill challenge"},
	{
		Name:        "prompt",
		Description: "Submit your prompt idea",
		Options: []*discordgo.ApplicationCommandOption{{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "prompt",
			Description: "One sentence plot (Example: Two enemy spies find themselves stranded together)",
			Required:    true,
		}},
	},
	{Name: "admin-start", Description: "Manually start the Weekly Quill challenge (Admin Only)"},
	{Name: "admin-end", Description: "Manually end the Weekly Quill challenge (Admin Only)"},
}

// Register creates the slash commands globally. Call after the session is
// open so the application ID is known.
func Register(session *discordgo.Session) error {
	for _, def := range commandDefs {
		if _, err := session.ApplicationCommandCreate(session.State.User.ID, "", def); err != nil {
			return fmt.Errorf("register /%s: %w", def.Name, err)
		}
	}
	return nil
}

// Commands maps slash-command interactions onto lifecycle and idea
// operations. Every command is gated to the challenge channel; admin
// commands additionally require the administrator permission.
type Commands struct {
	mgr     *challenge.Manager
	ideas   *ideas.Repository
	channel string
}

func NewCommands(mgr *challenge.Manager, repo *ideas.Repository, channelName string) *Commands {
	return &Commands{mgr: mgr, ideas: repo, channel: channelName}
}

// Handle dispatches one interaction. Registered as a session handler.
func (c *Commands) Handle(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	if i.Member == nil {
		return // DMs have no guild context
	}

	name := i.ApplicationCommandData().Name
	if !c.inChallengeChannel(s, i) {
		c.respondMessage(s, i, models.Message{
			Title:       "Error!",
			Description: fmt.Sprintf("Head over to #%s to do this", c.channel),
			Color:       models.ColorRed,
		}, true)
		return
	}

	switch name {
	case "join":
		c.join(s, i)
	case "leave":
		c.leave(s, i)
	case "info":
		c.info(s, i)
	case "participants":
		c.participants(s, i)
	case "prompt":
		c.prompt(s, i)
	case "admin-start":
		c.adminStart(s, i)
	case "admin-end":
		c.adminEnd(s, i)
	}
}

func (c *Commands) join(s *discordgo.Session, i *discordgo.InteractionCreate) {
	userID := i.Member.User.ID
	res, err := c.mgr.Join(i.GuildID, userID)
	if err != nil {
		slog.Error("join failed", "guild", i.GuildID, "user", userID, "error", err)
		c.respond(s, i, adminContactReply, true)
		return
	}

	switch res {
	case challenge.JoinInactive:
		c.respond(s, i, inactiveReply, true)
	case challenge.JoinAlreadyJoined:
		c.respond(s, i, models.Mention(userID)+", you have already joined the **Weekly Quill** challenge.", true)
	case challenge.Joined:
		// Join success is public
		c.respond(s, i, models.Mention(userID)+" has joined the **Weekly Quill** challenge!", false)
	}
}

func (c *Commands) leave(s *discordgo.Session, i *discordgo.InteractionCreate) {
	userID := i.Member.User.ID
	res, err := c.mgr.Leave(i.GuildID, userID)
	if err != nil {
		slog.Error("leave failed", "guild", i.GuildID, "user", userID, "error", err)
		c.respond(s, i, adminContactReply, true)
		return
	}

	switch res {
	case challenge.LeaveInactive:
		c.respond(s, i, inactiveReply, true)
	case challenge.LeaveNotJoined:
		c.respond(s, i, "You are currently not in the **Weekly Quill** challenge.", true)
	case challenge.Left:
		c.respond(s, i, "You have left the **Weekly Quill** challenge.", true)
	}
}

func (c *Commands) info(s *discordgo.Session, i *discordgo.InteractionCreate) {
	promptHint := "**Submit your own prompt with /prompt!**"

	prompt, active := c.mgr.Prompt()
	if !active {
		c.respondMessage(s, i, models.Message{
			Title:       "Weekly Quill",
			Description: infoBase + "\n\n" + promptHint + "\n\nThe challenge is **not active** at the moment.",
			Color:       models.ColorGreyple,
		}, true)
		return
	}

	endsAt := c.mgr.EndsAt()
	remaining := schedule.FormatRemaining(endsAt.Sub(time.Now().UTC()))
	c.respondMessage(s, i, models.Message{
		Title:       "Weekly Quill",
		Description: infoBase,
		Fields: []string{
			"**Ongoing Prompt:** " + prompt,
			"**Time Remaining:** " + remaining,
			promptHint,
			"**Use /join to participate!**",
		},
		Color: models.ColorGreyple,
	}, true)
}

func (c *Commands) participants(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if _, active := c.mgr.Prompt(); !active {
		c.respond(s, i, inactiveReply, true)
		return
	}

	members, err := c.mgr.Participants(i.GuildID)
	if err != nil {
		slog.Error("participants lookup failed", "guild", i.GuildID, "error", err)
		c.respond(s, i, adminContactReply, true)
		return
	}

	if len(members) == 0 {
		c.respondMessage(s, i, models.Message{
			Description: "No one has joined the **Weekly Quill** yet. Be the first to participate by using /join!",
			Color:       models.ColorGreyple,
		}, true)
		return
	}

	mentions := make([]string, 0, len(members))
	for _, userID := range members {
		mentions = append(mentions, models.Mention(userID))
	}
	c.respondMessage(s, i, models.Message{
		Description: "Here are the people taking part in the current **Weekly Quill**:\n\n" + strings.Join(mentions, " "),
		Color:       models.ColorGreyple,
	}, true)
}

func (c *Commands) prompt(s *discordgo.Session, i *discordgo.InteractionCreate) {
	text := i.ApplicationCommandData().Options[0].StringValue()

	if err := c.ideas.Submit(text); err != nil {
		if errors.Is(err, ideas.ErrTooLong) {
			c.respond(s, i, fmt.Sprintf("Your prompt '**%s**' is too long! Please limit it to %d characters.", text, models.MaxPromptLen), true)
			return
		}
		slog.Error("prompt submission failed", "error", err)
		c.respond(s, i, adminContactReply, true)
		return
	}

	c.respond(s, i, "Thank you! Your prompt has been successfully submitted.", true)
}

func (c *Commands) adminStart(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !isAdmin(i) {
		c.respond(s, i, "You do not have permission to use this command.", true)
		return
	}
	c.deferReply(s, i)

	res, err := c.mgr.Start()
	if err != nil {
		slog.Error("manual start failed", "error", err)
		c.followup(s, i, "Failed to start the challenge: "+err.Error())
		return
	}

	switch res {
	case challenge.StartAlreadyActive:
		c.followup(s, i, "A challenge is already active. Skipping start.")
	case challenge.Started:
		c.followup(s, i, "The Weekly Quill challenge has been started!")
	}
}

func (c *Commands) adminEnd(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !isAdmin(i) {
		c.respond(s, i, "You do not have permission to use this command.", true)
		return
	}
	c.deferReply(s, i)

	res, err := c.mgr.End()
	if err != nil {
		slog.Error("manual end failed", "error", err)
		c.followup(s, i, "Failed to end the challenge: "+err.Error())
		return
	}

	switch res {
	case challenge.EndNothingActive:
		c.followup(s, i, "No active challenge to end.")
	case challenge.Ended:
		c.followup(s, i, "The challenge has been ended!")
	}
}

func (c *Commands) inChallengeChannel(s *discordgo.Session, i *discordgo.InteractionCreate) bool {
	ch, err := s.State.Channel(i.ChannelID)
	if err != nil {
		ch, err = s.Channel(i.ChannelID)
		if err != nil {
			slog.Warn("failed to resolve interaction channel", "channel", i.ChannelID, "error", err)
			return false
		}
	}
	return ch.Name == c.channel
}

func isAdmin(i *discordgo.InteractionCreate) bool {
	return i.Member.Permissions&discordgo.PermissionAdministrator != 0
}

func (c *Commands) respond(s *discordgo.Session, i *discordgo.InteractionCreate, content string, ephemeral bool) {
	data := &discordgo.InteractionResponseData{Content: content}
	if ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	})
	if err != nil {
		slog.Error("failed to respond to interaction", "error", err)
	}
}

func (c *Commands) respondMessage(s *discordgo.Session, i *discordgo.InteractionCreate, msg models.Message, ephemeral bool) {
	data := &discordgo.InteractionResponseData{Embeds: []*discordgo.MessageEmbed{embed(msg)}}
	if ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	})
	if err != nil {
		slog.Error("failed to respond to interaction", "error", err)
	}
}

// deferReply acknowledges the interaction before a slow lifecycle operation;
// the outcome arrives as an ephemeral followup.
func (c *Commands) deferReply(s *discordgo.Session, i *discordgo.InteractionCreate) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral},
	})
	if err != nil {
		slog.Error("failed to defer interaction", "error", err)
	}
}

func (c *Commands) followup(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	_, err := s.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{
		Content: content,
		Flags:   discordgo.MessageFlagsEphemeral,
	})
	if err != nil {
		slog.Error("failed to send followup", "error", err)
	}
}
