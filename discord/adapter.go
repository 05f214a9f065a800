// Copyright (c) 2025 Quillworks.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package discord

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"

	"github.com/bwmarrin/discordgo"

	"github.com/quillworks/quill/challenge"
	"github.com/quillworks/quill/models"
	"github.com/quillworks/quill/poll"
)

// memberPageSize is the page size for roster enumeration.
const memberPageSize = 1000

// Adapter implements the challenge.Gateway and poll.Publisher contracts
// over a live Discord session. Channel and role are matched by name per
// guild, so one deployment can serve several guilds with the same setup.
type Adapter struct {
	session *discordgo.Session
	channel string
	role    string
}

func NewAdapter(session *discordgo.Session, channelName, roleName string) *Adapter {
	return &Adapter{session: session, channel: channelName, role: roleName}
}

// Guilds lists guilds where both the challenge channel and the participant
// role resolve. A guild missing either is skipped with a log, not an error.
func (a *Adapter) Guilds() []challenge.Guild {
	var out []challenge.Guild
	for _, g := range a.session.State.Guilds {
		channelID, roleID, err := a.resolve(g.ID)
		if err != nil {
			slog.Warn("guild not configured for the challenge", "guild", g.ID, "error", err)
			continue
		}
		out = append(out, challenge.Guild{ID: g.ID, ChannelID: channelID, RoleID: roleID})
	}
	return out
}

func (a *Adapter) resolve(guildID string) (channelID, roleID string, err error) {
	channels, err := a.session.GuildChannels(guildID)
	if err != nil {
		return "", "", fmt.Errorf("list channels: %w", err)
	}
	for _, ch := range channels {
		if ch.Name == a.channel {
			channelID = ch.ID
			break
		}
	}
	if channelID == "" {
		return "", "", fmt.Errorf("no channel named %q", a.channel)
	}

	roles, err := a.session.GuildRoles(guildID)
	if err != nil {
		return "", "", fmt.Errorf("list roles: %w", err)
	}
	for _, r := range roles {
		if r.Name == a.role {
			roleID = r.ID
			break
		}
	}
	if roleID == "" {
		return "", "", fmt.Errorf("no role named %q", a.role)
	}

	return channelID, roleID, nil
}

// Members returns the user IDs holding the participant role, in the order
// the platform returns members.
func (a *Adapter) Members(g challenge.Guild) ([]string, error) {
	var out []string
	after := ""
	for {
		members, err := a.session.GuildMembers(g.ID, after, memberPageSize)
		if err != nil {
			return nil, fmt.Errorf("list members: %w", err)
		}
		for _, m := range members {
			if slices.Contains(m.Roles, g.RoleID) {
				out = append(out, m.User.ID)
			}
		}
		if len(members) < memberPageSize {
			return out, nil
		}
		after = members[len(members)-1].User.ID
	}
}

func (a *Adapter) HasMember(g challenge.Guild, userID string) (bool, error) {
	member, err := a.session.GuildMember(g.ID, userID)
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("fetch member: %w", err)
	}
	return slices.Contains(member.Roles, g.RoleID), nil
}

func (a *Adapter) AddMember(g challenge.Guild, userID string) error {
	return a.session.GuildMemberRoleAdd(g.ID, userID, g.RoleID)
}

func (a *Adapter) RemoveMember(g challenge.Guild, userID string) error {
	return a.session.GuildMemberRoleRemove(g.ID, userID, g.RoleID)
}

func (a *Adapter) Announce(channelID string, msg models.Message) error {
	_, err := a.session.ChannelMessageSendEmbed(channelID, embed(msg))
	return err
}

// Send publishes msg and returns the platform message ref, used later to
// read back reaction counts.
func (a *Adapter) Send(channelID string, msg models.Message) (string, error) {
	m, err := a.session.ChannelMessageSendEmbed(channelID, embed(msg))
	if err != nil {
		return "", err
	}
	return m.ID, nil
}

func (a *Adapter) React(channelID, messageID, token string) error {
	return a.session.MessageReactionAdd(channelID, messageID, token)
}

// ReactionCounts fetches the message and returns its raw reaction counts by
// emoji. A deleted message maps to poll.ErrMessageNotFound so the engine
// can fall back.
func (a *Adapter) ReactionCounts(channelID, messageID string) (map[string]int, error) {
	m, err := a.session.ChannelMessage(channelID, messageID)
	if err != nil {
		if isNotFound(err) {
			return nil, poll.ErrMessageNotFound
		}
		return nil, fmt.Errorf("fetch poll message: %w", err)
	}

	counts := make(map[string]int, len(m.Reactions))
	for _, r := range m.Reactions {
		counts[r.Emoji.Name] = r.Count
	}
	return counts, nil
}

func isNotFound(err error) bool {
	var restErr *discordgo.RESTError
	return errors.As(err, &restErr) && restErr.Response != nil && restErr.Response.StatusCode == http.StatusNotFound
}

func embed(msg models.Message) *discordgo.MessageEmbed {
	e := &discordgo.MessageEmbed{
		Title:       msg.Title,
		Description: msg.Description,
		Color:       msg.Color,
	}
	for _, f := range msg.Fields {
		// Discord rejects empty field names; zero-width space keeps the
		// name row visually blank.
		e.Fields = append(e.Fields, &discordgo.MessageEmbedField{Name: "\u200b", Value: f})
	}
	return e
}
