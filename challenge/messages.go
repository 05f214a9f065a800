// Copyright (c) 2025 Quillworks.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package challenge

import (
	"fmt"
	"strings"
	"time"

	"github.com/quillworks/quill/models"
)

func startMessage(prompt string, endsAt time.Time) models.Message {
	return models.Message{
		Title: "The Weekly Quill challenge has begun!",
		Description: fmt.Sprintf(
			"**And this week's prompt is...** *%s*\n\n"+
				"The challenge ends on **%s**. Use /join to participate!",
			prompt, endsAt.Format("Monday 3:04 PM (UTC)"),
		),
		Color: models.ColorDarkPurple,
	}
}

func endMessage(prompt string, participants []string) models.Message {
	thanks := "no participants this week."
	if len(participants) > 0 {
		mentions := make([]string, 0, len(participants))
		for _, userID := range reversed(participants) {
			mentions = append(mentions, models.Mention(userID))
		}
		thanks = strings.Join(mentions, " ")
	}

	return models.Message{
		Title: "The Weekly Quill challenge has ended",
		Description: fmt.Sprintf(
			"*%s*\n\n**Thank you to everyone who participated:** %s\n\n"+
				"**See you tomorrow for a new challenge!**",
			prompt, thanks,
		),
		Color: models.ColorDarkPurple,
	}
}
