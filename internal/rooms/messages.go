package rooms

import (
	"fmt"

	"github.com/eldtechnologies/makeroom/internal/models"
)

// Custom IDs of the interactive controls the bot posts.
const (
	ComponentCreateCategory   = "create_category"
	ComponentDeleteCategory   = "delete_category"
	ComponentToggleVisibility = "toggle_visibility"
)

// Plain-text replies.
const (
	msgNoPermDelete     = "I do not have permission to delete channels or categories."
	msgNoPermCategory   = "I do not have permission to create categories."
	msgNoPermVoice      = "I do not have permission to create voice channels."
	msgNoPermOverwrites = "I do not have permission to change this room's permissions."
	msgVoiceOnly        = "This command can only be used in a voice channel."
	msgFailed           = "Something went wrong, please try again."
)

const greetingText = "Thanks for adding me to your server! I'm here to help you manage things.✨\n\n" +
	"To get started, a moderator can use the `button` below " +
	"to create a dedicated category for me to work in."

func greetingMessage() models.Message {
	return models.Message{
		Embed: &models.Embed{
			Title:       "Greeting! 🤩",
			Description: greetingText,
			Footer:      "Let's get this server organized!",
			Color:       models.ColorOrange,
		},
		Buttons: []models.Button{
			{CustomID: ComponentCreateCategory, Label: "✨ Create Category", Style: models.ButtonPrimary},
			{CustomID: ComponentDeleteCategory, Label: "🗑️ Remove Category", Style: models.ButtonDanger},
		},
	}
}

func roomControlMessage() models.Message {
	return models.Message{
		Embed: &models.Embed{
			Title:       "🪄 Room Control",
			Description: "Toggle the visibility of this voice channel.",
			Footer:      "Manage your room privacy!",
			Color:       models.ColorBlurple,
		},
		Buttons: []models.Button{
			{CustomID: ComponentToggleVisibility, Label: "Toggle Visibility", Style: models.ButtonPrimary},
		},
	}
}

func categoryReadyMessage(name string, recreated bool) models.Message {
	title, color := "Category Created", models.ColorGreen
	if recreated {
		title, color = "Category Recreated", models.ColorBlue
	}
	return models.Message{Embed: &models.Embed{
		Title:       title,
		Description: fmt.Sprintf("Category '%s' created successfully.", name),
		Color:       color,
	}}
}

func categoryRemovedMessage(name string) models.Message {
	return models.Message{Embed: &models.Embed{
		Title:       "Category Removed",
		Description: fmt.Sprintf("Category '%s' and its channels were deleted.", name),
		Color:       models.ColorBlue,
	}}
}

func categoryMissingMessage(name string) models.Message {
	return models.Text(fmt.Sprintf("No category named '%s' found.", name))
}

func deniedMessage(description string) models.Message {
	return models.Message{Embed: &models.Embed{
		Title:       "⚠️ Permission Denied",
		Description: description,
		Color:       models.ColorRed,
	}}
}

func privateMessage() models.Message {
	return models.Message{Embed: &models.Embed{
		Title:       "😶‍🌫️ Room Privacy",
		Description: "This room is now private.",
		Color:       models.ColorRed,
	}}
}

func publicMessage() models.Message {
	return models.Message{Embed: &models.Embed{
		Title:       "🥳 Room Privacy",
		Description: "This room is now public.",
		Color:       models.ColorGreen,
	}}
}
