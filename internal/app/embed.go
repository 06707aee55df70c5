package app

import (
	"github.com/example/rolesmith/internal/core/selector"
	"github.com/example/rolesmith/internal/ports/secondary"
)

// renderBody turns a selector body into an outbound message. The embed,
// when present, carries the configured colour and footer.
func renderBody(settings BotSettings, body selector.Body) secondary.OutboundMessage {
	msg := secondary.OutboundMessage{Content: body.Content}
	if body.HasEmbed() {
		msg.Embed = brandedEmbed(settings, body.Title, body.Description)
	}
	return msg
}

func brandedEmbed(settings BotSettings, title, description string) *secondary.Embed {
	return &secondary.Embed{
		Title:       title,
		Description: description,
		Colour:      settings.Colour(),
		FooterText:  settings.Name(),
		FooterIcon:  settings.Logo(),
	}
}
