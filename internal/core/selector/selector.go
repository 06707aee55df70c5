// Package selector contains the pure rules for selector message content and
// for addressing selectors by their position in a channel.
package selector

import (
	"fmt"
	"strconv"
	"strings"
)

// FieldSeparator splits the fields of a body or edit command.
const FieldSeparator = "///"

// noneToken marks a field as absent.
const noneToken = "none"

// GuardResult represents the outcome of a guard evaluation.
type GuardResult struct {
	Allowed bool
	Reason  string
}

// Error converts the guard result to an error if not allowed.
func (r GuardResult) Error() error {
	if r.Allowed {
		return nil
	}
	return fmt.Errorf("%s", r.Reason)
}

// Body is the composed content of a selector message.
type Body struct {
	Content     string
	Title       string
	Description string
}

// HasEmbed reports whether the body needs an embed.
// An embed with neither title nor description is never sent.
func (b Body) HasEmbed() bool {
	return b.Title != "" || b.Description != ""
}

// IsEmpty reports whether the body has nothing to show.
func (b Body) IsEmpty() bool {
	return b.Content == "" && !b.HasEmbed()
}

// SplitFields splits text on FieldSeparator and trims each field.
func SplitFields(text string) []string {
	parts := strings.Split(text, FieldSeparator)
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}

// BodyFromFields builds a Body from content, title and description fields.
// Missing fields and fields equal to "none" (any case) are absent; extra
// fields are ignored.
func BodyFromFields(fields []string) Body {
	get := func(i int) string {
		if i >= len(fields) {
			return ""
		}
		if strings.EqualFold(fields[i], noneToken) {
			return ""
		}
		return fields[i]
	}
	return Body{
		Content:     get(0),
		Title:       get(1),
		Description: get(2),
	}
}

// ParseBody parses "content /// title /// description".
func ParseBody(text string) (Body, GuardResult) {
	body := BodyFromFields(SplitFields(text))
	return body, CanPublish(body)
}

// CanPublish evaluates whether a body may be sent.
// Rules:
// - At least one of content, title, description must be present
func CanPublish(body Body) GuardResult {
	if body.IsEmpty() {
		return GuardResult{
			Allowed: false,
			Reason:  "You can't use an empty message as a role-reaction message.",
		}
	}
	return GuardResult{Allowed: true}
}

// SelectByNumber resolves a 1-based selector number against the ordered
// message IDs of a channel.
func SelectByNumber(messageIDs []string, number string) (string, GuardResult) {
	if len(messageIDs) == 0 {
		return "", GuardResult{
			Allowed: false,
			Reason:  "You selected a reaction-role message that does not exist.",
		}
	}

	n, err := strconv.Atoi(strings.TrimSpace(number))
	if err != nil || n < 1 || n > len(messageIDs) {
		return "", GuardResult{
			Allowed: false,
			Reason: "Select a valid reaction-role message number (i.e. the number" +
				" to the left of the reaction-role message content in the list).",
		}
	}

	return messageIDs[n-1], GuardResult{Allowed: true}
}

// ListLine renders one entry of a numbered selector listing. The embed title
// wins over the message content.
func ListLine(number int, content, embedTitle string) string {
	summary := content
	if embedTitle != "" {
		summary = embedTitle
	}
	return fmt.Sprintf("`%d` %s", number, summary)
}
