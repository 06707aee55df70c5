package discord

import (
	"errors"
	"net/http"

	"github.com/bwmarrin/discordgo"

	"github.com/example/rolesmith/internal/ports/secondary"
)

// JSON error codes the adapter distinguishes.
const (
	codeUnknownChannel = 10003
	codeUnknownGuild   = 10004
	codeUnknownMessage = 10008
	codeUnknownRole    = 10011
	codeUnknownUser    = 10013
	codeUnknownEmoji   = 10014
	codeUnknownMember  = 10007
	codeMissingAccess  = 50001
	codeEmptyMessage   = 50006
	codeMissingPerms   = 50013
	codeInvalidForm    = 50035
)

// classify maps a discordgo error onto a tagged platform outcome.
// Anything that is not a REST error (network failures, timeouts, rate limit
// exhaustion) is transient.
func classify(err error) secondary.Result {
	if err == nil {
		return secondary.Ok
	}

	var restErr *discordgo.RESTError
	if !errors.As(err, &restErr) {
		return secondary.Failed(secondary.OutcomeTransient, err)
	}

	code := 0
	if restErr.Message != nil {
		code = restErr.Message.Code
	}
	status := 0
	if restErr.Response != nil {
		status = restErr.Response.StatusCode
	}

	switch code {
	case codeUnknownChannel, codeUnknownGuild, codeUnknownMessage, codeUnknownRole, codeUnknownUser, codeUnknownMember:
		return secondary.Failed(secondary.OutcomeNotFound, err)
	case codeUnknownEmoji, codeEmptyMessage, codeInvalidForm:
		return secondary.Failed(secondary.OutcomeInvalid, err)
	case codeMissingAccess, codeMissingPerms:
		return secondary.Failed(secondary.OutcomeForbidden, err)
	}

	switch status {
	case http.StatusNotFound:
		return secondary.Failed(secondary.OutcomeNotFound, err)
	case http.StatusForbidden, http.StatusUnauthorized:
		return secondary.Failed(secondary.OutcomeForbidden, err)
	case http.StatusBadRequest:
		return secondary.Failed(secondary.OutcomeInvalid, err)
	default:
		return secondary.Failed(secondary.OutcomeTransient, err)
	}
}
