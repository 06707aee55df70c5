package primary

import (
	"context"

	"github.com/example/rolesmith/internal/ports/secondary"
)

// CreationService defines the primary port for guided selector creation.
type CreationService interface {
	// BeginCreation opens a session for (operator, channel).
	BeginCreation(ctx context.Context, req BeginRequest) (BeginResult, error)

	// HasSession reports whether a session exists for (operator, channel).
	HasSession(ctx context.Context, operatorID, channelID string) (bool, error)

	// Submit feeds one operator message to the session it belongs to.
	// Returns handled=false when no session exists for the message's key.
	Submit(ctx context.Context, msg secondary.MessageEvent) (handled bool, err error)

	// AbortCreation deletes the session for (operator, channel).
	AbortCreation(ctx context.Context, operatorID, channelID string) (AbortResult, error)
}

// BeginRequest contains parameters for opening a session.
type BeginRequest struct {
	OperatorID    string
	ChannelID     string
	GuildID       string
	MemberRoleIDs []string
}

// BeginResult is the outcome of BeginCreation.
type BeginResult int

const (
	BeginStarted BeginResult = iota
	BeginAlreadyActive
	BeginNotAdmin
)

// AbortResult is the outcome of AbortCreation.
type AbortResult int

const (
	AbortAborted AbortResult = iota
	AbortNothingToAbort
)
