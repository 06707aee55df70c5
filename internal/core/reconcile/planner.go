// Package reconcile contains the pure decision logic of registry sweeps.
// Planners take pre-fetched platform observations and return effects; all
// fetching and effect execution happens in the caller.
package reconcile

import (
	"fmt"
	"time"

	"github.com/example/rolesmith/internal/core/effects"
	"github.com/example/rolesmith/internal/core/mention"
)

// FetchStatus is what a sweep observed when fetching a platform object.
type FetchStatus int

const (
	// StatusReachable means the object was fetched.
	StatusReachable FetchStatus = iota
	// StatusNotFound means the platform confirmed the object is gone.
	StatusNotFound
	// StatusForbidden means the bot lost access; the object may still exist.
	StatusForbidden
	// StatusTransient covers rate limits, outages and unclassified failures.
	StatusTransient
)

func (s FetchStatus) String() string {
	switch s {
	case StatusReachable:
		return "reachable"
	case StatusNotFound:
		return "not_found"
	case StatusForbidden:
		return "forbidden"
	case StatusTransient:
		return "transient"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// unreachable reports whether a guild fetch counts as unreachable for the
// cleanup queue.
func (s FetchStatus) unreachable() bool {
	return s == StatusForbidden || s == StatusNotFound
}

// Verdict summarizes what a plan does, for sweep reports.
type Verdict int

const (
	VerdictNone Verdict = iota
	VerdictPruned
	VerdictForbidden
	VerdictEnqueued
	VerdictDequeued
	VerdictPurged
	// VerdictSkipped means a transient failure left the object for the next sweep.
	VerdictSkipped
)

// DefaultGracePeriod is how long a guild stays queued before it is purged.
const DefaultGracePeriod = 24 * time.Hour

// Plan is the outcome of one planning step.
type Plan struct {
	Verdict Verdict
	Effects []effects.Effect
}

// MessageCheckInput contains pre-fetched data for one selector.
// MessageStatus is only consulted when the channel was reachable.
type MessageCheckInput struct {
	MessageID     string
	ChannelID     string
	GuildID       string
	ChannelStatus FetchStatus
	MessageStatus FetchStatus
}

// PlanMessageCheck decides what happens to a selector after its channel and
// message were fetched.
// Rules:
// - NotFound at either step prunes the selector and its bindings
// - Forbidden at either step notifies the guild, nothing is deleted
// - Transient leaves everything untouched and only logs the skip
func PlanMessageCheck(in MessageCheckInput) Plan {
	status := in.ChannelStatus
	if status == StatusReachable {
		status = in.MessageStatus
	}

	switch status {
	case StatusNotFound:
		return Plan{
			Verdict: VerdictPruned,
			Effects: []effects.Effect{
				effects.PersistEffect{
					Entity:    effects.EntitySelector,
					Operation: effects.OpDelete,
					Key:       in.MessageID,
				},
				effects.NotifyEffect{
					GuildID: in.GuildID,
					Text: fmt.Sprintf("I deleted the database entries of a message that was removed."+
						"\n\nID: %s in %s", in.MessageID, mention.Channel(in.ChannelID)),
				},
			},
		}
	case StatusForbidden:
		return Plan{
			Verdict: VerdictForbidden,
			Effects: []effects.Effect{
				effects.NotifyEffect{
					GuildID: in.GuildID,
					Text: fmt.Sprintf("I do not have access to a message I have created anymore. "+
						"I cannot manage the roles of users reacting to it."+
						"\n\nID: %s in channel %s", in.MessageID, in.ChannelID),
				},
			},
		}
	case StatusTransient:
		return skipped("selector check skipped", map[string]any{
			"message_id": in.MessageID,
			"channel_id": in.ChannelID,
		})
	default:
		return Plan{Verdict: VerdictNone}
	}
}

// GuildCheckInput contains pre-fetched data for one registered guild.
type GuildCheckInput struct {
	GuildID string
	Status  FetchStatus
	Queued  bool
	Now     time.Time
}

// PlanGuildCheck decides how a guild fetch changes the cleanup queue.
// Rules:
// - Reachable and queued: dequeue
// - Unreachable and not queued: enqueue with Now
// - Unreachable and queued: no change, the entry keeps aging
// - Transient: no change, logged as a skip
func PlanGuildCheck(in GuildCheckInput) Plan {
	switch {
	case in.Status == StatusTransient:
		return skipped("guild check skipped", map[string]any{"guild_id": in.GuildID})
	case in.Status == StatusReachable && in.Queued:
		return dequeue(in.GuildID)
	case in.Status.unreachable() && !in.Queued:
		return Plan{
			Verdict: VerdictEnqueued,
			Effects: []effects.Effect{
				effects.PersistEffect{
					Entity:    effects.EntityCleanupQueue,
					Operation: effects.OpEnqueue,
					Key:       in.GuildID,
					At:        in.Now,
				},
			},
		}
	default:
		return Plan{Verdict: VerdictNone}
	}
}

// IsGraceExpired reports whether a guild queued since `since` has been
// unreachable for strictly longer than grace.
func IsGraceExpired(since, now time.Time, grace time.Duration) bool {
	return now.Sub(since) > grace
}

// FinalCheckInput contains the last fetch of a guild whose grace expired.
type FinalCheckInput struct {
	GuildID string
	Status  FetchStatus
}

// PlanFinalCheck decides the fate of a guild whose grace period expired.
// Rules:
// - Reachable: dequeue
// - Unreachable: purge every row of the guild, dequeue, notify globally
// - Transient: stays queued for the next sweep
func PlanFinalCheck(in FinalCheckInput) Plan {
	switch {
	case in.Status == StatusTransient:
		return skipped("final guild check skipped", map[string]any{"guild_id": in.GuildID})
	case in.Status == StatusReachable:
		return dequeue(in.GuildID)
	case in.Status.unreachable():
		return Plan{
			Verdict: VerdictPurged,
			Effects: []effects.Effect{
				effects.PersistEffect{
					Entity:    effects.EntityGuild,
					Operation: effects.OpPurge,
					Key:       in.GuildID,
				},
				effects.PersistEffect{
					Entity:    effects.EntityCleanupQueue,
					Operation: effects.OpDequeue,
					Key:       in.GuildID,
				},
				effects.NotifyEffect{
					Text: fmt.Sprintf("I removed the database entries of server %s after it stayed"+
						" unreachable past the grace period.", in.GuildID),
				},
			},
		}
	default:
		return Plan{Verdict: VerdictNone}
	}
}

// PlanRecheck decides what a queue recheck does with one queued guild.
// Only recovery is acted on; purging is left to the guild sweep.
func PlanRecheck(guildID string, status FetchStatus) Plan {
	switch status {
	case StatusReachable:
		return dequeue(guildID)
	case StatusTransient:
		return skipped("queue recheck skipped", map[string]any{"guild_id": guildID})
	default:
		return Plan{Verdict: VerdictNone}
	}
}

func skipped(msg string, fields map[string]any) Plan {
	return Plan{
		Verdict: VerdictSkipped,
		Effects: []effects.Effect{
			effects.LogEffect{Level: "warn", Message: msg, Fields: fields},
		},
	}
}

func dequeue(guildID string) Plan {
	return Plan{
		Verdict: VerdictDequeued,
		Effects: []effects.Effect{
			effects.PersistEffect{
				Entity:    effects.EntityCleanupQueue,
				Operation: effects.OpDequeue,
				Key:       guildID,
			},
		},
	}
}
