// Package cli contains adapters that render service results for the command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"

	"github.com/example/rolesmith/internal/core/reconcile"
	"github.com/example/rolesmith/internal/ports/primary"
)

// RegistryAdapter is a thin adapter that translates CLI operations to RegistryService calls.
// It depends only on the RegistryService interface, enabling easy testing with mocks.
type RegistryAdapter struct {
	service primary.RegistryService
	out     io.Writer
}

// NewRegistryAdapter creates a new RegistryAdapter with the given service.
func NewRegistryAdapter(service primary.RegistryService, out io.Writer) *RegistryAdapter {
	return &RegistryAdapter{
		service: service,
		out:     out,
	}
}

// ListGuilds prints every registered guild with its system channel.
func (a *RegistryAdapter) ListGuilds(ctx context.Context) ([]*primary.Guild, error) {
	guilds, err := a.service.ListGuilds(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list guilds: %w", err)
	}

	if len(guilds) == 0 {
		fmt.Fprintln(a.out, "No guilds registered.")
		return guilds, nil
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "GUILD\tSYSTEM CHANNEL\tREGISTERED")
	fmt.Fprintln(w, "-----\t--------------\t----------")
	for _, g := range guilds {
		channel := g.SystemChannelID
		if channel == "" {
			channel = color.New(color.FgYellow).Sprint("(global)")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", g.GuildID, channel, g.CreatedAt)
	}

	w.Flush()
	return guilds, nil
}

// ListSelectors prints selectors with their bindings. An empty channelID
// lists every selector.
func (a *RegistryAdapter) ListSelectors(ctx context.Context, channelID string) ([]*primary.Selector, error) {
	all, err := a.service.ListSelectors(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list selectors: %w", err)
	}

	var selectors []*primary.Selector
	for _, s := range all {
		if channelID == "" || s.ChannelID == channelID {
			selectors = append(selectors, s)
		}
	}

	if len(selectors) == 0 {
		fmt.Fprintln(a.out, "No selectors found.")
		return selectors, nil
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "MESSAGE\tCHANNEL\tGUILD\tBINDINGS")
	fmt.Fprintln(w, "-------\t-------\t-----\t--------")
	for _, s := range selectors {
		bindings, err := a.service.BindingsFor(ctx, s.MessageID)
		if err != nil {
			return nil, fmt.Errorf("failed to list bindings of %s: %w", s.MessageID, err)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", s.MessageID, s.ChannelID, s.GuildID, len(bindings))
	}

	w.Flush()
	return selectors, nil
}

// ListQueue prints the cleanup queue with the age of each entry.
func (a *RegistryAdapter) ListQueue(ctx context.Context, now time.Time, grace time.Duration) ([]*primary.CleanupEntry, error) {
	entries, err := a.service.ListCleanupQueue(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list cleanup queue: %w", err)
	}

	if len(entries) == 0 {
		fmt.Fprintln(a.out, "Cleanup queue is empty.")
		return entries, nil
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "GUILD\tUNREACHABLE SINCE\tSTATE")
	fmt.Fprintln(w, "-----\t-----------------\t-----")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\n", e.GuildID, e.UnreachableSince, queueState(e.UnreachableSince, now, grace))
	}

	w.Flush()
	return entries, nil
}

func queueState(since string, now time.Time, grace time.Duration) string {
	t, err := time.Parse(time.RFC3339, since)
	if err != nil {
		return color.New(color.FgRed).Sprint("INVALID")
	}
	if reconcile.IsGraceExpired(t, now, grace) {
		return color.New(color.FgRed).Sprint("EXPIRED")
	}
	return color.New(color.FgYellow).Sprint("WAITING")
}
