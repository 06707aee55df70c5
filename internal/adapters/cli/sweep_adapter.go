package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"

	"github.com/example/rolesmith/internal/ports/primary"
)

// SweepAdapter runs reconciliation passes on demand and prints their reports.
type SweepAdapter struct {
	service primary.ReconcileService
	out     io.Writer
}

// NewSweepAdapter creates a new SweepAdapter with the given service.
func NewSweepAdapter(service primary.ReconcileService, out io.Writer) *SweepAdapter {
	return &SweepAdapter{
		service: service,
		out:     out,
	}
}

// Messages runs the message sweep.
func (a *SweepAdapter) Messages(ctx context.Context) (*primary.SweepReport, error) {
	return a.print(a.service.SweepMessages(ctx))
}

// Guilds runs the guild sweep as of now.
func (a *SweepAdapter) Guilds(ctx context.Context, now time.Time) (*primary.SweepReport, error) {
	return a.print(a.service.SweepGuilds(ctx, now))
}

// Queue runs the queue recheck.
func (a *SweepAdapter) Queue(ctx context.Context) (*primary.SweepReport, error) {
	return a.print(a.service.RecheckQueue(ctx))
}

func (a *SweepAdapter) print(report *primary.SweepReport, err error) (*primary.SweepReport, error) {
	if err != nil {
		if report != nil {
			fmt.Fprintf(a.out, "%s %s sweep %s aborted after %d checks\n",
				color.New(color.FgRed).Sprint("✗"), report.Kind, report.RunID, report.Checked)
		}
		return report, fmt.Errorf("sweep failed: %w", err)
	}

	fmt.Fprintf(a.out, "%s %s sweep %s\n", color.New(color.FgGreen).Sprint("✓"), report.Kind, report.RunID)
	fmt.Fprintf(a.out, "  checked:   %d\n", report.Checked)
	a.count("pruned", report.Pruned, color.FgRed)
	a.count("forbidden", report.Forbidden, color.FgYellow)
	a.count("enqueued", report.Enqueued, color.FgYellow)
	a.count("dequeued", report.Dequeued, color.FgGreen)
	a.count("purged", report.Purged, color.FgRed)
	a.count("skipped", report.Skipped, color.FgBlue)
	return report, nil
}

func (a *SweepAdapter) count(label string, n int, attr color.Attribute) {
	value := fmt.Sprintf("%d", n)
	if n > 0 {
		value = color.New(attr).Sprint(value)
	}
	fmt.Fprintf(a.out, "  %-10s %s\n", label+":", value)
}
