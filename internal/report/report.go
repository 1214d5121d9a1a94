// Package report tracks the per-player progress of an enrichment run and
// renders the summary printed at the end of it.
package report

import (
	"context"
	"fmt"
	"io"
	"strings"

	"playerdata/internal/mapping"

	"github.com/jedib0t/go-pretty/v6/table"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var meter = otel.Meter("playerdata/report")

type Summary struct {
	Tool   string
	Total  int
	Counts map[mapping.Kind]int
	// Missing lists, in processing order, the players that ended without data
	// from the real source (fallback or not found).
	Missing []string
}

type Tracker struct {
	out     io.Writer
	tool    string
	total   int
	done    int
	counts  map[mapping.Kind]int
	missing []string
	results metric.Int64Counter
}

func NewTracker(tool string, total int, out io.Writer) *Tracker {
	// the global meter provider is a no-op unless otel export was configured,
	// in which case creation does not fail for a valid instrument name
	results, _ := meter.Int64Counter(
		"playerdata.player_results",
		metric.WithDescription("players processed, by terminal result"),
	)
	return &Tracker{
		out:     out,
		tool:    tool,
		total:   total,
		counts:  make(map[mapping.Kind]int),
		results: results,
	}
}

// Record accounts for one processed player and prints its progress line.
func (t *Tracker) Record(ctx context.Context, name string, res mapping.Result, status string) {
	t.done++
	t.counts[res.Kind]++
	if !res.Found() {
		t.missing = append(t.missing, name)
	}
	if t.results != nil {
		t.results.Add(ctx, 1, metric.WithAttributes(
			attribute.String("tool", t.tool),
			attribute.String("result", res.Kind.String()),
		))
	}
	fmt.Fprintf(t.out, "[%d/%d] %s: %s\n", t.done, t.total, name, status)
}

func (t *Tracker) Summary() Summary {
	counts := make(map[mapping.Kind]int, len(t.counts))
	for k, v := range t.counts {
		counts[k] = v
	}
	return Summary{
		Tool:    t.tool,
		Total:   t.total,
		Counts:  counts,
		Missing: append([]string(nil), t.missing...),
	}
}

var kindOrder = []mapping.Kind{
	mapping.KindCached,
	mapping.KindFetched,
	mapping.KindFallback,
	mapping.KindNotFound,
}

// Render writes the summary as a table, followed by the missing players if any.
func (s Summary) Render(out io.Writer) {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(out)
	t.AppendHeader(table.Row{"result", "players"})
	for _, kind := range kindOrder {
		if s.Counts[kind] == 0 {
			continue
		}
		t.AppendRow(table.Row{kind.String(), s.Counts[kind]})
	}
	t.AppendFooter(table.Row{"total", s.Total})
	t.Render()

	if len(s.Missing) > 0 {
		fmt.Fprintf(out, "\nThe following players have no %s data: %s\n", s.Tool, strings.Join(s.Missing, ", "))
	}
}
