// Package playerids looks up the FUTBIN id of every player of a roster.
package playerids

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"playerdata/internal/mapping"
	"playerdata/internal/report"
	"playerdata/internal/roster"
	"playerdata/internal/telemetry"
)

const (
	report_fetcher_fetch = "fetcher.fetch"
)

// IDSource resolves a player name to an external id.
type IDSource interface {
	LookupID(ctx context.Context, player string) (json.Number, error)
}

type Fetcher struct {
	source IDSource
	tel    telemetry.API
}

func NewFetcher(source IDSource, tel telemetry.API) *Fetcher {
	return &Fetcher{
		source: source,
		tel:    telemetry.NewScopedAPI("player_ids", tel),
	}
}

// Fetch looks up one player, any failure ends in a not found result.
func (f *Fetcher) Fetch(ctx context.Context, name string) mapping.Result {
	id, err := f.source.LookupID(ctx, name)
	if err != nil {
		return mapping.NotFound(err)
	}
	if id == "" {
		return mapping.NotFound(nil)
	}
	return mapping.Fetched(id.String())
}

// Run looks up every player in the configured roster and writes the ids that were
// found once all of them are processed. Progress lines are printed to `out`.
func Run(ctx context.Context, config Config, source IDSource, tel telemetry.API, out io.Writer) (report.Summary, error) {
	players, err := roster.Load(config.InputPath, config.NameColumn)
	if err != nil {
		return report.Summary{}, fmt.Errorf("load roster: %w", err)
	}
	tel.ReportCount("players", int64(len(players)))

	fetcher := NewFetcher(source, tel)
	tracker := report.NewTracker("FUTBIN id", len(players), out)
	ids := make(map[string]json.Number, len(players))

	for _, player := range players {
		if err := ctx.Err(); err != nil {
			return tracker.Summary(), err
		}

		res := fetcher.Fetch(ctx, player)
		if err := ctx.Err(); err != nil {
			return tracker.Summary(), err
		}
		if res.Cause != nil {
			fetcher.tel.ReportDebug(report_fetcher_fetch, res.Cause, player)
		}

		status := "NOT FOUND"
		if res.HasValue() {
			ids[player] = json.Number(res.Value)
			status = res.Value
		}
		tracker.Record(ctx, player, res, status)
	}

	err = mapping.Write(config.OutputPath, ids)
	if err != nil {
		return tracker.Summary(), fmt.Errorf("write mapping: %w", err)
	}

	fmt.Fprintf(out, "Done! Mapping saved to %s.\n", config.OutputPath)
	return tracker.Summary(), nil
}
