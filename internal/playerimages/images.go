// Package playerimages resolves a profile image for every player of a roster,
// reusing images already on disk, downloading Wikipedia page images and falling
// back to a generated avatar url.
package playerimages

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"unicode"

	"playerdata/internal/mapping"
	"playerdata/internal/report"
	"playerdata/internal/roster"
	"playerdata/internal/telemetry"
	"playerdata/internal/textutil"
)

const (
	report_fetcher_fetch = "fetcher.fetch"
)

// ImageSource is where images are looked up and downloaded from.
type ImageSource interface {
	Thumbnail(ctx context.Context, player string) (string, error)
	DownloadImage(ctx context.Context, link, dest string) (int64, error)
}

// SafeFilename maps a player name to a filesystem safe base name: every rune
// that is not a letter, number, space, '-' or '_' becomes '_', then spaces
// become '_' as well.
func SafeFilename(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsNumber(r), r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
}

// AvatarURL renders `template` for `name`.
func AvatarURL(template, name string) string {
	return strings.ReplaceAll(template, "{name}", textutil.Quote(name, "/"))
}

type Fetcher struct {
	config Config
	source ImageSource
	tel    telemetry.API
}

func NewFetcher(config Config, source ImageSource, tel telemetry.API) *Fetcher {
	return &Fetcher{
		config: config,
		source: source,
		tel:    telemetry.NewScopedAPI("player_images", tel),
	}
}

func (f *Fetcher) filename(name string) string {
	return SafeFilename(name) + f.config.Extension
}

// LocalPath is where the image of `name` is stored on disk.
func (f *Fetcher) LocalPath(name string) string {
	return filepath.Join(f.config.ImagesDir, f.filename(name))
}

// MappedPath is the value written to the mapping for a stored image.
func (f *Fetcher) MappedPath(name string) string {
	return path.Join(filepath.ToSlash(f.config.ImagesDir), f.filename(name))
}

func (f *Fetcher) cached(name string) bool {
	info, err := os.Stat(f.LocalPath(name))
	if err != nil {
		return false
	}
	return info.Mode().IsRegular() && info.Size() > f.config.MinImageBytes
}

// Fetch resolves the image of one player. It never fails: every error ends in
// a fallback result carrying the cause.
func (f *Fetcher) Fetch(ctx context.Context, name string) mapping.Result {
	if f.cached(name) {
		return mapping.Cached(f.MappedPath(name))
	}

	fallback := AvatarURL(f.config.AvatarTemplate, name)

	link, err := f.source.Thumbnail(ctx, name)
	if err != nil {
		return mapping.Fallback(fallback, fmt.Errorf("thumbnail: %w", err))
	}

	_, err = f.source.DownloadImage(ctx, link, f.LocalPath(name))
	if err != nil {
		return mapping.Fallback(fallback, fmt.Errorf("download %s: %w", link, err))
	}

	return mapping.Fetched(f.MappedPath(name))
}

func status(res mapping.Result) string {
	switch res.Kind {
	case mapping.KindCached:
		return "already exists, skipping"
	case mapping.KindFetched:
		return "from Wikipedia"
	default:
		return "using avatar URL"
	}
}

// Run resolves an image for every player in the configured roster and writes the
// mapping once all of them are processed. Progress lines are printed to `out`.
func Run(ctx context.Context, config Config, source ImageSource, tel telemetry.API, out io.Writer) (report.Summary, error) {
	err := os.MkdirAll(config.ImagesDir, 0755)
	if err != nil {
		return report.Summary{}, fmt.Errorf("create images dir: %w", err)
	}

	players, err := roster.Load(config.InputPath, config.NameColumn)
	if err != nil {
		return report.Summary{}, fmt.Errorf("load roster: %w", err)
	}
	tel.ReportCount("players", int64(len(players)))

	fetcher := NewFetcher(config, source, tel)
	tracker := report.NewTracker("image", len(players), out)
	images := make(map[string]string, len(players))

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

		images[player] = res.Value
		tracker.Record(ctx, player, res, status(res))
	}

	err = mapping.Write(config.OutputPath, images)
	if err != nil {
		return tracker.Summary(), fmt.Errorf("write mapping: %w", err)
	}

	fmt.Fprintf(out, "\nDone! %d player images processed.\n", len(players))
	fmt.Fprintf(
		out,
		"Saved to '%s/' and mapping saved to '%s'.\n",
		filepath.ToSlash(config.ImagesDir),
		filepath.ToSlash(config.OutputPath),
	)
	return tracker.Summary(), nil
}
