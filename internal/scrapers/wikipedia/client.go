package wikipedia

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"playerdata/internal/telemetry"

	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"
	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

const (
	report_client_thumbnail = "client.thumbnail"
	report_client_download  = "client.download"
)

const DefaultBaseUrl = "https://en.wikipedia.org/w/api.php"

// ErrNoThumbnail is returned by Thumbnail when the query succeeded but no page
// carries a page image.
var ErrNoThumbnail = errors.New("no thumbnail")

type Options struct {
	BaseUrl       string
	UserAgent     string
	Timeout       time.Duration
	ThumbnailSize int
	// RequestsPerSecond caps the request rate, 0 leaves it unlimited.
	RequestsPerSecond float64
}

type Client struct {
	http          *resty.Client
	tel           telemetry.API
	thumbnailSize int
}

func NewClient(opts Options, tel telemetry.API) *Client {
	tel = telemetry.NewScopedAPI("wikipedia_scraper", tel)

	if opts.BaseUrl == "" {
		opts.BaseUrl = DefaultBaseUrl
	}
	if opts.ThumbnailSize <= 0 {
		opts.ThumbnailSize = 500
	}

	httpClient := resty.New()
	httpClient.SetTimeout(opts.Timeout)
	httpClient.SetBaseURL(opts.BaseUrl)
	if opts.UserAgent != "" {
		httpClient.SetHeader("user-agent", opts.UserAgent)
	}

	if opts.RequestsPerSecond > 0 {
		// burst >= 1 so that a request is never rejected, only delayed
		burst := max(1, int(opts.RequestsPerSecond))
		rateLimiter := rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst)
		httpClient.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
			return rateLimiter.Wait(req.Context())
		})
	}
	telemetry.InstrumentResty(httpClient, "playerdata/wikipedia", tel)

	return &Client{
		http:          httpClient,
		tel:           tel,
		thumbnailSize: opts.ThumbnailSize,
	}
}

type pageImagesResponse struct {
	Query struct {
		Pages map[string]struct {
			Title     string `json:"title"`
			Thumbnail *struct {
				Source string `json:"source"`
			} `json:"thumbnail"`
		} `json:"pages"`
	} `json:"query"`
}

// PageTitle turns a player name into the title Wikipedia expects.
func PageTitle(player string) string {
	return strings.ReplaceAll(player, " ", "_")
}

// Thumbnail returns the url of the page image of the article titled after `player`.
func (c *Client) Thumbnail(ctx context.Context, player string) (string, error) {
	res, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"action":      "query",
			"prop":        "pageimages",
			"format":      "json",
			"pithumbsize": strconv.Itoa(c.thumbnailSize),
			"titles":      PageTitle(player),
		}).
		Get("")
	if err != nil {
		c.tel.ReportWarning(report_client_thumbnail, fmt.Errorf("fetch: %w", err), player)
		return "", err
	}
	if res.StatusCode() != http.StatusOK {
		err = fmt.Errorf("unexpected status %s", res.Status())
		c.tel.ReportWarning(report_client_thumbnail, err, player)
		return "", err
	}

	var parsed pageImagesResponse
	err = json.Unmarshal(res.Body(), &parsed)
	if err != nil {
		c.tel.ReportWarning(report_client_thumbnail, fmt.Errorf("unmarshal json: %w", err), player)
		return "", err
	}

	// page ids are numeric, missing pages get negative ids
	ids := make([]string, 0, len(parsed.Query.Pages))
	for id := range parsed.Query.Pages {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, func(a, b string) int {
		ai, aerr := strconv.Atoi(a)
		bi, berr := strconv.Atoi(b)
		if aerr != nil || berr != nil {
			return strings.Compare(a, b)
		}
		return ai - bi
	})

	for _, id := range ids {
		page := parsed.Query.Pages[id]
		if page.Thumbnail != nil && page.Thumbnail.Source != "" {
			return page.Thumbnail.Source, nil
		}
	}

	c.tel.ReportDebug("no page image", player, len(ids))
	return "", ErrNoThumbnail
}

// DownloadImage fetches `link` and stores it at `dest`. The response must be a 200
// whose body sniffs as an image, otherwise nothing is written.
func (c *Client) DownloadImage(ctx context.Context, link, dest string) (int64, error) {
	res, err := c.http.R().
		SetContext(ctx).
		Get(link)
	if err != nil {
		c.tel.ReportWarning(report_client_download, fmt.Errorf("fetch: %w", err), link)
		return 0, err
	}
	if res.StatusCode() != http.StatusOK {
		err = fmt.Errorf("unexpected status %s", res.Status())
		c.tel.ReportWarning(report_client_download, err, link)
		return 0, err
	}

	body := res.Body()
	mime := mimetype.Detect(body)
	if !strings.HasPrefix(mime.String(), "image/") {
		err = fmt.Errorf("not an image: %s", mime.String())
		c.tel.ReportWarning(report_client_download, err, link)
		return 0, err
	}

	err = writeFile(dest, body)
	if err != nil {
		c.tel.ReportWarning(report_client_download, fmt.Errorf("write: %w", err), dest)
		return 0, err
	}

	c.tel.ReportDebug("downloaded image", link, mime.String(), humanize.Bytes(uint64(len(body))))
	return int64(len(body)), nil
}

func writeFile(dest string, contents []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(dest), filepath.Base(dest)+".*.part")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	_, err = tmp.Write(contents)
	if err != nil {
		tmp.Close()
		return err
	}
	err = tmp.Close()
	if err != nil {
		return err
	}
	err = os.Chmod(tmp.Name(), 0644)
	if err != nil {
		return err
	}
	return os.Rename(tmp.Name(), dest)
}
