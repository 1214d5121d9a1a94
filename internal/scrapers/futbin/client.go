package futbin

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"playerdata/internal/telemetry"
	"playerdata/internal/textutil"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/antzucaro/matchr"
	"github.com/go-resty/resty/v2"
)

const (
	report_client_search = "client.search"
)

const (
	DefaultBaseUrl = "https://www.futbin.com"
	DefaultYear    = "24"
)

var (
	ErrNoResults = errors.New("no search results")
	ErrNoID      = errors.New("first result has no id")
)

type Options struct {
	BaseUrl   string
	Year      string
	UserAgent string
	Timeout   time.Duration
	// Delay is the pause between the end of one request and the start of the
	// next, 0 disables pacing.
	Delay time.Duration
	// CloudflareBypass wraps the transport so requests look like a regular browser.
	CloudflareBypass bool
	// MinNameSimilarity is the Jaro-Winkler similarity below which a first
	// result whose name differs from the query is reported, 0 disables the check.
	MinNameSimilarity float64
}

type Client struct {
	http       *resty.Client
	tel        telemetry.API
	year       string
	similarity float64
}

func NewClient(opts Options, tel telemetry.API) *Client {
	tel = telemetry.NewScopedAPI("futbin_scraper", tel)

	if opts.BaseUrl == "" {
		opts.BaseUrl = DefaultBaseUrl
	}
	if opts.Year == "" {
		opts.Year = DefaultYear
	}

	httpClient := resty.New()
	httpClient.SetTimeout(opts.Timeout)
	httpClient.SetBaseURL(strings.TrimRight(opts.BaseUrl, "/"))
	if opts.CloudflareBypass {
		httpClient.SetTransport(cloudflarebp.AddCloudFlareByPass(httpClient.GetClient().Transport))
	}
	if opts.UserAgent != "" {
		httpClient.SetHeader("user-agent", opts.UserAgent)
	}

	if opts.Delay > 0 {
		(&pacer{delay: opts.Delay}).instrument(httpClient)
	}
	telemetry.InstrumentResty(httpClient, "playerdata/futbin", tel)

	return &Client{
		http:       httpClient,
		tel:        tel,
		year:       opts.Year,
		similarity: opts.MinNameSimilarity,
	}
}

// SearchResult is one entry of the search endpoint's response. FUTBIN serves ids
// both as numbers and as strings depending on the endpoint version.
type SearchResult struct {
	ID   json.RawMessage `json:"id"`
	Name string          `json:"name"`
}

// ParseID reads a search result id, either a JSON number or a string holding one.
// Zero and empty ids count as absent.
func ParseID(raw json.RawMessage) (json.Number, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", ErrNoID
	}

	var id json.Number
	if raw[0] == '"' {
		var s string
		err := json.Unmarshal(raw, &s)
		if err != nil {
			return "", err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return "", ErrNoID
		}
		id = json.Number(s)
	} else {
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()
		var v any
		err := dec.Decode(&v)
		if err != nil {
			return "", err
		}
		n, ok := v.(json.Number)
		if !ok {
			return "", fmt.Errorf("id is not a number: %s", raw)
		}
		id = n
	}

	value, err := id.Int64()
	if err != nil {
		return "", fmt.Errorf("id is not an integer: %w", err)
	}
	if value == 0 {
		return "", ErrNoID
	}
	return json.Number(fmt.Sprint(value)), nil
}

// Search returns the raw search results for `player`.
func (c *Client) Search(ctx context.Context, player string) ([]SearchResult, error) {
	// the query is built by hand since resty would re-encode spaces as '+'
	link := fmt.Sprintf(
		"/search?year=%s&term=%s",
		textutil.Quote(c.year, ""),
		textutil.Quote(player, ""),
	)
	res, err := c.http.R().
		SetContext(ctx).
		Get(link)
	if err != nil {
		c.tel.ReportWarning(report_client_search, fmt.Errorf("fetch: %w", err), player)
		return nil, err
	}
	if res.StatusCode() != http.StatusOK {
		err = fmt.Errorf("unexpected status %s", res.Status())
		c.tel.ReportWarning(report_client_search, err, player)
		return nil, err
	}

	var results []SearchResult
	err = json.Unmarshal(res.Body(), &results)
	if err != nil {
		c.tel.ReportWarning(report_client_search, fmt.Errorf("unmarshal json: %w", err), player)
		return nil, err
	}
	return results, nil
}

// LookupID returns the id of the first search result for `player`.
func (c *Client) LookupID(ctx context.Context, player string) (json.Number, error) {
	results, err := c.Search(ctx, player)
	if err != nil {
		return "", err
	}
	if len(results) == 0 {
		return "", ErrNoResults
	}

	first := results[0]
	id, err := ParseID(first.ID)
	if err != nil {
		c.tel.ReportWarning(report_client_search, fmt.Errorf("parse id: %w", err), player, string(first.ID))
		return "", err
	}

	if c.similarity > 0 && first.Name != "" {
		similarity := matchr.JaroWinkler(strings.ToLower(player), strings.ToLower(first.Name), false)
		if similarity < c.similarity {
			c.tel.ReportWarning(
				report_client_search,
				fmt.Sprintf("first result %q looks unlike the query", first.Name),
				player,
				similarity,
			)
		}
	}

	return id, nil
}
