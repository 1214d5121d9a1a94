package telemetry

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

type recordedReport struct {
	kind   string
	id     string
	params []any
}

type recordingAPI struct {
	reports []recordedReport
}

func (r *recordingAPI) ReportBroken(id string, params ...any) {
	r.reports = append(r.reports, recordedReport{kind: "broken", id: id, params: params})
}

func (r *recordingAPI) ReportWarning(id string, params ...any) {
	r.reports = append(r.reports, recordedReport{kind: "warning", id: id, params: params})
}

func (r *recordingAPI) ReportDebug(msg string, params ...any) {
	r.reports = append(r.reports, recordedReport{kind: "debug", id: msg, params: params})
}

func (r *recordingAPI) ReportCount(id string, count int64) {
	r.reports = append(r.reports, recordedReport{kind: "count", id: id, params: []any{count}})
}

func TestScopedAPI(t *testing.T) {
	inner := &recordingAPI{}
	scoped := NewScopedAPI("wikipedia_scraper", inner)

	scoped.ReportBroken("client.thumbnail", "a")
	scoped.ReportWarning("client.download", "b")
	scoped.ReportDebug("request", "c")
	scoped.ReportCount("players", 3)

	require.Equal(t, []recordedReport{
		{kind: "broken", id: "wikipedia_scraper:client.thumbnail", params: []any{"a"}},
		{kind: "warning", id: "wikipedia_scraper:client.download", params: []any{"b"}},
		{kind: "debug", id: "wikipedia_scraper:request", params: []any{"c"}},
		{kind: "count", id: "wikipedia_scraper:players", params: []any{int64(3)}},
	}, inner.reports)
}

func TestSlogAPIRespectsLevel(t *testing.T) {
	buff := &bytes.Buffer{}
	tel := NewSlogAPI(buff, slog.LevelInfo)

	tel.ReportDebug("hidden", 1)
	require.Empty(t, buff.String())

	tel.ReportWarning("client.search", errors.New("status 503"), "Harry Kane")
	out := buff.String()
	require.Contains(t, out, "level=WARN")
	require.Contains(t, out, "id=client.search")
	require.Contains(t, out, `err="status 503"`)
	require.Contains(t, out, `params.1="Harry Kane"`)
}

func TestZeroTelemetryShutdown(t *testing.T) {
	require.NoError(t, Telemetry{}.Shutdown(context.Background()))
}

// chdir moves the test into `dir` for its duration.
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() {
		_ = os.Chdir(wd)
	})
}

func TestSetupFromEnvWithoutConfig(t *testing.T) {
	chdir(t, t.TempDir())

	tel, err := SetupFromEnv(context.Background(), "playerdata-test")
	require.NoError(t, err)
	require.Nil(t, tel.TracerProvider)
	require.Nil(t, tel.MeterProvider)
}

func TestSetupFromEnvExportsOverHttp(t *testing.T) {
	var mutex sync.Mutex
	received := map[string]int{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mutex.Lock()
		received[r.URL.Path]++
		mutex.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	dir := t.TempDir()
	err := os.WriteFile(filepath.Join(dir, "telemetry.json5"), []byte(fmt.Sprintf(`{
		otlp: {
			traces: {http_endpoint: "%[1]s/v1/traces"},
			metrics: {http_endpoint: "%[1]s/v1/metrics"},
		},
	}`, server.URL)), 0600)
	require.NoError(t, err)
	nested := filepath.Join(dir, "nested")
	require.NoError(t, os.Mkdir(nested, 0755))
	chdir(t, nested)

	tel, err := SetupFromEnv(context.Background(), "playerdata-test")
	require.NoError(t, err)
	require.NotNil(t, tel.TracerProvider)
	require.NotNil(t, tel.MeterProvider)

	_, span := otel.Tracer("playerdata/test").Start(context.Background(), "lookup")
	span.End()
	counter, err := otel.Meter("playerdata/test").Int64Counter("players")
	require.NoError(t, err)
	counter.Add(context.Background(), 1)

	require.NoError(t, tel.Shutdown(context.Background()))

	mutex.Lock()
	defer mutex.Unlock()
	require.Equal(t, 1, received["/v1/traces"])
	require.GreaterOrEqual(t, received["/v1/metrics"], 1)
}
