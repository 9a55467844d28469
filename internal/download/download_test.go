package download

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubDoer serves a canned response without a network.
type stubDoer struct {
	status int
	body   []byte
	length int64
}

func (s stubDoer) Do(req *http.Request) (*http.Response, error) {
	return &http.Response{
		StatusCode:    s.status,
		Body:          io.NopCloser(bytes.NewReader(s.body)),
		ContentLength: s.length,
		Request:       req,
	}, nil
}

// stepClock advances by step on every call.
func stepClock(step time.Duration) func() time.Time {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		t := now
		now = now.Add(step)
		return t
	}
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestFetchSuccess(t *testing.T) {
	payload := bytes.Repeat([]byte("maa"), 10000)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Length", strconv.Itoa(len(payload)))
		w.Write(payload)
	}))
	defer server.Close()

	dir := t.TempDir()
	var reports []Progress
	file, err := New(server.Client()).Fetch(context.Background(), server.URL,
		Target{Dir: dir, Prefix: "MaaResource", Ext: ".zip"},
		func(p Progress) { reports = append(reports, p) })
	require.NoError(t, err)

	assert.Equal(t, dir, filepath.Dir(file.Path))
	assert.True(t, strings.HasPrefix(filepath.Base(file.Path), "MaaResource-"))
	assert.Equal(t, ".zip", filepath.Ext(file.Path))
	assert.Equal(t, int64(len(payload)), file.Size)

	data, err := os.ReadFile(file.Path)
	require.NoError(t, err)
	assert.Equal(t, payload, data)

	require.NotEmpty(t, reports)
	last := reports[len(reports)-1]
	assert.Equal(t, 100, last.Percent)
	assert.Equal(t, int64(len(payload)), last.Downloaded)
	assert.Equal(t, int64(len(payload)), last.Total)
}

func TestFetchUniqueNames(t *testing.T) {
	d := New(stubDoer{status: 200, body: []byte("x"), length: 1})
	dir := t.TempDir()
	target := Target{Dir: dir, Prefix: "app", Ext: ".apk"}

	a, err := d.Fetch(context.Background(), "http://example.invalid/a", target, nil)
	require.NoError(t, err)
	b, err := d.Fetch(context.Background(), "http://example.invalid/a", target, nil)
	require.NoError(t, err)
	assert.NotEqual(t, a.Path, b.Path)
	assert.Len(t, listDir(t, dir), 2)
}

func TestFetchNonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer server.Close()

	dir := filepath.Join(t.TempDir(), "scratch")
	file, err := New(server.Client()).Fetch(context.Background(), server.URL, Target{Dir: dir, Prefix: "p"}, nil)
	require.Error(t, err)
	assert.Nil(t, file)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusNotFound, statusErr.Code)
	assert.Empty(t, listDir(t, dir), "no file may be created for a failed status")
}

func TestFetchInterruptedStream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Length", "1000")
		w.Write(bytes.Repeat([]byte("a"), 100))
		w.(http.Flusher).Flush()
		panic(http.ErrAbortHandler)
	}))
	defer server.Close()

	dir := t.TempDir()
	var reports []Progress
	file, err := New(server.Client()).Fetch(context.Background(), server.URL,
		Target{Dir: dir, Prefix: "p", Ext: ".zip"},
		func(p Progress) { reports = append(reports, p) })
	require.Error(t, err)
	assert.Nil(t, file)
	assert.Len(t, listDir(t, dir), 1, "partial file is left in place")
	for _, p := range reports {
		assert.Less(t, p.Percent, 100)
	}
}

func TestFetchShortBody(t *testing.T) {
	d := New(stubDoer{status: 200, body: []byte("short"), length: 50})
	file, err := d.Fetch(context.Background(), "http://example.invalid", Target{Dir: t.TempDir(), Prefix: "p"}, nil)
	require.ErrorIs(t, err, ErrTruncated)
	assert.Nil(t, file)
}

func TestFetchUnknownLength(t *testing.T) {
	d := New(stubDoer{status: 200, body: []byte("hello"), length: -1})
	var last Progress
	file, err := d.Fetch(context.Background(), "http://example.invalid", Target{Dir: t.TempDir(), Prefix: "p"},
		func(p Progress) { last = p })
	require.NoError(t, err)
	assert.Equal(t, int64(5), file.Size)
	assert.Equal(t, Progress{Percent: 0, Speed: last.Speed, Downloaded: 5, Total: 0}, last)
}

func TestFetchThrottlesProgress(t *testing.T) {
	body := bytes.Repeat([]byte("z"), 160)
	d := New(stubDoer{status: 200, body: body, length: int64(len(body))}).
		WithClock(stepClock(100 * time.Millisecond))

	var reports []Progress
	_, err := d.Fetch(context.Background(), "http://example.invalid",
		Target{Dir: t.TempDir(), Prefix: "p", ChunkSize: 16},
		func(p Progress) { reports = append(reports, p) })
	require.NoError(t, err)

	// Ten reads 100ms apart: reports at 300, 600 and 900ms plus the final one.
	require.Len(t, reports, 4)
	assert.Equal(t, Progress{Percent: 30, Speed: "160 B/s", Downloaded: 48, Total: 160}, reports[0])
	assert.Equal(t, Progress{Percent: 60, Speed: "160 B/s", Downloaded: 96, Total: 160}, reports[1])
	assert.Equal(t, Progress{Percent: 90, Speed: "160 B/s", Downloaded: 144, Total: 160}, reports[2])
	assert.Equal(t, Progress{Percent: 100, Speed: "80 B/s", Downloaded: 160, Total: 160}, reports[3])
}

func TestFetchChecksum(t *testing.T) {
	body := []byte("resource bundle")
	sum := sha256.Sum256(body)
	digest := hex.EncodeToString(sum[:])

	d := New(stubDoer{status: 200, body: body, length: int64(len(body))})
	file, err := d.Fetch(context.Background(), "http://example.invalid",
		Target{Dir: t.TempDir(), Prefix: "p", SHA256: strings.ToUpper(digest)}, nil)
	require.NoError(t, err)
	assert.Equal(t, digest, file.SHA256)

	_, err = d.Fetch(context.Background(), "http://example.invalid",
		Target{Dir: t.TempDir(), Prefix: "p", SHA256: "deadbeef"}, nil)
	assert.ErrorIs(t, err, ErrChecksum)
}

func TestFetchCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d := New(stubDoer{status: 200, body: []byte("data"), length: 4})
	_, err := d.Fetch(ctx, "http://example.invalid", Target{Dir: t.TempDir(), Prefix: "p"}, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFormatSpeed(t *testing.T) {
	tests := []struct {
		rate float64
		want string
	}{
		{0, "0 B/s"},
		{512.9, "512 B/s"},
		{1024, "1.0 KB/s"},
		{1536, "1.5 KB/s"},
		{1024 * 1024, "1.0 MB/s"},
		{2.5 * 1024 * 1024, "2.5 MB/s"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatSpeed(tt.rate), "rate %v", tt.rate)
	}
}
