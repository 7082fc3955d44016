package adapters

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"
	"golang.org/x/term"

	"emsdk/internal/ports"
	"emsdk/internal/shared"
)

const defaultFetchRetries = 3
const defaultFetchRetryDelay = 500 * time.Millisecond
const defaultFetchTimeout = 30 * time.Minute
const maxFetchRetryDelay = 8 * time.Second

// HTTPFetchAdapter downloads payloads. Bytes go to <dst>.part and the file is
// renamed into place only once the length matches Content-Length, so an
// existing dst is always a complete earlier download.
type HTTPFetchAdapter struct {
	Timeout    time.Duration
	Retries    int
	RetryDelay time.Duration
	// Progress receives a live percentage line when it is a terminal.
	Progress io.Writer
	client   *http.Client
}

func NewHTTPFetchAdapter(timeoutSec int, retries int, retryDelayMs int) HTTPFetchAdapter {
	timeout := normalizeFetchTimeout(timeoutSec)
	return HTTPFetchAdapter{
		Timeout:    timeout,
		Retries:    normalizeFetchRetries(retries),
		RetryDelay: normalizeFetchRetryDelay(retryDelayMs),
		Progress:   os.Stdout,
		client:     &http.Client{Timeout: timeout},
	}
}

func (a HTTPFetchAdapter) Fetch(ctx context.Context, url string, dst string) error {
	if strings.TrimSpace(url) == "" {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("download url is empty")
	}
	if info, err := os.Stat(dst); err == nil && info.Mode().IsRegular() {
		log.Ctx(ctx).Debug().Str("file", dst).Msg("already downloaded, skipping")
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodePermissionDenied).
			WithMsg("failed to create download directory").
			WithCause(err)
	}

	log.Ctx(ctx).Info().Str("url", url).Str("file", dst).Msg("downloading")
	retries := normalizeFetchRetries(a.Retries)
	var lastErr error
	for attempt := 0; attempt < retries; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		retry, err := a.fetchOnce(ctx, url, dst)
		if err == nil {
			return nil
		}
		lastErr = err
		if !retry || attempt == retries-1 {
			return err
		}
		log.Ctx(ctx).Warn().Err(err).Int("attempt", attempt+1).Msg("download failed, retrying")
		if err := sleepContext(ctx, a.fetchRetryDelay(attempt)); err != nil {
			return err
		}
	}
	if lastErr == nil {
		lastErr = errbuilder.New().
			WithCode(errbuilder.CodeUnavailable).
			WithMsg("download failed")
	}
	return lastErr
}

func (a HTTPFetchAdapter) fetchOnce(ctx context.Context, url string, dst string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("failed to create download request").
			WithCause(err)
	}
	resp, err := a.httpClient().Do(req)
	if err != nil {
		return true, errbuilder.New().
			WithCode(errbuilder.CodeUnavailable).
			WithMsg("download failed").
			WithCause(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		retry := resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests
		return retry, errbuilder.New().
			WithCode(errbuilder.CodeUnavailable).
			WithMsg("download failed").
			WithCause(shared.HTTPStatusError(resp.StatusCode, url))
	}

	part := dst + ".part"
	out, err := os.Create(part)
	if err != nil {
		return false, errbuilder.New().
			WithCode(errbuilder.CodePermissionDenied).
			WithMsg("failed to create download file").
			WithCause(err)
	}
	defer func() { _ = os.Remove(part) }()

	var body io.Reader = resp.Body
	progress := a.progress(filepath.Base(dst), resp.ContentLength)
	if progress != nil {
		body = io.TeeReader(resp.Body, progress)
	}
	written, copyErr := io.Copy(out, body)
	closeErr := out.Close()
	if progress != nil {
		progress.finish()
	}
	if copyErr != nil {
		return true, errbuilder.New().
			WithCode(errbuilder.CodeUnavailable).
			WithMsg("download interrupted").
			WithCause(copyErr)
	}
	if closeErr != nil {
		return false, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to write download file").
			WithCause(closeErr)
	}
	if resp.ContentLength < 0 {
		log.Ctx(ctx).Warn().Str("url", url).Int64("bytes", written).Msg("server sent no content length, download size not verified")
	} else if written != resp.ContentLength {
		return true, errbuilder.New().
			WithCode(errbuilder.CodeUnavailable).
			WithMsg("download truncated").
			WithCause(fmt.Errorf("got %d of %d bytes from %s", written, resp.ContentLength, url))
	}
	if err := os.Rename(part, dst); err != nil {
		return false, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to move download into place").
			WithCause(err)
	}
	return false, nil
}

// sleepContext waits for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (a HTTPFetchAdapter) httpClient() *http.Client {
	if a.client != nil {
		return a.client
	}
	return &http.Client{Timeout: normalizeFetchTimeout(int(a.Timeout / time.Second))}
}

func (a HTTPFetchAdapter) fetchRetryDelay(attempt int) time.Duration {
	delay := normalizeFetchRetryDelay(int(a.RetryDelay/time.Millisecond)) * time.Duration(1<<attempt)
	if delay > maxFetchRetryDelay {
		delay = maxFetchRetryDelay
	}
	jitter := time.Duration(time.Now().UnixNano() % int64(delay/2+1))
	return delay + jitter
}

func normalizeFetchTimeout(value int) time.Duration {
	timeout := time.Duration(value) * time.Second
	if timeout <= 0 {
		return defaultFetchTimeout
	}
	return timeout
}

func normalizeFetchRetries(value int) int {
	if value <= 0 {
		return defaultFetchRetries
	}
	return value
}

func normalizeFetchRetryDelay(value int) time.Duration {
	delay := time.Duration(value) * time.Millisecond
	if delay <= 0 {
		return defaultFetchRetryDelay
	}
	return delay
}

type progressWriter struct {
	out     io.Writer
	name    string
	total   int64
	written int64
	percent int64
}

// progress returns nil unless Progress is an interactive terminal.
func (a HTTPFetchAdapter) progress(name string, total int64) *progressWriter {
	file, ok := a.Progress.(*os.File)
	if !ok || !term.IsTerminal(int(file.Fd())) {
		return nil
	}
	return &progressWriter{out: a.Progress, name: name, total: total, percent: -1}
}

func (p *progressWriter) Write(b []byte) (int, error) {
	p.written += int64(len(b))
	if p.total <= 0 {
		return len(b), nil
	}
	percent := p.written * 100 / p.total
	if percent != p.percent {
		p.percent = percent
		fmt.Fprintf(p.out, "\r  %s: %3d%% (%.1f/%.1f MB)", p.name, percent, float64(p.written)/1e6, float64(p.total)/1e6)
	}
	return len(b), nil
}

func (p *progressWriter) finish() {
	if p.total > 0 {
		fmt.Fprintln(p.out)
	}
}

// HTTPReleaseProbe checks whether a release build was published.
type HTTPReleaseProbe struct {
	client *http.Client
}

func NewHTTPReleaseProbe(timeoutSec int) HTTPReleaseProbe {
	timeout := time.Duration(timeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return HTTPReleaseProbe{client: &http.Client{Timeout: timeout}}
}

func (p HTTPReleaseProbe) Exists(ctx context.Context, url string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return false, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("failed to create probe request").
			WithCause(err)
	}
	client := p.client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return false, errbuilder.New().
			WithCode(errbuilder.CodeUnavailable).
			WithMsg("release probe failed").
			WithCause(err)
	}
	defer resp.Body.Close()
	return resp.StatusCode >= 200 && resp.StatusCode < 300, nil
}

var _ ports.FetchPort = HTTPFetchAdapter{}
var _ ports.ReleaseProbePort = HTTPReleaseProbe{}
