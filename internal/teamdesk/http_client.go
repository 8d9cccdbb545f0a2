package teamdesk

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sethvargo/go-retry"
	"golang.org/x/sync/errgroup"
)

const maxErrorBody = 512

type httpClient struct {
	cfg  Config
	http *http.Client
	obs  Observer
}

type page struct {
	skip int
	rows []Row
}

func (c *httpClient) authorization() (string, error) {
	// 1. Prioritize API token
	if c.cfg.Token != "" {
		return "Bearer " + c.cfg.Token, nil
	}

	// 2. Fallback to basic auth
	if c.cfg.User != "" && c.cfg.Password != "" {
		encoded := base64.StdEncoding.EncodeToString([]byte(c.cfg.User + ":" + c.cfg.Password))
		return "Basic " + encoded, nil
	}

	return "", ErrCredentials
}

func (c *httpClient) endpoint() string {
	origin := c.cfg.BaseURL
	if origin == "" {
		origin = "https://" + c.cfg.Domain
	}
	base := fmt.Sprintf("%s/secure/api/v2/%s/%s", origin, c.cfg.AppID, url.PathEscape(c.cfg.Table))
	if c.cfg.View != "" {
		return fmt.Sprintf("%s/%s/select.json", base, url.PathEscape(c.cfg.View))
	}
	return base + "/select.json"
}

// FetchAll reads every row of the configured view. Workers pull sequential
// offsets from a shared cursor until a short page is seen; a failure on any
// page fails the whole run.
func (c *httpClient) FetchAll(ctx context.Context) ([]Row, error) {
	auth, err := c.authorization()
	if err != nil {
		return nil, err
	}

	endpoint := c.endpoint()
	size := c.cfg.PageSize

	var (
		cursor    atomic.Int64
		exhausted atomic.Bool
		mu        sync.Mutex
		pages     []page
	)

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < c.cfg.Concurrency; w++ {
		g.Go(func() error {
			for !exhausted.Load() {
				skip := int(cursor.Add(int64(size))) - size

				rows, err := c.fetchPage(gctx, endpoint, auth, skip)
				if err != nil {
					return fmt.Errorf("page at skip %d: %w", skip, err)
				}

				if len(rows) == 0 {
					exhausted.Store(true)
					break
				}

				mu.Lock()
				pages = append(pages, page{skip: skip, rows: rows})
				mu.Unlock()

				if len(rows) < size {
					exhausted.Store(true)
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	slices.SortFunc(pages, func(a, b page) int {
		return a.skip - b.skip
	})

	total := 0
	for _, p := range pages {
		total += len(p.rows)
	}
	rows := make([]Row, 0, total)
	for _, p := range pages {
		rows = append(rows, p.rows...)
	}

	log.Info().
		Int("rows", len(rows)).
		Int("pages", len(pages)).
		Int("concurrency", c.cfg.Concurrency).
		Dur("elapsed", time.Since(start)).
		Msg("TeamDesk fetch complete")

	return rows, nil
}

func (c *httpClient) backoff(hint *time.Duration) retry.Backoff {
	base := retry.NewExponential(c.cfg.RetryBaseDelay)
	base = retry.WithCappedDuration(c.cfg.RetryMaxDelay, base)
	base = retry.WithMaxRetries(uint64(c.cfg.MaxRetries), base)

	return retry.BackoffFunc(func() (time.Duration, bool) {
		next, stop := base.Next()
		if stop {
			return 0, true
		}
		// Retry-After from the server wins over the computed delay.
		if *hint > 0 {
			next = *hint
			*hint = 0
		}
		return next, false
	})
}

func (c *httpClient) fetchPage(ctx context.Context, endpoint, auth string, skip int) ([]Row, error) {
	params := url.Values{}
	params.Set("skip", strconv.Itoa(skip))
	params.Set("top", strconv.Itoa(c.cfg.PageSize))
	if c.cfg.Filter != "" {
		params.Set("filter", c.cfg.Filter)
	}
	pageURL := endpoint + "?" + params.Encode()

	var (
		hint    time.Duration
		rows    []Row
		attempt int
	)

	err := retry.Do(ctx, c.backoff(&hint), func(ctx context.Context) error {
		attempt++
		started := time.Now()

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("Authorization", auth)

		log.Debug().Str("url", pageURL).Int("attempt", attempt).Msg("Requesting TeamDesk page")
		resp, err := c.http.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("failed to read TeamDesk response: %w", err)
		}

		switch {
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusServiceUnavailable:
			hint = parseRetryAfter(resp.Header.Get("Retry-After"))
			if c.obs != nil {
				c.obs.RetryScheduled(resp.StatusCode)
			}
			log.Warn().
				Int("skip", skip).
				Int("status", resp.StatusCode).
				Int("attempt", attempt).
				Dur("retryAfter", hint).
				Msg("TeamDesk throttled request")
			return retry.RetryableError(newStatusError(resp.StatusCode, body))
		case resp.StatusCode < 200 || resp.StatusCode > 299:
			return newStatusError(resp.StatusCode, body)
		}

		decoded, err := decodeRows(body)
		if err != nil {
			return err
		}
		rows = decoded

		if c.obs != nil {
			c.obs.PageFetched(time.Since(started), len(rows))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func decodeRows(body []byte) ([]Row, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, ErrUnexpectedShape
	}
	var rows []Row
	if err := json.Unmarshal(trimmed, &rows); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnexpectedShape, err)
	}
	return rows, nil
}

func newStatusError(code int, body []byte) *StatusError {
	detail := string(bytes.TrimSpace(body))
	if len(detail) > maxErrorBody {
		detail = detail[:maxErrorBody]
	}
	return &StatusError{StatusCode: code, Body: detail}
}

// parseRetryAfter accepts the delta-seconds form only; fractional seconds are
// honoured.
func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}
	seconds, err := strconv.ParseFloat(header, 64)
	if err != nil || !isFinite(seconds) || seconds <= 0 {
		return 0
	}
	return time.Duration(seconds * float64(time.Second))
}
