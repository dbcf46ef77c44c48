package fetch

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/studynote/internal/pkg/errors"
	"go.uber.org/zap"
)

const (
	maxAttempts  = 3
	maxBodyBytes = 8 << 20
)

// Retry only on transient upstream failures.
var retryableStatus = map[int]struct{}{
	http.StatusInternalServerError: {},
	http.StatusBadGateway:          {},
	http.StatusServiceUnavailable:  {},
	http.StatusGatewayTimeout:      {},
}

type Client struct {
	hc    *http.Client
	cache *lru.LRU[string, []byte]
}

func NewClient(timeout time.Duration) *Client {
	return &Client{
		hc:    &http.Client{Timeout: timeout},
		cache: lru.NewLRU[string, []byte](128, nil, 10*time.Minute),
	}
}

// Get fetches a URL with browser-like headers, retrying transient upstream
// errors with exponential backoff. Successful bodies are cached briefly so
// that re-ingesting the same page does not hammer the origin.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	if body, ok := c.cache.Get(url); ok {
		return body, nil
	}
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<uint(attempt-1)) * time.Second
			backoff += time.Duration(rand.Int63n(int64(500 * time.Millisecond)))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		body, retryable, err := c.do(ctx, url)
		if err == nil {
			c.cache.Add(url, body)
			return body, nil
		}
		lastErr = err
		if !retryable {
			break
		}
		logutil.GetLogger(ctx).Debug("retry fetch", zap.String("url", url),
			zap.Int("attempt", attempt+1), zap.Error(err))
	}
	return nil, fmt.Errorf("%w: get %s: %v", errors.ErrNetwork, url, lastErr)
}

func (c *Client) do(ctx context.Context, url string) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	rsp, err := c.hc.Do(req)
	if err != nil {
		return nil, true, err
	}
	defer rsp.Body.Close()
	if rsp.StatusCode != http.StatusOK {
		_, retryable := retryableStatus[rsp.StatusCode]
		return nil, retryable, fmt.Errorf("unexpected status: %d", rsp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(rsp.Body, maxBodyBytes))
	if err != nil {
		return nil, true, err
	}
	return body, false, nil
}
