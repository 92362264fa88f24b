package client

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// FeedClient fetches the camera feed and camera images
type FeedClient struct {
	HTTP   *resty.Client
	Config ClientConfig
}

// ClientConfig configures the upstream HTTP client
type ClientConfig struct {
	Timeout   time.Duration
	UserAgent string
}

// DefaultUserAgent identifies the gallery to camera hosts
const DefaultUserAgent = "trafficcams/1.0"

func New(cfg ClientConfig) *FeedClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}

	r := resty.New()
	r.SetTimeout(cfg.Timeout)
	r.SetHeader("User-Agent", cfg.UserAgent)

	return &FeedClient{
		HTTP:   r,
		Config: cfg,
	}
}

// noStore asks every cache on the way to revalidate
func noStore(req *resty.Request) *resty.Request {
	return req.
		SetHeader("Cache-Control", "no-cache, no-store").
		SetHeader("Pragma", "no-cache")
}

// GetFeed downloads the raw camera feed body, bypassing caches
func (c *FeedClient) GetFeed(ctx context.Context, feedURL string) ([]byte, error) {
	resp, err := noStore(c.HTTP.R().SetContext(ctx)).
		SetHeader("Accept", "application/json").
		Get(feedURL)

	if err != nil {
		return nil, err
	}

	if resp.IsError() {
		return nil, fmt.Errorf("failed to fetch feed: %s", resp.Status())
	}

	return resp.Body(), nil
}

// Bust returns rawURL with its "t" query parameter set to now in unix
// milliseconds so intermediate caches serve a fresh image.
func Bust(rawURL string, now time.Time) string {
	token := strconv.FormatInt(now.UnixMilli(), 10)

	u, err := url.Parse(rawURL)
	if err != nil {
		sep := "?"
		if strings.Contains(rawURL, "?") {
			sep = "&"
		}
		return rawURL + sep + "t=" + token
	}

	q := u.Query()
	q.Set("t", token)
	u.RawQuery = q.Encode()
	return u.String()
}
