// Package registry implements the HTTP-backed collaborators of the expansion
// pipeline: the publication-channel registry, the person directory and the
// organization registry. Each client is injected into the assemblers rather
// than shared through process-wide state, and each is safe for concurrent
// use.
package registry

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v3"
	"github.com/pkg/errors"
)

// client is the HTTP plumbing shared by the registry clients.
type client struct {
	baseURL   *url.URL
	client    *http.Client
	userAgent string
}

func newClient(baseURL, userAgent string) (*client, error) {
	var u *url.URL
	if baseURL != "" {
		var err error
		u, err = url.Parse(baseURL)
		if err != nil {
			return nil, errors.Wrapf(err, "parsing registry URL %q", baseURL)
		}
	}

	// Custom HTTP client with sane defaults; the upstream registries can be
	// slow so the totals are generous.
	const (
		dialTimeout      = 5 * time.Second
		handshakeTimeout = 5 * time.Second
		timeout          = 10 * time.Second
	)
	return &client{
		baseURL:   u,
		userAgent: userAgent,
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				DialContext:         (&net.Dialer{Timeout: dialTimeout}).DialContext,
				TLSHandshakeTimeout: handshakeTimeout,
			},
		},
	}, nil
}

// get delivers a GET request with exponential backoff. Timeouts and server
// errors are retried; client errors and ordinary not-found responses are
// returned to the caller untouched.
func (c *client) get(ctx context.Context, urlStr, accept string) (*http.Response, error) {
	rel, err := url.Parse(urlStr)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing the URL string %q", urlStr)
	}
	dest := rel
	if c.baseURL != nil {
		dest = c.baseURL.ResolveReference(rel)
	}

	req, err := http.NewRequest("GET", dest.String(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "creating request")
	}
	req = req.WithContext(ctx)
	req.Header.Set("Accept", accept)
	req.Header.Set("User-Agent", c.userAgent)

	var backoffStrategy = backoff.WithContext(&backoff.ExponentialBackOff{
		InitialInterval:     500 * time.Millisecond,
		RandomizationFactor: 0.5,
		Multiplier:          1.5,
		MaxInterval:         10 * time.Second,
		MaxElapsedTime:      time.Minute,
		Clock:               backoff.SystemClock,
	}, ctx)

	var resp *http.Response
	err = backoff.Retry(
		func() error {
			resp, err = c.client.Do(req)
			if err != nil {
				return err
			}
			if resp.StatusCode >= 500 {
				resp.Body.Close()
				return fmt.Errorf("%s (server error)", http.StatusText(resp.StatusCode))
			}
			return nil
		},
		backoffStrategy,
	)

	return resp, err
}
