package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// healthURL maps any accepted server URL onto the server's /health endpoint.
func healthURL(serverURL string) (string, error) {
	wsURL, err := WebSocketURL(serverURL)
	if err != nil {
		return "", err
	}
	u, _ := url.Parse(wsURL)
	if u.Scheme == "wss" {
		u.Scheme = "https"
	} else {
		u.Scheme = "http"
	}
	u.Path = "/health"
	return u.String(), nil
}

// WaitForServer polls the server's health endpoint until it answers 200 OK
// or ctx is done.
func WaitForServer(ctx context.Context, serverURL string) error {
	target, err := healthURL(serverURL)
	if err != nil {
		return err
	}
	httpClient := &http.Client{Timeout: time.Second}

	delay := 50 * time.Millisecond
	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return err
		}
		if resp, err := httpClient.Do(req); err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("waiting for %s: %w", target, ctx.Err())
		case <-time.After(delay):
		}
		delay = min(delay*2, time.Second)
	}
}
