package extract

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// DefaultProbePorts are the common dev-server ports, tried in order.
var DefaultProbePorts = []int{6006, 6007, 9009, 8080, 3000, 4400, 5173}

const (
	probeTimeout = 750 * time.Millisecond
	probeBodyCap = 64 * 1024
)

// Markers that identify a Storybook dev server's root HTML document.
var fingerprints = []string{"storybook", "sb-show-main", "iframe.html"}

// DetectPort probes ports on host with a short per-port timeout, accepting
// the first one whose root document carries a known content fingerprint.
// Returns false when no port matches; callers must not guess.
func DetectPort(ctx context.Context, host string, ports []int, logger *slog.Logger) (int, bool) {
	if logger == nil {
		logger = slog.Default()
	}
	if host == "" {
		host = "localhost"
	}
	if len(ports) == 0 {
		ports = DefaultProbePorts
	}

	client := &http.Client{Timeout: probeTimeout}
	for _, port := range ports {
		select {
		case <-ctx.Done():
			return 0, false
		default:
		}

		url := fmt.Sprintf("http://%s:%d/", host, port)
		if probeURL(ctx, client, url) {
			logger.Debug("detected dev server", "port", port)
			return port, true
		}
	}
	return 0, false
}

// probeURL confirms liveness with a lightweight request plus a fingerprint
// check on the body, so an unrelated service on a common port is rejected.
func probeURL(ctx context.Context, client *http.Client, url string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}
	resp, err := client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, probeBodyCap))
	if err != nil {
		return false
	}
	haystack := strings.ToLower(string(body))
	for _, marker := range fingerprints {
		if strings.Contains(haystack, marker) {
			return true
		}
	}
	return false
}
