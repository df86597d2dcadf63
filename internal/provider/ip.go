package provider

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"strings"
)

// checkIPURL matches original_source's choice of echo service for
// discovering the client's own public IPv4 address.
const checkIPURL = "http://checkip.amazonaws.com/"

func discoverPublicIP(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, checkIPURL, nil)
	if err != nil {
		return "", fmt.Errorf("building request to %s: %w", checkIPURL, err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching public IP from %s: %w", checkIPURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d from %s", resp.StatusCode, checkIPURL)
	}

	line, err := bufio.NewReader(resp.Body).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("reading response from %s: %w", checkIPURL, err)
	}

	return strings.TrimSpace(line) + "/32", nil
}
