package venue

// client.go — HTTP compartido por los gateways de venue.
//
// Deliberadamente sin retries ni rate limiting: esa política vive en
// application/fetch, que envuelve a estos gateways. Aquí solo se hace la
// llamada y se clasifica el fallo en transitorio (red, timeout, 429, 5xx)
// o permanente (4xx, respuesta malformada) vía domain.FetchError.

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/jgarciad/arbscan/internal/domain"
)

type httpClient struct {
	venue string
	base  string
	http  *http.Client
}

func newHTTPClient(venue, base string) *httpClient {
	// El timeout por request lo impone el contexto del fetcher.
	return &httpClient{venue: venue, base: base, http: &http.Client{}}
}

// getJSON hace un GET y decodifica la respuesta, clasificando los fallos.
func (c *httpClient) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return domain.NewPermanentError(c.venue, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return domain.NewTransientError(c.venue, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		io.Copy(io.Discard, resp.Body)
		return domain.NewTransientError(c.venue, fmt.Errorf("status %d", resp.StatusCode))
	case resp.StatusCode >= 400:
		body, _ := io.ReadAll(resp.Body)
		return domain.NewPermanentError(c.venue, fmt.Errorf("status %d: %s", resp.StatusCode, string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return domain.NewPermanentError(c.venue, fmt.Errorf("decode response: %w", err))
	}
	return nil
}
