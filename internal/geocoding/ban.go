package geocoding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/Houeta/addrcheck/internal/models"
)

// BANBaseURL is the search endpoint of the Base Adresse Nationale, the
// French national address database. Free to use, no API key required.
const BANBaseURL = "https://api-adresse.data.gouv.fr/search/"

// BANProvider implements the Provider interface using the BAN search API.
// Each candidate carries a match-confidence score in [0, 1], which makes it
// the default provider for address verification.
type BANProvider struct {
	client  HTTPClient   // HTTP client for making requests
	baseURL string       // Base URL for the BAN search API
	log     *slog.Logger // Logger for logging operations
}

// Common errors for the BAN provider.
var (
	ErrBANEmptyResponse = errors.New("BAN API returned no candidate")
	ErrBANMissingScore  = errors.New("BAN API candidate has no score")
	ErrBANEmptyQuery    = errors.New("BAN provider got empty query")
)

// banResponse mirrors the GeoJSON shape returned by the BAN search endpoint.
// Score is a pointer so an absent field is distinguishable from 0.0.
type banResponse struct {
	Features []struct {
		Properties struct {
			Score *float64 `json:"score"`
			Label string   `json:"label"`
		} `json:"properties"`
	} `json:"features"`
}

// NewBANProvider creates a new BAN geocoding provider using the public endpoint.
func NewBANProvider(log *slog.Logger) *BANProvider {
	const timeout = 10
	return &BANProvider{
		client: &http.Client{
			Timeout: timeout * time.Second,
		},
		baseURL: BANBaseURL,
		log:     log,
	}
}

// NewBANProviderWithClient creates a BAN provider with a custom HTTP client.
// Useful for testing with mocked HTTP clients.
func NewBANProviderWithClient(client HTTPClient, log *slog.Logger) *BANProvider {
	return &BANProvider{
		client:  client,
		baseURL: BANBaseURL,
		log:     log,
	}
}

// Search looks up an address through the BAN search API and returns the best
// candidate's confidence score. Only the top result is requested; a response
// without a usable candidate is reported as an error.
func (bp *BANProvider) Search(ctx context.Context, query string) (*models.Match, error) {
	bp.log.DebugContext(ctx, "Searching using BAN", "query", query)

	if query == "" {
		return nil, ErrBANEmptyQuery
	}

	reqURL, err := url.Parse(bp.baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse base URL: %w", err)
	}

	params := reqURL.Query()
	params.Set("q", query)
	params.Set("limit", "1") // Only need the top result
	reqURL.RawQuery = params.Encode()

	bp.log.DebugContext(ctx, "BAN request URL", "url", reqURL.String())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := bp.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		bp.log.ErrorContext(ctx, "BAN API error", "status", resp.StatusCode, "body", string(body))
		return nil, fmt.Errorf("BAN API returned status %d: %s", resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	bp.log.DebugContext(ctx, "BAN raw response", "body", string(body))

	var result banResponse
	if err = json.Unmarshal(body, &result); err != nil {
		bp.log.ErrorContext(ctx, "Failed to parse BAN response", "error", err, "body", string(body))
		return nil, fmt.Errorf("failed to decode BAN response: %w", err)
	}

	if len(result.Features) == 0 {
		return nil, ErrBANEmptyResponse
	}

	best := result.Features[0].Properties
	if best.Score == nil {
		return nil, ErrBANMissingScore
	}

	bp.log.DebugContext(ctx, "BAN found candidate", "label", best.Label, "score", *best.Score)

	return &models.Match{
		Score: *best.Score,
		Label: best.Label,
	}, nil
}
