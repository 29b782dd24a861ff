package geocoding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Houeta/addrcheck/internal/models"
	"googlemaps.github.io/maps"
)

// GoogleProvider is a struct that holds the client for the Google Maps
// Geocoding API and a logger. Google does not expose a numeric confidence
// score, so the score is synthesized: an exact match scores 1.0 and a
// partial match scores 0.5, which lands on either side of any reasonable
// verification threshold.
type GoogleProvider struct {
	client GoogleAPIClient // client is the Google Maps API client
	log    *slog.Logger    // log is the logger for logging operations
}

// GoogleAPIClient is the subset of the Google Maps client used for lookups.
type GoogleAPIClient interface {
	Geocode(ctx context.Context, r *maps.GeocodingRequest) ([]maps.GeocodingResult, error)
}

// Synthesized confidence scores for Google results.
const (
	googleExactScore   = 1.0
	googlePartialScore = 0.5
)

// ErrGoogleEmptyResponse is returned when the Google Maps API responds with an empty result.
var ErrGoogleEmptyResponse = errors.New("get empty response from Google Maps API")

// NewGoogleProvider initializes a new GoogleProvider with the given API client and logger.
func NewGoogleProvider(client GoogleAPIClient, log *slog.Logger) *GoogleProvider {
	return &GoogleProvider{client: client, log: log}
}

// Search looks up an address through the Google Maps Geocoding API and
// returns the best candidate with a synthesized confidence score.
func (gp *GoogleProvider) Search(ctx context.Context, query string) (*models.Match, error) {
	gp.log.DebugContext(ctx, "Searching using Google Maps", "query", query)

	req := maps.GeocodingRequest{Address: query}
	results, err := gp.client.Geocode(ctx, &req)
	if err != nil {
		return nil, fmt.Errorf("failed to geocode address: %w", err)
	}

	if len(results) == 0 {
		return nil, ErrGoogleEmptyResponse
	}

	best := results[0]
	score := googleExactScore
	if best.PartialMatch {
		score = googlePartialScore
	}

	gp.log.DebugContext(ctx, "Google found candidate",
		"formatted_address", best.FormattedAddress, "partial", best.PartialMatch)

	return &models.Match{
		Score: score,
		Label: best.FormattedAddress,
	}, nil
}
