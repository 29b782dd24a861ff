package geocoding

import (
	"context"
	"net/http"

	"github.com/Houeta/addrcheck/internal/models"
)

// Provider is an interface that defines a method for looking up an address.
// The Search method takes a context and a free-text query as input, and
// returns the best candidate match, or an error when the service has no
// candidate or the lookup fails. Providers never fold failures into a
// verdict; interpreting the score is the caller's job.
type Provider interface {
	Search(ctx context.Context, query string) (*models.Match, error)
}

// HTTPClient defines the interface for making HTTP requests.
// This allows for easy mocking in tests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}
