package models

// Match represents the best candidate returned by a geocoding provider
// for a single search query.
type Match struct {
	Score float64 // Score is the provider's match confidence, in the range [0, 1].
	Label string  // Label is the provider's display form of the matched address.
}
