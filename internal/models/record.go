package models

import "fmt"

// InputRecord represents one row of the source address table.
// Field values are carried verbatim; no trimming or normalization is applied.
type InputRecord struct {
	Name       string // Name is the free-text identity of the record.
	Address    string // Address is the street address to verify.
	PostalCode string // PostalCode is kept as a string to preserve leading zeros.
	City       string // City is the municipality name.
	Contact    string // Contact is a free-text contact field.
}

// OutputRecord is an InputRecord augmented with the verification outcome.
type OutputRecord struct {
	InputRecord
	AddressValid bool // AddressValid reports whether the address was found with sufficient confidence.
}

// Query carries the address fields submitted to a geocoding provider.
type Query struct {
	Address    string // Address is the street address part of the query.
	PostalCode string // PostalCode is the postal code part of the query.
	City       string // City is the municipality part of the query.
}

// SearchText renders the query as the free-text search string sent to the provider.
func (q Query) SearchText() string {
	return fmt.Sprintf("%s, %s %s", q.Address, q.PostalCode, q.City)
}
