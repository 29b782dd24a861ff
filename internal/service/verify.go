package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/Houeta/addrcheck/internal/geocoding"
	"github.com/Houeta/addrcheck/internal/metrics"
	"github.com/Houeta/addrcheck/internal/models"
	"github.com/Houeta/addrcheck/internal/progress"
	"github.com/Houeta/addrcheck/internal/transcode"
	"golang.org/x/time/rate"
)

// VerifyService drives the record-by-record verification pipeline: it pulls
// records from the input, queries the geocoding provider for each, and writes
// the augmented records to the output. Processing is strictly sequential and
// paced by the rate limiter so the external service is never hammered.
type VerifyService struct {
	log          *slog.Logger       // Logger for logging service activities
	provider     geocoding.Provider // Geocoding provider for external lookups
	providerName string             // Name of the provider for metrics labeling
	metrics      *metrics.Metrics   // Metrics for tracking service performance
	limiter      *rate.Limiter      // Limiter pacing consecutive lookups
	threshold    float64            // Minimum confidence score for a valid address
	reporter     progress.Reporter  // Reporter observing completed records
}

// NewVerifyService creates a new instance of VerifyService. It takes a logger,
// a geocoding provider, the provider name for metrics labeling, metrics, a
// rate limiter for pacing lookups, the confidence threshold, and a progress
// reporter. It returns a pointer to the newly created VerifyService.
func NewVerifyService(
	log *slog.Logger,
	provider geocoding.Provider,
	providerName string,
	metrics *metrics.Metrics,
	limiter *rate.Limiter,
	threshold float64,
	reporter progress.Reporter,
) *VerifyService {
	return &VerifyService{
		log:          log,
		provider:     provider,
		providerName: providerName,
		metrics:      metrics,
		limiter:      limiter,
		threshold:    threshold,
		reporter:     reporter,
	}
}

// Run processes up to limit records from in, in file order, and writes one
// augmented record to out for each. It returns the number of records written.
//
// A record that fails to decode aborts the run immediately with the decoding
// error; whatever was already written stays written. A lookup failure never
// aborts: it folds into adresse_valide=false, indistinguishable in the output
// from an address the service did not find.
func (vs *VerifyService) Run(
	ctx context.Context,
	in *transcode.Reader,
	out *transcode.Writer,
	limit int,
) (int, error) {
	if err := out.WriteHeader(); err != nil {
		return 0, err
	}

	written := 0
	for written < limit {
		rec, err := in.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// Rows verified before the failure stay on the output stream.
			_ = out.Flush()
			return written, fmt.Errorf("failed to decode input: %w", err)
		}

		// Pacing: at most one lookup per limiter interval.
		if err = vs.limiter.Wait(ctx); err != nil {
			_ = out.Flush()
			return written, fmt.Errorf("pacing interrupted: %w", err)
		}

		valid := vs.verify(ctx, rec)

		if err = out.Write(models.OutputRecord{InputRecord: rec, AddressValid: valid}); err != nil {
			_ = out.Flush()
			return written, err
		}
		written++
		vs.reporter.Add(1)
	}

	if err := out.Flush(); err != nil {
		return written, err
	}
	vs.reporter.Finish()

	vs.log.Debug("Verification run finished", "records", written, "limit", limit)
	return written, nil
}

// verify issues one lookup for the record's address and reduces the outcome
// to a boolean: true iff a candidate exists and its score meets the
// threshold (inclusive).
func (vs *VerifyService) verify(ctx context.Context, rec models.InputRecord) bool {
	query := models.Query{
		Address:    rec.Address,
		PostalCode: rec.PostalCode,
		City:       rec.City,
	}

	startTime := time.Now()
	match, err := vs.provider.Search(ctx, query.SearchText())
	vs.metrics.RequestSeconds.WithLabelValues(vs.providerName).Observe(time.Since(startTime).Seconds())

	if err != nil {
		// A failed lookup and a not-found address both land here: the output
		// has no channel to tell them apart, so both fold to false.
		vs.log.DebugContext(ctx, "Lookup failed", "query", query.SearchText(), "error", err)
		vs.metrics.APIErrors.Inc()
		vs.metrics.RecordsProcessed.WithLabelValues("failed").Inc()
		return false
	}

	if match.Score < vs.threshold {
		vs.log.DebugContext(ctx, "Candidate below threshold",
			"query", query.SearchText(), "label", match.Label, "score", match.Score)
		vs.metrics.RecordsProcessed.WithLabelValues("invalid").Inc()
		return false
	}

	vs.metrics.RecordsProcessed.WithLabelValues("valid").Inc()
	return true
}
