package dfe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/utilhub/nfequery/internal/artifact"
	"github.com/utilhub/nfequery/internal/certstore"
	"github.com/utilhub/nfequery/internal/danfe"
	"github.com/utilhub/nfequery/internal/nfe"
	"github.com/utilhub/nfequery/internal/store"
)

const accessKeyLength = 44

// Service runs the full query pipeline: identity acquisition, the SOAP
// exchange, response decoding, document extraction, view rendering and
// artifact persistence.
type Service struct {
	certs       certstore.Store
	client      *Client
	artifacts   *artifact.Store
	audit       store.Recorder
	environment string
	logger      *slog.Logger
}

// NewService wires the pipeline. environment is the authority environment
// flag: "1" for production, "2" for homologation.
func NewService(certs certstore.Store, client *Client, artifacts *artifact.Store, audit store.Recorder, environment string, logger *slog.Logger) *Service {
	return &Service{
		certs:       certs,
		client:      client,
		artifacts:   artifacts,
		audit:       audit,
		environment: environment,
		logger:      logger,
	}
}

// Result is the outcome of a successful query.
type Result struct {

	// Document is the reconstructed document model
	Document *nfe.Document

	// HTML is the rendered document view
	HTML string

	// Artifacts locates the persisted files
	Artifacts *artifact.Pair
}

// ValidateAccessKey checks the shape of a document access key: exactly 44
// digits, nothing else.
func ValidateAccessKey(key string) error {
	if len(key) != accessKeyLength {
		return NewValidationError(fmt.Sprintf("access key must be %d digits, got %d characters", accessKeyLength, len(key)))
	}
	for _, r := range key {
		if r < '0' || r > '9' {
			return NewValidationError("access key must contain only digits")
		}
	}
	return nil
}

// ValidateFingerprint checks the shape of a certificate fingerprint: hex
// digit pairs, optionally colon-separated.
func ValidateFingerprint(fp string) error {
	if fp == "" {
		return NewValidationError("certificate fingerprint is required")
	}
	digits := 0
	for _, r := range fp {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'f', r >= 'A' && r <= 'F':
			digits++
		case r == ':':
		default:
			return NewValidationError(fmt.Sprintf("fingerprint contains invalid character %q", r))
		}
	}
	if digits == 0 || digits%2 != 0 {
		return NewValidationError("fingerprint must be a sequence of hex digit pairs")
	}
	return nil
}

// Query runs one distribution query end to end and persists the artifacts.
func (s *Service) Query(ctx context.Context, fingerprint, accessKey string) (*Result, error) {
	start := time.Now()

	result, err := s.query(ctx, fingerprint, accessKey)
	s.recordAudit(ctx, fingerprint, accessKey, err, time.Since(start))
	if err != nil {
		return nil, err
	}

	s.logger.Info("query completed",
		"access_key", accessKey,
		"issuer", result.Document.Issuer.Name,
		"items", len(result.Document.Items),
		"duration", time.Since(start))
	return result, nil
}

func (s *Service) query(ctx context.Context, fingerprint, accessKey string) (*Result, error) {
	if err := ValidateFingerprint(fingerprint); err != nil {
		return nil, err
	}
	if err := ValidateAccessKey(accessKey); err != nil {
		return nil, err
	}

	// the first two digits of the key name the authority state
	ufCode, err := strconv.Atoi(accessKey[:2])
	if err != nil || ufCode == 0 {
		return nil, NewValidationError("access key does not start with a valid state code")
	}

	identity, err := certstore.AcquireIdentity(s.certs, fingerprint)
	if err != nil {
		return nil, WrapIdentityError(err, "failed to acquire client identity")
	}
	defer identity.Scrub()

	if identity.TaxID == "" {
		return nil, NewIdentityError("certificate subject carries no tax identifier")
	}

	request := BuildRequest(accessKey, identity.TaxID, ufCode, s.environment)

	responseBody, err := s.client.Exchange(ctx, identity, request)
	// the identity is not needed past the exchange
	identity.Scrub()
	if err != nil {
		return nil, err
	}

	xmlText, err := DecodeResponse(responseBody)
	if err != nil {
		return nil, err
	}

	doc, err := nfe.Extract(xmlText, accessKey)
	if err != nil {
		return nil, WrapExtractionError(err, "failed to extract document model")
	}

	html, err := danfe.Render(doc)
	if err != nil {
		return nil, WrapExtractionError(err, "failed to render document view")
	}

	pair, err := s.artifacts.Persist(xmlText, html, accessKey)
	if err != nil {
		return nil, WrapStorageError(err, "failed to persist query artifacts")
	}

	return &Result{Document: doc, HTML: html, Artifacts: pair}, nil
}

// recordAudit stores the query outcome. Auditing never fails a query; a
// recording error is only logged.
func (s *Service) recordAudit(ctx context.Context, fingerprint, accessKey string, queryErr error, duration time.Duration) {
	rec := store.QueryRecord{
		Fingerprint: fingerprint,
		AccessKey:   accessKey,
		Outcome:     "ok",
		Duration:    duration,
	}
	if queryErr != nil {
		var distErr *DistError
		if errors.As(queryErr, &distErr) {
			rec.Outcome = string(distErr.Code())
			rec.StatusCode = distErr.StatusCode()
		} else {
			rec.Outcome = "error"
		}
	}

	if err := s.audit.Record(ctx, rec); err != nil {
		s.logger.Warn("failed to record query audit entry", "error", err)
	}
}
