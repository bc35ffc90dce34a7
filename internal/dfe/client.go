// Package dfe implements the document distribution exchange with the fiscal
// authority: request envelope construction, the mutual-TLS SOAP transport,
// response decoding, and the query pipeline that ties the stages together.
package dfe

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	pkcs12 "software.sslmate.com/src/go-pkcs12"

	"github.com/utilhub/nfequery/internal/certstore"
)

const (
	soapContentType = "application/soap+xml; charset=utf-8"

	// errorBodyPreviewBytes caps how much of an error response body is
	// surfaced in transport errors.
	errorBodyPreviewBytes = 500
)

// Client performs the SOAP exchange with the distribution endpoint over
// mutual TLS.
type Client struct {
	endpoint string
	timeout  time.Duration
	logger   *slog.Logger

	// TLSRootCAs overrides the system trust roots when non-nil. Production
	// callers leave it nil; tests point it at a local listener's certificate.
	TLSRootCAs *x509.CertPool
}

// NewClient creates a client for the given endpoint. A zero timeout falls
// back to 30 seconds.
func NewClient(endpoint string, timeout time.Duration, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		endpoint: endpoint,
		timeout:  timeout,
		logger:   logger,
	}
}

// Exchange posts the SOAP body using the identity as the TLS client
// certificate and returns the raw response body. The identity is only read;
// scrubbing it remains the caller's responsibility.
func (c *Client) Exchange(ctx context.Context, identity *certstore.Identity, body string) ([]byte, error) {
	tlsCert, err := clientCertificate(identity)
	if err != nil {
		return nil, err
	}

	// The transport holds the client identity, so it lives for exactly one
	// exchange; dropping its idle connections releases the TLS session with it.
	transport := &http.Transport{
		TLSClientConfig: &tls.Config{
			MinVersion:   tls.VersionTLS12,
			Certificates: []tls.Certificate{tlsCert},
			RootCAs:      c.TLSRootCAs,
		},
	}
	defer transport.CloseIdleConnections()

	httpClient := &http.Client{
		Timeout:   c.timeout,
		Transport: transport,
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(body))
	if err != nil {
		return nil, WrapTransportError(err, "failed to build distribution request")
	}
	req.Header.Set("Content-Type", soapContentType)

	c.logger.Debug("sending distribution query",
		"endpoint", c.endpoint,
		"request_bytes", len(body))

	start := time.Now()
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, WrapTransportError(err, "distribution request failed")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, WrapTransportError(err, "failed to read distribution response")
	}

	c.logger.Debug("distribution query answered",
		"status", resp.StatusCode,
		"response_bytes", len(respBody),
		"duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		preview := respBody
		if len(preview) > errorBodyPreviewBytes {
			preview = preview[:errorBodyPreviewBytes]
		}
		return nil, NewTransportError(
			fmt.Sprintf("distribution endpoint returned HTTP %d: %s", resp.StatusCode, string(preview)))
	}

	return respBody, nil
}

// clientCertificate opens the ephemeral PKCS#12 bundle and assembles the TLS
// client certificate, leaf first with any intermediates appended.
func clientCertificate(identity *certstore.Identity) (tls.Certificate, error) {
	key, leaf, chain, err := pkcs12.DecodeChain(identity.PFX, identity.Password)
	if err != nil {
		return tls.Certificate{}, WrapIdentityError(err, "failed to open client identity bundle")
	}

	cert := tls.Certificate{
		Certificate: [][]byte{leaf.Raw},
		PrivateKey:  key,
		Leaf:        leaf,
	}
	for _, ca := range chain {
		cert.Certificate = append(cert.Certificate, ca.Raw)
	}
	return cert, nil
}
