package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"path/filepath"

	"github.com/utilhub/nfequery/internal/dfe"
)

// QueryService runs one distribution query end to end.
type QueryService interface {
	Query(ctx context.Context, fingerprint, accessKey string) (*dfe.Result, error)
}

// QueryRequest is the body of a query submission.
type QueryRequest struct {

	// Fingerprint identifies the client certificate in the local store
	Fingerprint string `json:"fingerprint" example:"AA:BB:CC:DD:EE:FF:00:11:22:33:44:55:66:77:88:99:AA:BB:CC:DD"`

	// AccessKey is the 44-digit document key to query
	AccessKey string `json:"accessKey" example:"35240112345678000190550010000012341000012349"`
}

// QueryResponse summarizes a successful query and names the stored artifacts.
type QueryResponse struct {
	AccessKey string `json:"accessKey"`
	Number    string `json:"number" example:"1234"`
	Series    string `json:"series" example:"1"`
	IssueDate string `json:"issueDate" example:"2024-01-15T10:30:00-03:00"`
	Issuer    string `json:"issuer" example:"ACME LTDA"`
	Recipient string `json:"recipient,omitempty"`
	Total     string `json:"total" example:"100.00"`
	Items     int    `json:"items" example:"2"`
	Protocol  string `json:"protocol,omitempty"`

	Artifacts ArtifactLinks `json:"artifacts"`
}

// ArtifactLinks names the persisted artifacts; each name can be fetched from
// the artifact endpoint.
type ArtifactLinks struct {
	XML      string `json:"xml"`
	HTML     string `json:"html"`
	Manifest string `json:"manifest"`
}

// HandleQuery godoc
//
//	@Summary		Query a fiscal document
//	@Description	Fetches the document identified by the access key from the distribution
//	@Description	service, authenticating with the certificate identified by the fingerprint.
//	@Description	On success the source XML and the rendered view are stored as artifacts.
//	@Tags			Queries
//	@Accept			json
//	@Produce		json
//	@Param			request	body		QueryRequest	true	"query parameters"
//	@Success		200		{object}	QueryResponse	"document located"
//	@Failure		400		{object}	ErrorResponse	"invalid input"
//	@Failure		422		{object}	ErrorResponse	"identity or authority rejection"
//	@Failure		502		{object}	ErrorResponse	"upstream failure"
//	@Router			/v1/queries [post]
func HandleQuery(service QueryService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req QueryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			RespondWithErrorResponse(w, r, dfe.NewValidationError("request body is not valid JSON"))
			return
		}

		result, err := service.Query(r.Context(), req.Fingerprint, req.AccessKey)
		if err != nil {
			RespondWithErrorResponse(w, r, err)
			return
		}

		doc := result.Document
		RespondWithJSONPayload(w, http.StatusOK, QueryResponse{
			AccessKey: doc.AccessKey,
			Number:    doc.Number,
			Series:    doc.Series,
			IssueDate: doc.IssueDate,
			Issuer:    doc.Issuer.Name,
			Recipient: doc.Recipient.Name,
			Total:     doc.Totals.GrandTotal,
			Items:     len(doc.Items),
			Protocol:  doc.Protocol.String(),
			Artifacts: ArtifactLinks{
				XML:      filepath.Base(result.Artifacts.XMLPath),
				HTML:     filepath.Base(result.Artifacts.HTMLPath),
				Manifest: filepath.Base(result.Artifacts.ManifestPath),
			},
		})
	}
}
