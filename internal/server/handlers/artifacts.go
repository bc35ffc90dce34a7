package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/utilhub/nfequery/internal/artifact"
	"github.com/utilhub/nfequery/internal/dfe"
)

// HandleArtifact godoc
//
//	@Summary		Fetch a stored query artifact
//	@Description	Returns a previously stored artifact (document XML, rendered view or manifest) by name.
//	@Tags			Artifacts
//	@Produce		octet-stream
//	@Param			name	path		string	true	"artifact file name as returned by the query endpoint"
//	@Success		200		{file}		file	"artifact content"
//	@Failure		400		{object}	ErrorResponse	"invalid artifact name"
//	@Router			/v1/artifacts/{name} [get]
func HandleArtifact(artifacts *artifact.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")

		path, err := artifacts.Open(name)
		if err != nil {
			RespondWithErrorResponse(w, r, dfe.NewValidationError("unknown or invalid artifact name"))
			return
		}

		http.ServeFile(w, r, path)
	}
}
