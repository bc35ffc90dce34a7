package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/utilhub/nfequery/internal/version"
)

type VersionResponse struct {
	Version   string `json:"version" example:"1.0.0"`
	GitCommit string `json:"git_commit" example:"abc1234"`
	BuildDate string `json:"build_date" example:"2024-01-28T10:00:00Z"`
	Service   string `json:"service" example:"nfequeryd"`
}

// HandleVersion godoc
//
//	@Summary		Get version information
//	@Description	Returns the version and build information for the service
//	@Tags			Common
//	@Produce		json
//	@Success		200	{object}	VersionResponse	"Version information"
//	@Router			/version [get]
func HandleVersion() http.HandlerFunc {
	// Pre-create the response to avoid allocating on every request
	info := version.Get()
	response := VersionResponse{
		Version:   info.Version,
		GitCommit: info.GitCommit,
		BuildDate: info.BuildDate,
		Service:   "nfequeryd",
	}

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(response); err != nil {
			http.Error(w, "Failed to encode version", http.StatusInternalServerError)
			return
		}
	}
}
