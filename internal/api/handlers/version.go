package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/MacJediWizard/i18n/internal/api/envelope"
)

// VersionInfo contains server version information.
type VersionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit,omitempty"`
	BuildDate string `json:"build_date,omitempty"`
}

// VersionHandler handles version-related HTTP endpoints.
type VersionHandler struct {
	info VersionInfo
}

// NewVersionHandler creates a new VersionHandler.
func NewVersionHandler(version, commit, buildDate string) *VersionHandler {
	return &VersionHandler{
		info: VersionInfo{
			Version:   version,
			Commit:    commit,
			BuildDate: buildDate,
		},
	}
}

// RegisterRoutes registers version routes on the given router group.
func (h *VersionHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/version", envelope.Wrap(h.Get))
}

// Get returns the server version information.
// GET {prefix}/version
func (h *VersionHandler) Get(_ *gin.Context) (any, error) {
	return h.info, nil
}
