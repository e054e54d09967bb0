package handler

import (
	"net/http"
	"time"

	"github.com/hageshiame/light-heart/internal/jobs"
	"github.com/hageshiame/light-heart/internal/utils"
)

var startedAt = time.Now()

// Root answers the bare path so load balancers and humans get something
// friendlier than a 404.
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	utils.Success(w, map[string]string{
		"service": "light-heart",
		"status":  "running",
	})
}

// Health reports liveness plus the background job queue depths.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	var jobStats *jobs.Stats
	if h.Jobs != nil {
		stats, err := h.Jobs.Stats(r.Context())
		if err == nil {
			jobStats = stats
		}
	}
	utils.Success(w, struct {
		Status string      `json:"status"`
		Uptime string      `json:"uptime"`
		Jobs   *jobs.Stats `json:"jobs,omitempty"`
	}{
		Status: "healthy",
		Uptime: time.Since(startedAt).Round(time.Second).String(),
		Jobs:   jobStats,
	})
}
