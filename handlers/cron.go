package handlers

import (
	"net/http"
	"time"

	"github.com/alghanim/clawboard/models"
	"github.com/alghanim/clawboard/openclaw"
)

// JobsResponse lists scheduler jobs with how many are enabled.
type JobsResponse struct {
	Jobs   []models.CronJob `json:"jobs"`
	Total  int              `json:"total"`
	Active int              `json:"active"`
	errorField
}

func zeroJobs() *JobsResponse {
	return &JobsResponse{Jobs: []models.CronJob{}}
}

// CronHandler serves /api/cron and /api/heartbeats from the snapshot's
// mirror of the scheduler.
type CronHandler struct {
	Snapshot *openclaw.SnapshotFile
	Now      func() time.Time
}

// GetCron handles GET /api/cron
func (h *CronHandler) GetCron(w http.ResponseWriter, r *http.Request) {
	h.serve(w, "cron", func(models.CronJob) bool { return true })
}

// GetHeartbeats handles GET /api/heartbeats
func (h *CronHandler) GetHeartbeats(w http.ResponseWriter, r *http.Request) {
	h.serve(w, "heartbeats", openclaw.IsHeartbeat)
}

func (h *CronHandler) serve(w http.ResponseWriter, area string, keep func(models.CronJob) bool) {
	snap, err := h.Snapshot.Load()
	if err != nil {
		respondFailure(w, area, zeroJobs(), err)
		return
	}
	resp := zeroJobs()
	for _, job := range snap.CronJobs(nowFunc(h.Now)) {
		if !keep(job) {
			continue
		}
		resp.Jobs = append(resp.Jobs, job)
		if job.Enabled {
			resp.Active++
		}
	}
	resp.Total = len(resp.Jobs)
	respondJSON(w, http.StatusOK, resp)
}
