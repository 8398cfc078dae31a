package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"time"
)

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(err.Error()))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
}

func respondError(w http.ResponseWriter, code int, message string) {
	respondJSON(w, code, map[string]string{"error": message})
}

// errorField is embedded in every response so a failed request can return
// the same shape, zeroed, with an error message.
type errorField struct {
	Error string `json:"error,omitempty"`
}

func (e *errorField) setError(err error) { e.Error = err.Error() }

type failable interface {
	setError(error)
}

// respondFailure logs err once and writes the zeroed payload with a 500.
func respondFailure(w http.ResponseWriter, area string, zero failable, err error) {
	log.Printf("[%s] %v", area, err)
	zero.setError(err)
	respondJSON(w, http.StatusInternalServerError, zero)
}

func nowFunc(f func() time.Time) time.Time {
	if f != nil {
		return f()
	}
	return time.Now()
}

const (
	period7d   = "7d"
	window7d   = 7
	recentTop  = 10
	sessionTop = 50
)

func since7d(now time.Time) time.Time {
	return now.Add(-window7d * 24 * time.Hour)
}
