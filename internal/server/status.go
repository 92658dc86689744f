package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	derrors "git.home.luguber.info/inful/docsite/internal/foundation/errors"
	"git.home.luguber.info/inful/docsite/internal/site"
)

// buildStatus tracks the latest build for the status pages and /healthz.
type buildStatus struct {
	mu           sync.RWMutex
	building     bool
	lastErr      error
	last         *site.Report
	hasGoodBuild bool
}

func (s *buildStatus) start() {
	s.mu.Lock()
	s.building = true
	s.mu.Unlock()
}

func (s *buildStatus) finish(r *site.Report, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.building = false
	s.lastErr = err
	if r != nil {
		s.last = r
	}
	if err == nil {
		s.hasGoodBuild = true
	}
}

// get returns the last error, the last report and whether any build ever
// succeeded.
func (s *buildStatus) get() (error, *site.Report, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr, s.last, s.hasGoodBuild
}

func (s *buildStatus) isBuilding() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.building
}

// healthResponse is the /healthz payload.
type healthResponse struct {
	Status    string    `json:"status"`
	BuildID   string    `json:"build_id,omitempty"`
	Outcome   string    `json:"outcome,omitempty"`
	Pages     int       `json:"pages"`
	Finished  time.Time `json:"finished,omitzero"`
	Building  bool      `json:"building"`
	LastError string    `json:"last_error,omitempty"`
}

func (s *buildStatus) healthHandler(adapter *derrors.HTTPErrorAdapter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lastErr, last, good := s.get()
		if lastErr != nil && !good {
			adapter.WriteErrorResponse(w, r, derrors.WrapError(lastErr, derrors.CategoryRuntime, "no successful build").
				Retryable().
				Build())
			return
		}

		resp := healthResponse{Status: "ok", Building: s.isBuilding()}
		switch {
		case last == nil:
			resp.Status = "starting"
		case lastErr != nil:
			resp.Status = "degraded"
			resp.LastError = lastErr.Error()
		}
		if last != nil {
			resp.BuildID = last.BuildID
			resp.Outcome = string(last.Outcome)
			resp.Pages = last.Pages
			resp.Finished = last.End
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}
}
