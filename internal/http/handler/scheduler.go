package handler

import (
	"net/http"

	"github.com/rezkam/mono/internal/http/response"
)

// StartScheduler handles POST /api/scheduler/start.
func (s *Server) StartScheduler(w http.ResponseWriter, r *http.Request) {
	s.facade.Start(s.callbackFactory)
	response.OK(w, r, s.facade.StatusSnapshot())
}

// StopScheduler handles POST /api/scheduler/stop.
func (s *Server) StopScheduler(w http.ResponseWriter, r *http.Request) {
	s.facade.Stop()
	response.OK(w, r, s.facade.StatusSnapshot())
}

// SchedulerStatus handles GET /api/scheduler/status.
func (s *Server) SchedulerStatus(w http.ResponseWriter, r *http.Request) {
	response.OK(w, r, s.facade.StatusSnapshot())
}

// ActiveJobs handles GET /api/scheduler/jobs.
func (s *Server) ActiveJobs(w http.ResponseWriter, r *http.Request) {
	jobs := s.facade.GetActiveJobs()
	views := make([]jobView, 0, len(jobs))
	for _, j := range jobs {
		views = append(views, toJobView(j))
	}
	response.OK(w, r, views)
}
