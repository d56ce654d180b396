package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/rezkam/mono/internal/domain"
	"github.com/rezkam/mono/internal/http/response"
)

// createJobRequest is the body of POST /api/jobs.
type createJobRequest struct {
	AccountID     string `json:"accountID"`
	Content       string `json:"content"`
	ScheduledTime string `json:"scheduledTime"`
	Priority      string `json:"priority"`
	Platform      string `json:"platform"`
	MaxRetries    int    `json:"maxRetries"`
	LinkAff       string `json:"linkAff"`
}

// jobView is the serialised shape of a single job (GET/POST responses).
type jobView struct {
	JobID         string     `json:"jobID"`
	AccountID     string     `json:"accountID"`
	Content       string     `json:"content"`
	ScheduledTime time.Time  `json:"scheduledTime"`
	Priority      string     `json:"priority"`
	Status        string     `json:"status"`
	Platform      string     `json:"platform"`
	MaxRetries    int        `json:"maxRetries"`
	RetryCount    int        `json:"retryCount"`
	CreatedAt     time.Time  `json:"createdAt"`
	StartedAt     *time.Time `json:"startedAt,omitempty"`
	CompletedAt   *time.Time `json:"completedAt,omitempty"`
	Error         string     `json:"error,omitempty"`
	ThreadID      string     `json:"threadID,omitempty"`
	StatusMessage string     `json:"statusMessage,omitempty"`
	LinkAff       string     `json:"linkAff,omitempty"`
}

func toJobView(j domain.Job) jobView {
	return jobView{
		JobID:         j.JobID,
		AccountID:     j.AccountID,
		Content:       j.Content,
		ScheduledTime: j.Scheduled,
		Priority:      string(j.Priority),
		Status:        string(j.Status),
		Platform:      string(j.Platform),
		MaxRetries:    j.MaxRetries,
		RetryCount:    j.RetryCount,
		CreatedAt:     j.CreatedAt,
		StartedAt:     j.StartedAt,
		CompletedAt:   j.CompletedAt,
		Error:         j.Error,
		ThreadID:      j.ThreadID,
		StatusMessage: j.StatusMessage,
		LinkAff:       j.LinkAff,
	}
}

// CreateJob handles POST /api/jobs.
func (s *Server) CreateJob(w http.ResponseWriter, r *http.Request) {
	var req createJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, r, "VALIDATION_ERROR", "malformed request body", http.StatusUnprocessableEntity)
		return
	}

	scheduled, err := time.Parse(time.RFC3339, req.ScheduledTime)
	if err != nil {
		response.Error(w, r, "INVALID_SCHEDULE_TIME", "scheduledTime must be ISO8601", http.StatusUnprocessableEntity)
		return
	}

	priority, err := domain.NewPriority(req.Priority)
	if err != nil {
		response.Error(w, r, "VALIDATION_ERROR", err.Error(), http.StatusUnprocessableEntity)
		return
	}
	platform, err := domain.NewPlatform(req.Platform)
	if err != nil {
		response.Error(w, r, "VALIDATION_ERROR", err.Error(), http.StatusUnprocessableEntity)
		return
	}

	jobID, err := s.facade.AddJob(r.Context(), req.AccountID, req.Content, scheduled, priority, platform, req.MaxRetries, req.LinkAff)
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}

	response.Created(w, r, map[string]string{"jobID": jobID})
}

// ListJobs handles GET /api/jobs.
func (s *Server) ListJobs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	accountID := q.Get("account_id")
	status := domain.Status(q.Get("status"))

	jobs := s.facade.ListJobs(accountID, status)

	views := make([]jobView, 0, len(jobs))
	for _, j := range jobs {
		views = append(views, toJobView(j))
	}

	page, limit := 1, len(views)
	if p, err := strconv.Atoi(q.Get("page")); err == nil && p > 0 {
		page = p
	}
	if l, err := strconv.Atoi(q.Get("limit")); err == nil && l > 0 {
		limit = l
	}
	views = paginate(views, page, limit)

	response.OK(w, r, response.PagedData{
		Items: views,
		Pagination: response.Pagination{
			Page:       page,
			Limit:      limit,
			TotalCount: len(jobs),
		},
	})
}

func paginate(views []jobView, page, limit int) []jobView {
	if limit <= 0 {
		return views
	}
	start := (page - 1) * limit
	if start < 0 || start >= len(views) {
		return []jobView{}
	}
	end := start + limit
	if end > len(views) {
		end = len(views)
	}
	return views[start:end]
}

// GetJob handles GET /api/jobs/{jobID}.
func (s *Server) GetJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job, ok := s.facade.GetJob(jobID)
	if !ok {
		response.Error(w, r, "JOB_NOT_FOUND", "job not found", http.StatusNotFound)
		return
	}
	response.OK(w, r, toJobView(job))
}

// DeleteJob handles DELETE /api/jobs/{jobID}.
func (s *Server) DeleteJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	if err := s.facade.RemoveJob(r.Context(), jobID); err != nil {
		response.FromDomainError(w, r, err)
		return
	}
	response.OK(w, r, map[string]bool{"deleted": true})
}
