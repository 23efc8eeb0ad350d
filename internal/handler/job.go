package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/exitboard/exitboard/internal/model"
	"github.com/exitboard/exitboard/internal/repository"
)

// JobHandler implements the job-posting CRUD endpoints.
type JobHandler struct {
	Jobs *repository.JobRepo
}

func NewJobHandler(j *repository.JobRepo) *JobHandler { return &JobHandler{Jobs: j} }

type jobReq struct {
	Title        string `json:"title"`
	Company      string `json:"company"`
	Location     string `json:"location"`
	Type         string `json:"type"`
	Level        string `json:"level"`
	Description  string `json:"description"`
	Requirements string `json:"requirements"`
	SalaryMin    int64  `json:"salary_min"`
	SalaryMax    int64  `json:"salary_max"`
	Currency     string `json:"currency"`
	ContactEmail string `json:"contact_email"`
}

func (r jobReq) validate() string {
	switch {
	case strings.TrimSpace(r.Title) == "":
		return "title required"
	case strings.TrimSpace(r.Company) == "":
		return "company required"
	case strings.TrimSpace(r.Location) == "":
		return "location required"
	case strings.TrimSpace(r.Description) == "":
		return "description required"
	case strings.TrimSpace(r.ContactEmail) == "":
		return "contact_email required"
	case r.SalaryMin < 0 || r.SalaryMax < 0 || r.SalaryMin > r.SalaryMax:
		return "invalid salary range"
	}
	return ""
}

func (r jobReq) toModel() model.JobPosting {
	return model.JobPosting{
		Title:        strings.TrimSpace(r.Title),
		Company:      strings.TrimSpace(r.Company),
		Location:     strings.TrimSpace(r.Location),
		Type:         strings.ToUpper(strings.TrimSpace(r.Type)),
		Level:        strings.ToUpper(strings.TrimSpace(r.Level)),
		Description:  r.Description,
		Requirements: r.Requirements,
		SalaryMin:    r.SalaryMin,
		SalaryMax:    r.SalaryMax,
		Currency:     strings.ToUpper(strings.TrimSpace(r.Currency)),
		ContactEmail: strings.TrimSpace(r.ContactEmail),
	}
}

// Create publishes a new posting owned by the authenticated user.
func (h *JobHandler) Create(c echo.Context) error {
	var req jobReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if msg := req.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	j := req.toModel()
	j.AuthorID, _ = c.Get("user_id").(string)

	ctx, cancel := h.ctx(c)
	defer cancel()

	created, err := h.Jobs.Create(ctx, j)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create job failed"})
	}
	return c.JSON(http.StatusCreated, created)
}

// List returns ACTIVE postings, optionally filtered.  Public, cacheable.
func (h *JobHandler) List(c echo.Context) error {
	f := repository.JobFilter{
		Type:     strings.ToUpper(c.QueryParam("type")),
		Level:    strings.ToUpper(c.QueryParam("level")),
		Location: c.QueryParam("location"),
		Query:    c.QueryParam("q"),
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	jobs, err := h.Jobs.Search(ctx, f)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list jobs failed"})
	}
	if jobs == nil {
		jobs = []model.JobPosting{}
	}
	return c.JSON(http.StatusOK, jobs)
}

// Get returns one posting by id.  Public.
func (h *JobHandler) Get(c echo.Context) error {
	ctx, cancel := h.ctx(c)
	defer cancel()

	j, err := h.Jobs.GetByID(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "job not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load job failed"})
	}
	return c.JSON(http.StatusOK, j)
}

// MyListings returns every posting owned by the authenticated user.
func (h *JobHandler) MyListings(c echo.Context) error {
	uid, _ := c.Get("user_id").(string)

	ctx, cancel := h.ctx(c)
	defer cancel()

	jobs, err := h.Jobs.ListByAuthor(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list jobs failed"})
	}
	if jobs == nil {
		jobs = []model.JobPosting{}
	}
	return c.JSON(http.StatusOK, jobs)
}

// Update replaces the editable fields of a posting the user owns.
func (h *JobHandler) Update(c echo.Context) error {
	var req jobReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if msg := req.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	existing, err := h.ownedJob(ctx, c)
	if err != nil {
		return h.ownershipError(c, err)
	}

	j := req.toModel()
	j.ID = existing.ID
	if err := h.Jobs.Update(ctx, j); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update job failed"})
	}
	updated, err := h.Jobs.GetByID(ctx, j.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load job failed"})
	}
	return c.JSON(http.StatusOK, updated)
}

// UpdateStatus switches a posting between ACTIVE, PAUSED and CANCELLED.
func (h *JobHandler) UpdateStatus(c echo.Context) error {
	var req struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	status := strings.ToUpper(strings.TrimSpace(req.Status))
	if !model.ValidPostingStatus(status) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status value"})
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	existing, err := h.ownedJob(ctx, c)
	if err != nil {
		return h.ownershipError(c, err)
	}
	if err := h.Jobs.UpdateStatus(ctx, existing.ID, status); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update job failed"})
	}
	existing.Status = status
	return c.JSON(http.StatusOK, existing)
}

// Delete removes a posting the user owns.
func (h *JobHandler) Delete(c echo.Context) error {
	ctx, cancel := h.ctx(c)
	defer cancel()

	existing, err := h.ownedJob(ctx, c)
	if err != nil {
		return h.ownershipError(c, err)
	}
	if err := h.Jobs.Delete(ctx, existing.ID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete job failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// View bumps the view counter.  Public; failures are not worth a client
// error, the counter is best effort.
func (h *JobHandler) View(c echo.Context) error {
	ctx, cancel := h.ctx(c)
	defer cancel()

	if err := h.Jobs.IncrementViews(ctx, c.Param("id")); err != nil && errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "job not found"})
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// Apply bumps the application counter for an authenticated user.
func (h *JobHandler) Apply(c echo.Context) error {
	ctx, cancel := h.ctx(c)
	defer cancel()

	if err := h.Jobs.IncrementApplications(ctx, c.Param("id")); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "job not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "apply failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

var errNotOwner = errors.New("not the author")

// ownedJob loads the :id posting and verifies the requester authored it.
func (h *JobHandler) ownedJob(ctx context.Context, c echo.Context) (model.JobPosting, error) {
	j, err := h.Jobs.GetByID(ctx, c.Param("id"))
	if err != nil {
		return model.JobPosting{}, err
	}
	uid, _ := c.Get("user_id").(string)
	if j.AuthorID != uid {
		return model.JobPosting{}, errNotOwner
	}
	return j, nil
}

func (h *JobHandler) ownershipError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "job not found"})
	case errors.Is(err, errNotOwner):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load job failed"})
	}
}

func (h *JobHandler) ctx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), 5*time.Second)
}
