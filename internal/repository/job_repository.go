package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"

	"github.com/exitboard/exitboard/internal/model"
)

const jobColumns = "id,author_id,title,company,location,type,level,description,requirements," +
	"salary_min,salary_max,currency,contact_email,status,views,applications,created_at,updated_at"

type JobRepo struct{ DB *sql.DB }

func NewJobRepo(db *sql.DB) *JobRepo { return &JobRepo{DB: db} }

// JobFilter narrows Search results.  Zero-valued fields are ignored.
type JobFilter struct {
	Type     string
	Level    string
	Location string
	Query    string // substring match on title and company
}

// Create inserts a posting with a fresh UUID and ACTIVE status and returns
// the stored record.
func (r *JobRepo) Create(ctx context.Context, j model.JobPosting) (model.JobPosting, error) {
	j.ID = uuid.NewString()
	j.Status = model.PostingActive
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO job_postings (id, author_id, title, company, location, type, level, description, requirements, salary_min, salary_max, currency, contact_email, status) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)",
		j.ID, j.AuthorID, j.Title, j.Company, j.Location, j.Type, j.Level,
		j.Description, j.Requirements, j.SalaryMin, j.SalaryMax, j.Currency,
		j.ContactEmail, j.Status)
	if err != nil {
		return model.JobPosting{}, err
	}
	return r.GetByID(ctx, j.ID)
}

// GetByID fetches a posting by id.
func (r *JobRepo) GetByID(ctx context.Context, id string) (model.JobPosting, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+jobColumns+" FROM job_postings WHERE id=? LIMIT 1", id)
	return scanJob(row)
}

// Search returns ACTIVE postings matching the filter, newest first.
func (r *JobRepo) Search(ctx context.Context, f JobFilter) ([]model.JobPosting, error) {
	query := "SELECT " + jobColumns + " FROM job_postings WHERE status=?"
	args := []any{model.PostingActive}

	if f.Type != "" {
		query += " AND type=?"
		args = append(args, f.Type)
	}
	if f.Level != "" {
		query += " AND level=?"
		args = append(args, f.Level)
	}
	if f.Location != "" {
		query += " AND location LIKE ?"
		args = append(args, "%"+f.Location+"%")
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		query += " AND (title LIKE ? OR company LIKE ?)"
		pat := "%" + q + "%"
		args = append(args, pat, pat)
	}
	query += " ORDER BY created_at DESC"

	return r.queryJobs(ctx, query, args...)
}

// ListByAuthor returns every posting owned by the user, regardless of
// status, newest first.
func (r *JobRepo) ListByAuthor(ctx context.Context, authorID string) ([]model.JobPosting, error) {
	return r.queryJobs(ctx,
		"SELECT "+jobColumns+" FROM job_postings WHERE author_id=? ORDER BY created_at DESC",
		authorID)
}

// Update replaces the editable fields of a posting.
func (r *JobRepo) Update(ctx context.Context, j model.JobPosting) error {
	return r.exec(ctx,
		"UPDATE job_postings SET title=?, company=?, location=?, type=?, level=?, description=?, requirements=?, salary_min=?, salary_max=?, currency=?, contact_email=? WHERE id=?",
		j.Title, j.Company, j.Location, j.Type, j.Level, j.Description,
		j.Requirements, j.SalaryMin, j.SalaryMax, j.Currency, j.ContactEmail, j.ID)
}

// UpdateStatus sets job_postings.status.
func (r *JobRepo) UpdateStatus(ctx context.Context, id, status string) error {
	return r.exec(ctx, "UPDATE job_postings SET status=? WHERE id=?", status, id)
}

// Delete removes a posting.
func (r *JobRepo) Delete(ctx context.Context, id string) error {
	return r.exec(ctx, "DELETE FROM job_postings WHERE id=?", id)
}

// IncrementViews bumps the view counter.
func (r *JobRepo) IncrementViews(ctx context.Context, id string) error {
	return r.exec(ctx, "UPDATE job_postings SET views=views+1 WHERE id=?", id)
}

// IncrementApplications bumps the application counter.
func (r *JobRepo) IncrementApplications(ctx context.Context, id string) error {
	return r.exec(ctx, "UPDATE job_postings SET applications=applications+1 WHERE id=?", id)
}

func (r *JobRepo) exec(ctx context.Context, query string, args ...any) error {
	res, err := r.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *JobRepo) queryJobs(ctx context.Context, query string, args ...any) ([]model.JobPosting, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []model.JobPosting
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

func scanJob(row rowScanner) (model.JobPosting, error) {
	var j model.JobPosting
	err := row.Scan(&j.ID, &j.AuthorID, &j.Title, &j.Company, &j.Location, &j.Type,
		&j.Level, &j.Description, &j.Requirements, &j.SalaryMin, &j.SalaryMax,
		&j.Currency, &j.ContactEmail, &j.Status, &j.Views, &j.Applications,
		&j.CreatedAt, &j.UpdatedAt)
	if err == sql.ErrNoRows {
		return model.JobPosting{}, ErrNotFound
	}
	if err != nil {
		return model.JobPosting{}, err
	}
	return j, nil
}
