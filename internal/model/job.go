package model

import "time"

// Posting status values stored in job_postings.status.
const (
	PostingActive    = "ACTIVE"
	PostingPaused    = "PAUSED"
	PostingCancelled = "CANCELLED"
)

// ValidPostingStatus reports whether s is one of the posting statuses.
func ValidPostingStatus(s string) bool {
	switch s {
	case PostingActive, PostingPaused, PostingCancelled:
		return true
	}
	return false
}

// JobPosting mirrors the `job_postings` table.  Salary fields are optional;
// a zero SalaryMax means the posting carries no salary information.  Views
// and Applications are engagement counters bumped by their own endpoints so
// listing reads stay cheap.
type JobPosting struct {
	ID           string    // job_postings.id (UUID)
	AuthorID     string    // job_postings.author_id -> users.id
	Title        string    // job_postings.title
	Company      string    // job_postings.company
	Location     string    // job_postings.location
	Type         string    // job_postings.type (e.g. FULL_TIME)
	Level        string    // job_postings.level (e.g. SENIOR)
	Description  string    // job_postings.description
	Requirements string    // job_postings.requirements (newline separated)
	SalaryMin    int64     // job_postings.salary_min (minor units)
	SalaryMax    int64     // job_postings.salary_max
	Currency     string    // job_postings.currency
	ContactEmail string    // job_postings.contact_email
	Status       string    // job_postings.status
	Views        uint64    // job_postings.views
	Applications uint64    // job_postings.applications
	CreatedAt    time.Time // job_postings.created_at
	UpdatedAt    time.Time // job_postings.updated_at
}
