package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/exitboard/exitboard/internal/model"
	"github.com/exitboard/exitboard/internal/utils"
)

const userColumns = "id,name,email,password_hash,company,title,role,status,invalidated_since,created_at,updated_at"

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// Create inserts a user with a fresh UUID and returns the stored record.
// Emails are normalized to lower case so lookups are case-insensitive.
func (r *UserRepo) Create(ctx context.Context, name, email, password, company, title string, cost int) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return model.User{}, err
	}
	id := uuid.NewString()
	_, err = r.DB.ExecContext(ctx,
		"INSERT INTO users (id, name, email, password_hash, company, title, role, status) VALUES (?,?,?,?,?,?,?,?)",
		id, name, email, hash, company, title, model.RoleUser, model.StatusActive)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return model.User{}, ErrEmailExists
		}
		return model.User{}, err
	}
	return r.GetByID(ctx, id)
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email)
	return scanUser(row)
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id string) (model.User, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id)
	return scanUser(row)
}

// List returns all users, newest first.  Admin panel only.
func (r *UserRepo) List(ctx context.Context) ([]model.User, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users ORDER BY created_at DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// UpdateProfile replaces the user-editable fields and returns the updated
// record.  A conflicting email maps to ErrEmailExists.  RowsAffected is
// not checked here: MySQL reports zero rows for a no-op save of unchanged
// values, and the caller's existence is already established by the
// session gate.
func (r *UserRepo) UpdateProfile(ctx context.Context, id, name, email, company, title string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET name=?, email=?, company=?, title=? WHERE id=?",
		name, email, company, title, id)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return model.User{}, ErrEmailExists
		}
		return model.User{}, err
	}
	return r.GetByID(ctx, id)
}

// UpdateRole sets users.role.
func (r *UserRepo) UpdateRole(ctx context.Context, id, role string) error {
	return r.exec(ctx, "UPDATE users SET role=? WHERE id=?", role, id)
}

// SetStatus sets users.status.  Deactivation must be paired with
// Invalidate by the caller, otherwise an already-issued token keeps
// authenticating the deactivated account until it naturally expires.
func (r *UserRepo) SetStatus(ctx context.Context, id, status string) error {
	return r.exec(ctx, "UPDATE users SET status=? WHERE id=?", status, id)
}

// Invalidate advances the user's session-invalidation watermark to now.
// Every token issued before this instant is dead on its next check.  The
// watermark only moves forward; there is no reset path.
func (r *UserRepo) Invalidate(ctx context.Context, id string) error {
	return r.exec(ctx, "UPDATE users SET invalidated_since=? WHERE id=?", time.Now().UTC(), id)
}

// Delete removes the user and every job posting they authored in one
// transaction.
func (r *UserRepo) Delete(ctx context.Context, id string) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM job_postings WHERE author_id=?", id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM users WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return tx.Commit()
}

func (r *UserRepo) exec(ctx context.Context, query string, args ...any) error {
	res, err := r.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface{ Scan(dest ...any) error }

func scanUser(row rowScanner) (model.User, error) {
	var u model.User
	var invalidated sql.NullTime
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Company, &u.Title,
		&u.Role, &u.Status, &invalidated, &u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return model.User{}, ErrNotFound
	}
	if err != nil {
		return model.User{}, err
	}
	if invalidated.Valid {
		t := invalidated.Time
		u.InvalidatedSince = &t
	}
	return u, nil
}
