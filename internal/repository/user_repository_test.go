package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exitboard/exitboard/internal/model"
)

func newUserRepo(t *testing.T) (*UserRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewUserRepo(db), mock
}

func userRows(id, email, hash, status string, invalidated *time.Time) *sqlmock.Rows {
	now := time.Now().UTC()
	var inv interface{}
	if invalidated != nil {
		inv = *invalidated
	}
	return sqlmock.NewRows([]string{
		"id", "name", "email", "password_hash", "company", "title",
		"role", "status", "invalidated_since", "created_at", "updated_at",
	}).AddRow(id, "Test User", email, hash, "Acme", "Engineer",
		model.RoleUser, status, inv, now, now)
}

func TestUserRepo_GetByEmail_NormalizesCase(t *testing.T) {
	repo, mock := newUserRepo(t)

	mock.ExpectQuery("SELECT .+ FROM users WHERE email=").
		WithArgs("alice@example.com").
		WillReturnRows(userRows("u1", "alice@example.com", "hash", model.StatusActive, nil))

	u, err := repo.GetByEmail(context.Background(), "  Alice@Example.COM ")
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)
	assert.Nil(t, u.InvalidatedSince)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_GetByID_NotFound(t *testing.T) {
	repo, mock := newUserRepo(t)

	mock.ExpectQuery("SELECT .+ FROM users WHERE id=").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserRepo_GetByID_ScansWatermark(t *testing.T) {
	repo, mock := newUserRepo(t)

	mark := time.Now().UTC().Add(-time.Minute)
	mock.ExpectQuery("SELECT .+ FROM users WHERE id=").
		WithArgs("u1").
		WillReturnRows(userRows("u1", "alice@example.com", "hash", model.StatusActive, &mark))

	u, err := repo.GetByID(context.Background(), "u1")
	require.NoError(t, err)
	require.NotNil(t, u.InvalidatedSince)
	assert.WithinDuration(t, mark, *u.InvalidatedSince, time.Second)
}

func TestUserRepo_Create_DuplicateEmail(t *testing.T) {
	repo, mock := newUserRepo(t)

	mock.ExpectExec("INSERT INTO users").
		WillReturnError(&duplicateKeyError{})

	_, err := repo.Create(context.Background(), "Bob", "bob@example.com", "pw", "", "", 4)
	assert.ErrorIs(t, err, ErrEmailExists)
}

// duplicateKeyError mimics the driver's unique-constraint violation.
type duplicateKeyError struct{}

func (*duplicateKeyError) Error() string {
	return "Error 1062 (23000): Duplicate entry 'bob@example.com' for key 'users.email'"
}

func TestUserRepo_Invalidate_AdvancesWatermark(t *testing.T) {
	repo, mock := newUserRepo(t)

	mock.ExpectExec("UPDATE users SET invalidated_since=").
		WithArgs(sqlmock.AnyArg(), "u1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Invalidate(context.Background(), "u1"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_Invalidate_UnknownUser(t *testing.T) {
	repo, mock := newUserRepo(t)

	mock.ExpectExec("UPDATE users SET invalidated_since=").
		WithArgs(sqlmock.AnyArg(), "ghost").
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, repo.Invalidate(context.Background(), "ghost"), ErrNotFound)
}

func TestUserRepo_Delete_CascadesPostingsFirst(t *testing.T) {
	repo, mock := newUserRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM job_postings WHERE author_id=").
		WithArgs("u1").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("DELETE FROM users WHERE id=").
		WithArgs("u1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Delete(context.Background(), "u1"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_Delete_UnknownUserRollsBack(t *testing.T) {
	repo, mock := newUserRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM job_postings WHERE author_id=").
		WithArgs("ghost").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM users WHERE id=").
		WithArgs("ghost").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	assert.ErrorIs(t, repo.Delete(context.Background(), "ghost"), ErrNotFound)
}

func TestUserRepo_UpdateProfile(t *testing.T) {
	repo, mock := newUserRepo(t)

	mock.ExpectExec("UPDATE users SET name=").
		WithArgs("Alice B.", "alice.b@example.com", "Initech", "Staff Engineer", "u1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT .+ FROM users WHERE id=").
		WithArgs("u1").
		WillReturnRows(userRows("u1", "alice.b@example.com", "hash", model.StatusActive, nil))

	u, err := repo.UpdateProfile(context.Background(), "u1", "Alice B.", " Alice.B@Example.com ", "Initech", "Staff Engineer")
	require.NoError(t, err)
	assert.Equal(t, "alice.b@example.com", u.Email)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_UpdateProfile_DuplicateEmail(t *testing.T) {
	repo, mock := newUserRepo(t)

	mock.ExpectExec("UPDATE users SET name=").
		WillReturnError(&duplicateKeyError{})

	_, err := repo.UpdateProfile(context.Background(), "u1", "Alice", "taken@example.com", "", "")
	assert.ErrorIs(t, err, ErrEmailExists)
}

// Saving an unchanged profile reports zero affected rows; that must not
// read as a missing user.
func TestUserRepo_UpdateProfile_NoopSave(t *testing.T) {
	repo, mock := newUserRepo(t)

	mock.ExpectExec("UPDATE users SET name=").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT .+ FROM users WHERE id=").
		WithArgs("u1").
		WillReturnRows(userRows("u1", "alice@example.com", "hash", model.StatusActive, nil))

	_, err := repo.UpdateProfile(context.Background(), "u1", "Alice", "alice@example.com", "Acme", "Engineer")
	assert.NoError(t, err)
}
