package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"contact_book/internal/model"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	insertUserSQL      = `INSERT INTO users (username, password_hash, role) VALUES ($1, $2, $3) RETURNING id, created_at`
	updateProfileSQL   = `UPDATE users SET full_name = $1, email = $2, avatar_url = $3, bio = $4 WHERE id = $5`
	deleteUserPhoneSQL = `DELETE FROM user_phones WHERE user_id = $1`
	insertUserPhoneSQL = `INSERT INTO user_phones (user_id, phone) VALUES ($1, $2)`
)

func newUserRepoMock(t *testing.T) (pgxmock.PgxPoolIface, UserRepository) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock, NewUserRepository(mock)
}

func TestUserCreate_MapsUniqueViolation(t *testing.T) {
	mock, repo := newUserRepoMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(insertUserSQL)).
		WithArgs("ada", "hash", "user").
		WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation})

	err := repo.Create(context.Background(), &model.User{Username: "ada", PasswordHash: "hash", Role: "user"})
	assert.ErrorIs(t, err, ErrDuplicateUsername)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserCreate_ReturnsGeneratedID(t *testing.T) {
	mock, repo := newUserRepoMock(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(insertUserSQL)).
		WithArgs("ada", "hash", "user").
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow(int64(3), now))

	user := &model.User{Username: "ada", PasswordHash: "hash", Role: "user"}
	err := repo.Create(context.Background(), user)

	require.NoError(t, err)
	assert.Equal(t, int64(3), user.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByUsername_MissingUserIsNil(t *testing.T) {
	mock, repo := newUserRepoMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, username, password_hash, role, created_at FROM users WHERE username = $1`)).
		WithArgs("ghost").
		WillReturnError(pgx.ErrNoRows)

	user, err := repo.FindByUsername(context.Background(), "ghost")

	require.NoError(t, err)
	assert.Nil(t, user)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindProfile_AttachesPhones(t *testing.T) {
	mock, repo := newUserRepoMock(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, username, role, full_name, email, avatar_url, bio, created_at FROM users WHERE id = $1`)).
		WithArgs(int64(1)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "username", "role", "full_name", "email", "avatar_url", "bio", "created_at"}).
			AddRow(int64(1), "ada", "user", nil, nil, nil, nil, now))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT phone FROM user_phones WHERE user_id = $1 ORDER BY id ASC`)).
		WithArgs(int64(1)).
		WillReturnRows(pgxmock.NewRows([]string{"phone"}).AddRow("123").AddRow("456"))

	user, err := repo.FindProfile(context.Background(), 1)

	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "ada", user.Username)
	assert.Equal(t, []string{"123", "456"}, user.Phones)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateProfileWithPhones_ReplacesAtomically(t *testing.T) {
	mock, repo := newUserRepoMock(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(updateProfileSQL)).
		WithArgs((*string)(nil), (*string)(nil), (*string)(nil), (*string)(nil), int64(1)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(regexp.QuoteMeta(deleteUserPhoneSQL)).
		WithArgs(int64(1)).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec(regexp.QuoteMeta(insertUserPhoneSQL)).
		WithArgs(int64(1), "123").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	err := repo.UpdateProfileWithPhones(context.Background(), &model.User{ID: 1}, []string{"123"})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateProfileWithPhones_MissingUserRollsBack(t *testing.T) {
	mock, repo := newUserRepoMock(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(updateProfileSQL)).
		WithArgs((*string)(nil), (*string)(nil), (*string)(nil), (*string)(nil), int64(42)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectRollback()

	err := repo.UpdateProfileWithPhones(context.Background(), &model.User{ID: 42}, nil)

	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateProfileWithPhones_DuplicateRollsBack(t *testing.T) {
	mock, repo := newUserRepoMock(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(updateProfileSQL)).
		WithArgs((*string)(nil), (*string)(nil), (*string)(nil), (*string)(nil), int64(1)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(regexp.QuoteMeta(deleteUserPhoneSQL)).
		WithArgs(int64(1)).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectExec(regexp.QuoteMeta(insertUserPhoneSQL)).
		WithArgs(int64(1), "555-0100").
		WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation})
	mock.ExpectRollback()

	err := repo.UpdateProfileWithPhones(context.Background(), &model.User{ID: 1}, []string{"555-0100"})

	var dupErr *DuplicatePhoneError
	require.ErrorAs(t, err, &dupErr)
	assert.Equal(t, "555-0100", dupErr.Phone)
	assert.NoError(t, mock.ExpectationsWereMet())
}
