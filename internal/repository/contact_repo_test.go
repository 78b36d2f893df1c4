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
	insertContactSQL      = `INSERT INTO contacts (user_id, name, email) VALUES ($1, $2, $3) RETURNING id, created_at`
	insertContactPhoneSQL = `INSERT INTO contact_phones (contact_id, user_id, phone) VALUES ($1, $2, $3)`
	deleteContactPhoneSQL = `DELETE FROM contact_phones WHERE contact_id = $1 AND user_id = $2`
	ownershipCheckSQL     = `SELECT id FROM contacts WHERE id = $1 AND user_id = $2`
	updateContactSQL      = `UPDATE contacts SET name = $1, email = $2 WHERE id = $3 AND user_id = $4`
)

func newContactRepoMock(t *testing.T) (pgxmock.PgxPoolIface, ContactRepository) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock, NewContactRepository(mock)
}

func TestCreateWithPhones_CommitsOwnerAndPhones(t *testing.T) {
	mock, repo := newContactRepoMock(t)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(insertContactSQL)).
		WithArgs(int64(1), "Ada", (*string)(nil)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow(int64(7), now))
	mock.ExpectExec(regexp.QuoteMeta(insertContactPhoneSQL)).
		WithArgs(int64(7), int64(1), "123").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(regexp.QuoteMeta(insertContactPhoneSQL)).
		WithArgs(int64(7), int64(1), "456").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	contact := &model.Contact{UserID: 1, Name: "Ada"}
	err := repo.CreateWithPhones(context.Background(), contact, []string{"123", "456"})

	require.NoError(t, err)
	assert.Equal(t, int64(7), contact.ID)
	assert.Equal(t, now, contact.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateWithPhones_DuplicateRollsBackWholeTransaction(t *testing.T) {
	mock, repo := newContactRepoMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(insertContactSQL)).
		WithArgs(int64(1), "Bob", (*string)(nil)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow(int64(8), time.Now()))
	mock.ExpectExec(regexp.QuoteMeta(insertContactPhoneSQL)).
		WithArgs(int64(8), int64(1), "555-0100").
		WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation})
	mock.ExpectRollback()

	contact := &model.Contact{UserID: 1, Name: "Bob"}
	err := repo.CreateWithPhones(context.Background(), contact, []string{"555-0100", "555-0101"})

	var dupErr *DuplicatePhoneError
	require.ErrorAs(t, err, &dupErr)
	assert.Equal(t, "555-0100", dupErr.Phone)
	// No commit, no second insert: the failed value aborts everything
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateWithPhones_ReplacesPhoneSetAtomically(t *testing.T) {
	mock, repo := newContactRepoMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(ownershipCheckSQL)).
		WithArgs(int64(7), int64(1)).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(7)))
	mock.ExpectExec(regexp.QuoteMeta(updateContactSQL)).
		WithArgs("Ada", (*string)(nil), int64(7), int64(1)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(regexp.QuoteMeta(deleteContactPhoneSQL)).
		WithArgs(int64(7), int64(1)).
		WillReturnResult(pgxmock.NewResult("DELETE", 2))
	mock.ExpectExec(regexp.QuoteMeta(insertContactPhoneSQL)).
		WithArgs(int64(7), int64(1), "456").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	contact := &model.Contact{ID: 7, UserID: 1, Name: "Ada"}
	err := repo.UpdateWithPhones(context.Background(), contact, []string{"456"})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateWithPhones_OtherUsersContactIsNotFound(t *testing.T) {
	mock, repo := newContactRepoMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(ownershipCheckSQL)).
		WithArgs(int64(7), int64(2)).
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectRollback()

	contact := &model.Contact{ID: 7, UserID: 2, Name: "Ada"}
	err := repo.UpdateWithPhones(context.Background(), contact, nil)

	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateWithPhones_DuplicateLeavesPriorStateIntact(t *testing.T) {
	mock, repo := newContactRepoMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(ownershipCheckSQL)).
		WithArgs(int64(9), int64(1)).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(9)))
	mock.ExpectExec(regexp.QuoteMeta(updateContactSQL)).
		WithArgs("Bob", (*string)(nil), int64(9), int64(1)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(regexp.QuoteMeta(deleteContactPhoneSQL)).
		WithArgs(int64(9), int64(1)).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectExec(regexp.QuoteMeta(insertContactPhoneSQL)).
		WithArgs(int64(9), int64(1), "555-0100").
		WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation})
	mock.ExpectRollback()

	contact := &model.Contact{ID: 9, UserID: 1, Name: "Bob"}
	err := repo.UpdateWithPhones(context.Background(), contact, []string{"555-0100"})

	var dupErr *DuplicatePhoneError
	require.ErrorAs(t, err, &dupErr)
	assert.Equal(t, "555-0100", dupErr.Phone)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDelete_ZeroRowsMeansNotFound(t *testing.T) {
	mock, repo := newContactRepoMock(t)
	deleteSQL := regexp.QuoteMeta(`DELETE FROM contacts WHERE id = $1 AND user_id = $2`)

	mock.ExpectExec(deleteSQL).
		WithArgs(int64(42), int64(1)).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	err := repo.Delete(context.Background(), 1, 42)
	assert.ErrorIs(t, err, ErrNotFound)

	mock.ExpectExec(deleteSQL).
		WithArgs(int64(7), int64(1)).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	assert.NoError(t, repo.Delete(context.Background(), 1, 7))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByID_AttachesPhonesInInsertionOrder(t *testing.T) {
	mock, repo := newContactRepoMock(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, user_id, name, email, created_at FROM contacts WHERE id = $1 AND user_id = $2`)).
		WithArgs(int64(7), int64(1)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "user_id", "name", "email", "created_at"}).
			AddRow(int64(7), int64(1), "Ada", nil, now))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT phone FROM contact_phones WHERE contact_id = $1 AND user_id = $2 ORDER BY id ASC`)).
		WithArgs(int64(7), int64(1)).
		WillReturnRows(pgxmock.NewRows([]string{"phone"}).AddRow("123").AddRow("456"))

	contact, err := repo.FindByID(context.Background(), 1, 7)

	require.NoError(t, err)
	require.NotNil(t, contact)
	assert.Equal(t, "Ada", contact.Name)
	assert.Equal(t, []string{"123", "456"}, contact.Phones)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByID_MissingContactIsNil(t *testing.T) {
	mock, repo := newContactRepoMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, user_id, name, email, created_at FROM contacts WHERE id = $1 AND user_id = $2`)).
		WithArgs(int64(42), int64(1)).
		WillReturnError(pgx.ErrNoRows)

	contact, err := repo.FindByID(context.Background(), 1, 42)

	require.NoError(t, err)
	assert.Nil(t, contact)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByUser_BatchesPhonesInOneQuery(t *testing.T) {
	mock, repo := newContactRepoMock(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, user_id, name, email, created_at FROM contacts WHERE user_id = $1 ORDER BY id DESC`)).
		WithArgs(int64(1)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "user_id", "name", "email", "created_at"}).
			AddRow(int64(8), int64(1), "Bob", nil, now).
			AddRow(int64(7), int64(1), "Ada", nil, now))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT contact_id, phone FROM contact_phones WHERE user_id = $1 AND contact_id = ANY($2) ORDER BY id ASC`)).
		WithArgs(int64(1), []int64{8, 7}).
		WillReturnRows(pgxmock.NewRows([]string{"contact_id", "phone"}).
			AddRow(int64(7), "123").
			AddRow(int64(7), "456"))

	contacts, err := repo.FindByUser(context.Background(), 1)

	require.NoError(t, err)
	require.Len(t, contacts, 2)
	// Newest first; an owner without phones gets an empty slice, not nil
	assert.Equal(t, "Bob", contacts[0].Name)
	assert.Equal(t, []string{}, contacts[0].Phones)
	assert.Equal(t, "Ada", contacts[1].Name)
	assert.Equal(t, []string{"123", "456"}, contacts[1].Phones)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByUser_EmptyBookSkipsPhoneQuery(t *testing.T) {
	mock, repo := newContactRepoMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, user_id, name, email, created_at FROM contacts WHERE user_id = $1 ORDER BY id DESC`)).
		WithArgs(int64(1)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "user_id", "name", "email", "created_at"}))

	contacts, err := repo.FindByUser(context.Background(), 1)

	require.NoError(t, err)
	assert.Equal(t, []model.Contact{}, contacts)
	assert.NoError(t, mock.ExpectationsWereMet())
}
