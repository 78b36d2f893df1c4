package repository

import (
	"context"
	"errors"
	"fmt"

	"contact_book/internal/model"

	"github.com/jackc/pgx/v5"
)

// ContactRepository defines operations for contact data. The write methods
// run the whole owner+phones mutation inside one transaction.
type ContactRepository interface {
	CreateWithPhones(ctx context.Context, contact *model.Contact, phones []string) error
	UpdateWithPhones(ctx context.Context, contact *model.Contact, phones []string) error
	Delete(ctx context.Context, userID, contactID int64) error
	FindByID(ctx context.Context, userID, contactID int64) (*model.Contact, error)
	FindByUser(ctx context.Context, userID int64) ([]model.Contact, error)
}

type contactRepository struct {
	db DB
}

// NewContactRepository creates a new ContactRepository
func NewContactRepository(db DB) ContactRepository {
	return &contactRepository{db: db}
}

// CreateWithPhones inserts the contact and its phone rows atomically. On a
// phone uniqueness violation the whole transaction rolls back and a
// DuplicatePhoneError naming the value is returned.
func (r *contactRepository) CreateWithPhones(ctx context.Context, c *model.Contact, phones []string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) // no-op once committed

	sql := `INSERT INTO contacts (user_id, name, email) VALUES ($1, $2, $3) RETURNING id, created_at`
	if err := tx.QueryRow(ctx, sql, c.UserID, c.Name, c.Email).Scan(&c.ID, &c.CreatedAt); err != nil {
		return fmt.Errorf("failed to insert contact: %w", err)
	}

	if err := contactPhones.insertAll(ctx, tx, c.ID, c.UserID, phones); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit contact create: %w", err)
	}
	return nil
}

// UpdateWithPhones replaces the contact's attributes and its entire phone
// collection atomically. Returns ErrNotFound when the contact does not exist
// or belongs to another user.
func (r *contactRepository) UpdateWithPhones(ctx context.Context, c *model.Contact, phones []string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// Confirm ownership before touching anything.
	var id int64
	err = tx.QueryRow(ctx, `SELECT id FROM contacts WHERE id = $1 AND user_id = $2`, c.ID, c.UserID).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to check contact ownership: %w", err)
	}

	sql := `UPDATE contacts SET name = $1, email = $2 WHERE id = $3 AND user_id = $4`
	if _, err := tx.Exec(ctx, sql, c.Name, c.Email, c.ID, c.UserID); err != nil {
		return fmt.Errorf("failed to update contact: %w", err)
	}

	if err := contactPhones.replaceAll(ctx, tx, c.ID, c.UserID, phones); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit contact update: %w", err)
	}
	return nil
}

// Delete removes the contact; the schema cascades to its phone rows.
func (r *contactRepository) Delete(ctx context.Context, userID, contactID int64) error {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM contacts WHERE id = $1 AND user_id = $2`, contactID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete contact: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// FindByID retrieves one contact with its phones in insertion order. Returns
// (nil, nil) when absent or owned by another user.
func (r *contactRepository) FindByID(ctx context.Context, userID, contactID int64) (*model.Contact, error) {
	c := &model.Contact{}
	sql := `SELECT id, user_id, name, email, created_at FROM contacts WHERE id = $1 AND user_id = $2`
	err := r.db.QueryRow(ctx, sql, contactID, userID).Scan(&c.ID, &c.UserID, &c.Name, &c.Email, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to find contact by ID: %w", err)
	}

	phones, err := contactPhones.forOwner(ctx, r.db, c.ID, userID)
	if err != nil {
		return nil, err
	}
	c.Phones = phones
	return c, nil
}

// FindByUser retrieves all of the user's contacts, newest first, with their
// phones attached. Phones for the whole id set are fetched in one query.
func (r *contactRepository) FindByUser(ctx context.Context, userID int64) ([]model.Contact, error) {
	sql := `SELECT id, user_id, name, email, created_at FROM contacts WHERE user_id = $1 ORDER BY id DESC`
	rows, err := r.db.Query(ctx, sql, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query contacts by user: %w", err)
	}
	defer rows.Close()

	contacts := []model.Contact{}
	for rows.Next() {
		var c model.Contact
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.Email, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan contact row: %w", err)
		}
		contacts = append(contacts, c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating contact rows: %w", err)
	}
	if len(contacts) == 0 {
		return contacts, nil
	}

	ids := make([]int64, len(contacts))
	for i, c := range contacts {
		ids[i] = c.ID
	}
	grouped, err := contactPhones.forOwners(ctx, r.db, userID, ids)
	if err != nil {
		return nil, err
	}
	for i := range contacts {
		if phones, ok := grouped[contacts[i].ID]; ok {
			contacts[i].Phones = phones
		} else {
			contacts[i].Phones = []string{}
		}
	}
	return contacts, nil
}
