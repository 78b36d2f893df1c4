package model

import "time"

// Contact represents one entry in a user's contact book
type Contact struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"-"` // Ownership is implied by the authenticated caller
	Name      string    `json:"name"`
	Email     *string   `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	Phones    []string  `json:"phones"`
}

// CreateContactRequest is used for creating a new contact
type CreateContactRequest struct {
	Name   string     `json:"name"`
	Email  *string    `json:"email"`
	Phones PhoneInput `json:"phones"`
}

// UpdateContactRequest is used for PUT updates; name and email replace the
// stored attributes and the phone collection is fully replaced.
type UpdateContactRequest struct {
	Name   string     `json:"name"`
	Email  *string    `json:"email"`
	Phones PhoneInput `json:"phones"`
}
