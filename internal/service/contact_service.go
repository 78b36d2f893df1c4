package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"contact_book/internal/model"
	"contact_book/internal/repository"
)

// ContactService defines operations on a user's contact book
type ContactService interface {
	ListContacts(ctx context.Context, userID int64) ([]model.Contact, error)
	GetContact(ctx context.Context, userID, contactID int64) (*model.Contact, error)
	CreateContact(ctx context.Context, userID int64, req model.CreateContactRequest) (*model.Contact, error)
	UpdateContact(ctx context.Context, userID, contactID int64, req model.UpdateContactRequest) (*model.Contact, error)
	DeleteContact(ctx context.Context, userID, contactID int64) error
}

type contactService struct {
	repo repository.ContactRepository
}

// NewContactService creates a new ContactService
func NewContactService(repo repository.ContactRepository) ContactService {
	return &contactService{repo: repo}
}

func (s *contactService) ListContacts(ctx context.Context, userID int64) ([]model.Contact, error) {
	contacts, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list contacts from repo: %w", err)
	}
	return contacts, nil
}

func (s *contactService) GetContact(ctx context.Context, userID, contactID int64) (*model.Contact, error) {
	contact, err := s.repo.FindByID(ctx, userID, contactID)
	if err != nil {
		return nil, fmt.Errorf("failed to find contact: %w", err)
	}
	if contact == nil {
		return nil, ErrContactNotFound
	}
	return contact, nil
}

func (s *contactService) CreateContact(ctx context.Context, userID int64, req model.CreateContactRequest) (*model.Contact, error) {
	phones := req.Phones.Normalize()
	email := trimOptional(req.Email)
	if err := validateContactBase(req.Name, email); err != nil {
		return nil, err
	}
	if err := validatePhones(phones); err != nil {
		return nil, err
	}

	contact := &model.Contact{
		UserID: userID,
		Name:   strings.TrimSpace(req.Name),
		Email:  email,
	}
	if err := s.repo.CreateWithPhones(ctx, contact, phones); err != nil {
		return nil, convertContactError(err, "failed to create contact in repo")
	}

	// Re-read the aggregate so the response reflects exactly what was stored.
	return s.GetContact(ctx, userID, contact.ID)
}

func (s *contactService) UpdateContact(ctx context.Context, userID, contactID int64, req model.UpdateContactRequest) (*model.Contact, error) {
	phones := req.Phones.Normalize()
	email := trimOptional(req.Email)
	if err := validateContactBase(req.Name, email); err != nil {
		return nil, err
	}
	if err := validatePhones(phones); err != nil {
		return nil, err
	}

	contact := &model.Contact{
		ID:     contactID,
		UserID: userID,
		Name:   strings.TrimSpace(req.Name),
		Email:  email,
	}
	if err := s.repo.UpdateWithPhones(ctx, contact, phones); err != nil {
		return nil, convertContactError(err, "failed to update contact in repo")
	}

	return s.GetContact(ctx, userID, contactID)
}

func (s *contactService) DeleteContact(ctx context.Context, userID, contactID int64) error {
	if err := s.repo.Delete(ctx, userID, contactID); err != nil {
		return convertContactError(err, "failed to delete contact in repo")
	}
	return nil
}

// convertContactError maps repository signals onto the service's tagged error
// kinds; anything else is wrapped as an internal failure.
func convertContactError(err error, msg string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrContactNotFound
	}
	var dup *repository.DuplicatePhoneError
	if errors.As(err, &dup) {
		return &DuplicatePhoneError{Phone: dup.Phone}
	}
	return fmt.Errorf("%s: %w", msg, err)
}
