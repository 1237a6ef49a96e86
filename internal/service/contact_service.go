package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/magazinehq/magazine-api/internal/models"
	appErrors "github.com/magazinehq/magazine-api/pkg/errors"
)

type contactRepository interface {
	Create(ctx context.Context, msg *models.ContactMessage) error
	FindByID(ctx context.Context, id string) (*models.ContactMessage, error)
	List(ctx context.Context) ([]models.ContactMessage, error)
	MarkRead(ctx context.Context, id string) error
}

// ContactRequest is the public contact form payload.
type ContactRequest struct {
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email" validate:"required,email"`
	Subject string `json:"subject" validate:"required"`
	Message string `json:"message" validate:"required"`
}

// ContactService accepts contact-form messages and exposes them to the
// admin inbox.
type ContactService struct {
	messages  contactRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewContactService creates an instance of ContactService.
func NewContactService(messages contactRepository, validate *validator.Validate, logger *zap.Logger) *ContactService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &ContactService{messages: messages, validator: validate, logger: logger}
}

// Submit stores a new message from the public form.
func (s *ContactService) Submit(ctx context.Context, req ContactRequest) (*models.ContactMessage, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "name, email, subject and message are required")
	}

	msg := &models.ContactMessage{
		Name:    req.Name,
		Email:   req.Email,
		Subject: req.Subject,
		Message: req.Message,
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store contact message")
	}
	s.logger.Info("contact message received", zap.String("subject", msg.Subject))
	return msg, nil
}

// List returns all messages for the admin inbox, newest first.
func (s *ContactService) List(ctx context.Context) ([]models.ContactMessage, error) {
	msgs, err := s.messages.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list contact messages")
	}
	return msgs, nil
}

// Get returns a single message. Opening a message in the admin inbox also
// marks it read.
func (s *ContactService) Get(ctx context.Context, id string) (*models.ContactMessage, error) {
	return s.MarkRead(ctx, id)
}

// MarkRead flags a message as handled.
func (s *ContactService) MarkRead(ctx context.Context, id string) (*models.ContactMessage, error) {
	msg, err := s.messages.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "contact message not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load contact message")
	}

	if !msg.Read {
		if err := s.messages.MarkRead(ctx, id); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark message read")
		}
		msg.Read = true
	}
	return msg, nil
}
