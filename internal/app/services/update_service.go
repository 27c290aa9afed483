package services

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/yigit/resultsphere/internal/app/models"
	"github.com/yigit/resultsphere/internal/app/models/dto"
	"github.com/yigit/resultsphere/internal/app/repositories"
	"github.com/yigit/resultsphere/internal/pkg/apperrors"
	"github.com/yigit/resultsphere/internal/pkg/email"
	"github.com/yigit/resultsphere/internal/pkg/workqueue"
)

// AddressBook lists the addresses an announcement is mailed to
type AddressBook interface {
	ListEmails(ctx context.Context) ([]string, error)
}

// UpdateService posts and lists portal announcements
type UpdateService interface {
	CreateUpdate(ctx context.Context, req *dto.CreateUpdateRequest) (*dto.CreateUpdateResponse, error)
	ListUpdates(ctx context.Context) ([]dto.UpdateResponse, error)
}

var updateEmailTemplate = template.Must(template.New("update").Parse(`<div style="font-family: Arial, sans-serif; max-width: 800px; margin: 0 auto; padding: 20px;">
  <h2 style="color: #2c3e50;">{{.Title}}</h2>
  <p style="white-space: pre-line;">{{.Description}}</p>
  <p><strong>Date:</strong> {{.Date}}</p>
  <p style="margin-top: 20px; color: #7f8c8d; font-size: 12px; text-align: center;">
    This is an automated email. Please do not reply.
  </p>
</div>`))

type updateServiceImpl struct {
	store     repositories.UpdateStore
	addresses AddressBook
	queue     *workqueue.Queue
	sender    email.Sender
	logger    zerolog.Logger
}

// NewUpdateService creates an UpdateService. A nil queue or sender disables the email broadcast.
func NewUpdateService(
	store repositories.UpdateStore,
	addresses AddressBook,
	queue *workqueue.Queue,
	sender email.Sender,
	logger zerolog.Logger,
) UpdateService {
	return &updateServiceImpl{
		store:     store,
		addresses: addresses,
		queue:     queue,
		sender:    sender,
		logger:    logger.With().Str("component", "updates").Logger(),
	}
}

// CreateUpdate stores an announcement and queues one email per registered address.
// Mail failures never fail the request.
func (s *updateServiceImpl) CreateUpdate(ctx context.Context, req *dto.CreateUpdateRequest) (*dto.CreateUpdateResponse, error) {
	title := strings.TrimSpace(req.Title)
	description := strings.TrimSpace(req.Description)
	if title == "" || description == "" {
		return nil, fmt.Errorf("%w: title and description are required", apperrors.ErrValidationFailed)
	}
	date, err := time.Parse(dto.UpdateDateLayout, strings.TrimSpace(req.Date))
	if err != nil {
		return nil, fmt.Errorf("%w: date must be YYYY-MM-DD", apperrors.ErrValidationFailed)
	}

	update := &models.Update{Title: title, Description: description, Date: date}
	if err := s.store.Create(ctx, update); err != nil {
		return nil, fmt.Errorf("error creating update: %w", err)
	}

	queued := s.broadcast(ctx, update)
	s.logger.Info().Int64("updateID", update.ID).Str("title", title).Int("queuedEmails", queued).Msg("Update posted")

	return &dto.CreateUpdateResponse{UpdateResponse: toUpdateResponse(update), QueuedEmails: queued}, nil
}

// ListUpdates returns every announcement, newest first
func (s *updateServiceImpl) ListUpdates(ctx context.Context) ([]dto.UpdateResponse, error) {
	updates, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing updates: %w", err)
	}
	out := make([]dto.UpdateResponse, 0, len(updates))
	for _, u := range updates {
		out = append(out, toUpdateResponse(u))
	}
	return out, nil
}

func (s *updateServiceImpl) broadcast(ctx context.Context, update *models.Update) int {
	if s.queue == nil || s.sender == nil || s.addresses == nil {
		return 0
	}

	recipients, err := s.addresses.ListEmails(ctx)
	if err != nil {
		s.logger.Error().Err(err).Int64("updateID", update.ID).Msg("Could not load recipients, update email skipped")
		return 0
	}

	msg, err := renderUpdateEmail(update)
	if err != nil {
		s.logger.Error().Err(err).Int64("updateID", update.ID).Msg("Failed to render update email")
		return 0
	}

	queued := 0
	for _, to := range recipients {
		m := msg
		m.To = to
		if s.queue.Submit(func(ctx context.Context) {
			if err := s.sender.Send(ctx, m); err != nil {
				s.logger.Error().Err(err).Str("to", m.To).Int64("updateID", update.ID).Msg("Failed to send update email")
			}
		}) {
			queued++
		}
	}
	if dropped := len(recipients) - queued; dropped > 0 {
		s.logger.Warn().Int("dropped", dropped).Int64("updateID", update.ID).Msg("Mail queue full, some update emails dropped")
	}
	return queued
}

func renderUpdateEmail(update *models.Update) (email.Message, error) {
	date := update.Date.Format(dto.UpdateDateLayout)
	var buf bytes.Buffer
	if err := updateEmailTemplate.Execute(&buf, struct {
		Title, Description, Date string
	}{update.Title, update.Description, date}); err != nil {
		return email.Message{}, err
	}

	return email.Message{
		Subject:  "New Update Posted",
		HTMLBody: buf.String(),
		TextBody: fmt.Sprintf("A new update has been posted:\n\nTitle: %s\nDescription: %s\nDate: %s\n",
			update.Title, update.Description, date),
	}, nil
}

func toUpdateResponse(u *models.Update) dto.UpdateResponse {
	return dto.UpdateResponse{
		ID:          u.ID,
		Title:       u.Title,
		Description: u.Description,
		Date:        u.Date.Format(dto.UpdateDateLayout),
		CreatedAt:   u.CreatedAt,
	}
}
