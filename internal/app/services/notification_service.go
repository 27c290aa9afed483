package services

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"

	"github.com/rs/zerolog"

	"github.com/yigit/resultsphere/internal/app/models"
	"github.com/yigit/resultsphere/internal/ingestion"
	"github.com/yigit/resultsphere/internal/pkg/email"
	"github.com/yigit/resultsphere/internal/pkg/workqueue"
)

// EmailDirectory resolves the registered address of a student
type EmailDirectory interface {
	EmailForRoll(ctx context.Context, roll string) (string, error)
}

var resultEmailTemplate = template.Must(template.New("result").Parse(`<div style="font-family: Arial, sans-serif; max-width: 800px; margin: 0 auto; padding: 20px;">
  <h2 style="color: #2c3e50;">Semester Results</h2>
  <div style="background-color: #f8f9fa; padding: 15px; border-radius: 5px; margin-bottom: 20px;">
    <p><strong>Roll Number:</strong> {{.Roll}}</p>
    <p><strong>Student Type:</strong> {{.StudentType}}</p>
    <p><strong>Performance Summary:</strong></p>
    <ul>
      <li>Total Subjects: {{.Total}}</li>
      <li>Passed: {{.Passed}}</li>
      <li>Success Rate: {{printf "%.2f" .SuccessRate}}%</li>
    </ul>
  </div>
  <table style="border-collapse: collapse; width: 100%; margin-top: 20px;">
    <tr style="background-color: #2c3e50; color: white;">
      <th style="padding: 10px; border: 1px solid #ddd;">Subject Code</th>
      <th style="padding: 10px; border: 1px solid #ddd;">Subject Name</th>
      <th style="padding: 10px; border: 1px solid #ddd;">Internal</th>
      <th style="padding: 10px; border: 1px solid #ddd;">Grade</th>
      <th style="padding: 10px; border: 1px solid #ddd;">Credits</th>
      <th style="padding: 10px; border: 1px solid #ddd;">Status</th>
    </tr>
    {{- range .Subjects}}
    <tr>
      <td style="padding: 8px; border: 1px solid #ddd;">{{.SubjectCode}}</td>
      <td style="padding: 8px; border: 1px solid #ddd;">{{.SubjectName}}</td>
      <td style="padding: 8px; border: 1px solid #ddd;">{{.Internal}}</td>
      <td style="padding: 8px; border: 1px solid #ddd;">{{.Grade}}</td>
      <td style="padding: 8px; border: 1px solid #ddd;">{{.Credits}}</td>
      <td style="padding: 8px; border: 1px solid #ddd;">{{.Status}}</td>
    </tr>
    {{- end}}
  </table>
  <p style="margin-top: 20px; color: #7f8c8d; font-size: 12px; text-align: center;">
    This is an automated email. Please do not reply.
  </p>
</div>`))

type resultEmailData struct {
	Roll        string
	StudentType models.StudentType
	Total       int
	Passed      int
	SuccessRate float64
	Subjects    []models.SubjectRecord
}

// ResultNotifier emails a student their semester result
type ResultNotifier struct {
	directory EmailDirectory
	sender    email.Sender
	logger    zerolog.Logger
}

// NewResultNotifier creates a ResultNotifier. A nil directory always uses the record's address.
func NewResultNotifier(directory EmailDirectory, sender email.Sender, logger zerolog.Logger) *ResultNotifier {
	return &ResultNotifier{
		directory: directory,
		sender:    sender,
		logger:    logger.With().Str("component", "notifier").Logger(),
	}
}

// SendResultEmail delivers the result email and reports whether it was sent.
// Failures are logged, never returned.
func (n *ResultNotifier) SendResultEmail(ctx context.Context, record models.StudentRecord) bool {
	log := n.logger.With().Str("roll", record.Roll).Logger()

	to := n.recipient(ctx, record)
	if to == "" {
		log.Warn().Msg("No email address for student, result email skipped")
		return false
	}

	body, err := renderResultEmail(record)
	if err != nil {
		log.Error().Err(err).Msg("Failed to render result email")
		return false
	}

	msg := email.Message{
		To:       to,
		Subject:  "Semester Results - " + record.Roll,
		HTMLBody: body,
		TextBody: fmt.Sprintf("Your semester results are available. Roll: %s, subjects: %d, passed: %d.",
			record.Roll, len(record.Subjects), record.PassedCount()),
	}
	if err := n.sender.Send(ctx, msg); err != nil {
		log.Error().Err(err).Str("to", to).Msg("Failed to send result email")
		return false
	}

	log.Debug().Str("to", to).Msg("Result email sent")
	return true
}

func (n *ResultNotifier) recipient(ctx context.Context, record models.StudentRecord) string {
	if n.directory != nil {
		addr, err := n.directory.EmailForRoll(ctx, record.Roll)
		if err == nil && strings.TrimSpace(addr) != "" {
			return addr
		}
	}
	return strings.TrimSpace(record.Email)
}

func renderResultEmail(record models.StudentRecord) (string, error) {
	data := resultEmailData{
		Roll:        record.Roll,
		StudentType: record.StudentType,
		Total:       len(record.Subjects),
		Passed:      record.PassedCount(),
		Subjects:    record.Subjects,
	}
	data.SuccessRate = ingestion.Percentage(data.Passed, data.Total)

	var buf bytes.Buffer
	if err := resultEmailTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// QueuedNotifier hands result emails to a background queue so ingestion never waits on delivery.
type QueuedNotifier struct {
	queue    *workqueue.Queue
	notifier *ResultNotifier
	logger   zerolog.Logger
}

// NewQueuedNotifier creates a QueuedNotifier
func NewQueuedNotifier(queue *workqueue.Queue, notifier *ResultNotifier, logger zerolog.Logger) *QueuedNotifier {
	return &QueuedNotifier{queue: queue, notifier: notifier, logger: logger}
}

// NotifyResult implements ingestion.Notifier
func (q *QueuedNotifier) NotifyResult(record models.StudentRecord) {
	rec := record.Clone()
	if !q.queue.Submit(func(ctx context.Context) {
		q.notifier.SendResultEmail(ctx, rec)
	}) {
		q.logger.Warn().Str("roll", rec.Roll).Msg("Notification queue full, result email dropped")
	}
}
