// Package contact stores public contact form queries and lets admins answer
// them by email.
package contact

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	"disaster-relief-api-server/internal/apperr"
	"disaster-relief-api-server/internal/mailer"
	"disaster-relief-api-server/internal/models"
	"disaster-relief-api-server/internal/store"
)

type Service struct {
	queries store.ContactRepository
	mail    mailer.Sender
	support string
	timeout time.Duration
	now     func() time.Time
	pending sync.WaitGroup
}

// NewService forwards new queries to supportAddress; an empty address only
// stores them.
func NewService(queries store.ContactRepository, mail mailer.Sender, supportAddress string, timeout time.Duration) *Service {
	if mail == nil {
		mail = mailer.Nop{}
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Service{
		queries: queries,
		mail:    mail,
		support: supportAddress,
		timeout: timeout,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Wait blocks until queued support notices have been attempted.
func (s *Service) Wait() { s.pending.Wait() }

type SubmitInput struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber"`
	QueryType   string `json:"queryType"`
	Subject     string `json:"subject"`
	Message     string `json:"message"`
}

func (in *SubmitInput) normalize() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.PhoneNumber = strings.TrimSpace(in.PhoneNumber)
	in.QueryType = strings.TrimSpace(in.QueryType)
	in.Subject = strings.TrimSpace(in.Subject)
	in.Message = strings.TrimSpace(in.Message)

	missing := map[string]string{}
	for field, v := range map[string]string{
		"name": in.Name, "email": in.Email, "queryType": in.QueryType, "subject": in.Subject, "message": in.Message,
	} {
		if v == "" {
			missing[field] = "This field is required"
		}
	}
	if len(missing) > 0 {
		err := apperr.ValidationFields(missing)
		err.Message = "All required fields must be filled."
		return err
	}
	if !strings.Contains(in.Email, "@") {
		return apperr.Validation("Invalid email address")
	}
	return nil
}

// Submit saves the query first; the support notice that follows is best
// effort and never fails the submission.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (*models.ContactQuery, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	now := s.now()
	q := &models.ContactQuery{
		Name:        in.Name,
		Email:       in.Email,
		PhoneNumber: in.PhoneNumber,
		QueryType:   in.QueryType,
		Subject:     in.Subject,
		Message:     in.Message,
		Status:      models.ContactPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.queries.Insert(ctx, q); err != nil {
		return nil, apperr.Internal(err, "Could not save your message")
	}
	log.Printf("[contact] query %s saved (%s)", q.ID, q.QueryType)
	s.notifySupport(*q)
	return q, nil
}

func (s *Service) notifySupport(q models.ContactQuery) {
	if s.support == "" {
		return
	}
	msg, err := mailer.ContactNotice(s.support, mailer.ContactData{
		ID: q.ID, Name: q.Name, Email: q.Email, PhoneNumber: q.PhoneNumber,
		QueryType: q.QueryType, Subject: q.Subject, Message: q.Message,
	})
	if err != nil {
		log.Printf("[contact] %v", err)
		return
	}
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		if err := s.mail.Send(ctx, msg); err != nil {
			log.Printf("[contact] support notice for %s failed: %v", q.ID, err)
		}
	}()
}

func (s *Service) List(ctx context.Context) ([]models.ContactQuery, error) {
	qs, err := s.queries.List(ctx)
	if err != nil {
		return nil, apperr.Internal(err, "Server Error")
	}
	return qs, nil
}

// UpdateStatus sets the query's status; an empty status leaves it as is.
func (s *Service) UpdateStatus(ctx context.Context, id string, status models.ContactStatus) (*models.ContactQuery, error) {
	if status == "" {
		q, err := s.queries.Get(ctx, id)
		if err != nil {
			return nil, store.AppError(err, "Query not found.")
		}
		return q, nil
	}
	if !status.Valid() {
		return nil, apperr.Validation("Invalid status: %s", status)
	}
	q, err := s.queries.SetStatus(ctx, id, status, s.now())
	if err != nil {
		return nil, store.AppError(err, "Query not found.")
	}
	return q, nil
}

// Reply emails the answer to whoever sent the query and marks it Resolved.
// Unlike the support notice, a failed send fails the call and the query
// stays open.
func (s *Service) Reply(ctx context.Context, id, reply string) (*models.ContactQuery, error) {
	q, err := s.queries.Get(ctx, id)
	if err != nil {
		return nil, store.AppError(err, "Query not found.")
	}
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return nil, apperr.Validation("Reply message is required.")
	}

	msg, err := mailer.ContactReply(q.Email, mailer.ReplyData{Name: q.Name, Subject: q.Subject, Reply: reply, Original: q.Message})
	if err != nil {
		return nil, apperr.Internal(err, "Could not send the reply")
	}
	sendCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.mail.Send(sendCtx, msg); err != nil {
		return nil, apperr.Internal(err, "Could not send the reply")
	}

	updated, err := s.queries.SetStatus(ctx, id, models.ContactResolved, s.now())
	if err != nil {
		return nil, store.AppError(err, "Query not found.")
	}
	log.Printf("[contact] query %s answered", id)
	return updated, nil
}
