package billing

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/estateguard/estate/internal/shared"
)

// RepositoryPort is the storage contract of the service.
type RepositoryPort interface {
	LatestSettings(ctx context.Context) (Settings, error)
	ListHistory(ctx context.Context) ([]HistoryEntry, error)
	ListPayments(ctx context.Context, f PaymentFilter) ([]Payment, error)
	InsertPayment(ctx context.Context, p Payment) error
	ReviewPayment(ctx context.Context, id, status string, at time.Time) error
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// Service implements billing settings and payment review.
type Service struct {
	repo  RepositoryPort
	ids   shared.IDGenerator
	clock shared.Clock
}

// NewService constructs a Service.
func NewService(repo RepositoryPort, ids shared.IDGenerator, clock shared.Clock) *Service {
	if ids == nil {
		ids = shared.NewID
	}
	if clock == nil {
		clock = shared.SystemClock{}
	}
	return &Service{repo: repo, ids: ids, clock: clock}
}

// SettingsInput is a requested settings revision.
type SettingsInput struct {
	Rate      float64
	Frequency string
	QRKey     *string
	BGKey     *string
	StartDate string
}

// CurrentSettings returns the newest revision or shared.ErrNotFound.
func (s *Service) CurrentSettings(ctx context.Context) (Settings, error) {
	return s.repo.LatestSettings(ctx)
}

// UpdateSettings appends a settings revision and its history row in one
// transaction. changedBy may be empty.
func (s *Service) UpdateSettings(ctx context.Context, in SettingsInput, changedBy string) (Settings, error) {
	if in.Frequency == "" {
		in.Frequency = FrequencyMonthly
	}
	switch {
	case math.IsNaN(in.Rate) || in.Rate <= 0:
		return Settings{}, invalid("Invalid rate")
	case !validFrequency(in.Frequency):
		return Settings{}, invalid("Invalid frequency")
	case !validDate(in.StartDate):
		return Settings{}, invalid("Invalid startDate")
	}

	now := s.clock.Now()
	next := Settings{
		ID:        s.ids(),
		Rate:      in.Rate,
		Frequency: in.Frequency,
		QRKey:     in.QRKey,
		BGKey:     in.BGKey,
		StartDate: in.StartDate,
		UpdatedAt: now,
	}
	hist := HistoryEntry{
		ID:           s.ids(),
		NewRate:      next.Rate,
		NewFrequency: next.Frequency,
		NewQRKey:     next.QRKey,
		NewBGKey:     next.BGKey,
		NewStartDate: next.StartDate,
		ChangedAt:    now,
	}
	if by := strings.TrimSpace(changedBy); by != "" {
		hist.ChangedBy = &by
	}

	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		prev, err := tx.LatestSettings(ctx)
		switch {
		case err == nil:
			rate, freq, start := prev.Rate, prev.Frequency, prev.StartDate
			hist.PrevRate, hist.PrevFrequency = &rate, &freq
			hist.PrevQRKey, hist.PrevBGKey = prev.QRKey, prev.BGKey
			if start != "" {
				hist.PrevStartDate = &start
			}
		case !errors.Is(err, shared.ErrNotFound):
			return err
		}
		if err := tx.InsertSettings(ctx, next); err != nil {
			return err
		}
		return tx.InsertHistory(ctx, hist)
	})
	if err != nil {
		return Settings{}, err
	}
	return next, nil
}

// History lists settings changes newest first.
func (s *Service) History(ctx context.Context) ([]HistoryEntry, error) {
	return s.repo.ListHistory(ctx)
}

// ListPayments lists payments.
func (s *Service) ListPayments(ctx context.Context, f PaymentFilter) ([]Payment, error) {
	return s.repo.ListPayments(ctx, f)
}

// PaymentInput is a resident's payment submission.
type PaymentInput struct {
	HouseID     string
	Amount      float64
	ReceiptKey  string
	PaymentDate string
}

// SubmitPayment records a pending payment. An empty date means today.
func (s *Service) SubmitPayment(ctx context.Context, in PaymentInput) (Payment, error) {
	in.HouseID = strings.TrimSpace(in.HouseID)
	in.ReceiptKey = strings.TrimSpace(in.ReceiptKey)
	switch {
	case in.HouseID == "":
		return Payment{}, invalid("houseId required")
	case math.IsNaN(in.Amount) || in.Amount <= 0:
		return Payment{}, invalid("invalid amount")
	case in.ReceiptKey == "":
		return Payment{}, invalid("receiptKey required")
	}
	now := s.clock.Now()
	if in.PaymentDate == "" {
		in.PaymentDate = now.Format(dateLayout)
	}
	p := Payment{
		ID:          s.ids(),
		HouseID:     in.HouseID,
		Amount:      in.Amount,
		ReceiptKey:  in.ReceiptKey,
		PaymentDate: in.PaymentDate,
		Status:      StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.InsertPayment(ctx, p); err != nil {
		return Payment{}, err
	}
	return p, nil
}

// ReviewPayment moves a payment to status.
func (s *Service) ReviewPayment(ctx context.Context, id, status string) error {
	if strings.TrimSpace(id) == "" || !validStatus(status) {
		return invalid("invalid payload")
	}
	return s.repo.ReviewPayment(ctx, id, status, s.clock.Now())
}
