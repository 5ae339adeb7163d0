package billing

import (
	"fmt"
	"time"

	"github.com/estateguard/estate/internal/shared"
)

// Billing frequencies.
const (
	FrequencyMonthly    = "monthly"
	FrequencySemiAnnual = "semi-annual"
	FrequencyAnnual     = "annual"
)

// Payment review states.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusRejected  = "rejected"
)

const dateLayout = "2006-01-02"

// Settings is one revision of the billing configuration. The newest row wins.
type Settings struct {
	ID        string
	Rate      float64
	Frequency string
	QRKey     *string
	BGKey     *string
	StartDate string
	UpdatedAt time.Time
}

// HistoryEntry records the values before and after a settings change.
type HistoryEntry struct {
	ID            string    `json:"id"`
	PrevRate      *float64  `json:"prev_rate"`
	PrevFrequency *string   `json:"prev_frequency"`
	PrevQRKey     *string   `json:"prev_qr_key"`
	PrevBGKey     *string   `json:"prev_bg_key"`
	PrevStartDate *string   `json:"prev_start_date"`
	NewRate       float64   `json:"new_rate"`
	NewFrequency  string    `json:"new_frequency"`
	NewQRKey      *string   `json:"new_qr_key"`
	NewBGKey      *string   `json:"new_bg_key"`
	NewStartDate  string    `json:"new_start_date"`
	ChangedAt     time.Time `json:"changed_at"`
	ChangedBy     *string   `json:"changed_by"`
}

// Payment is a resident's submitted payment awaiting review.
type Payment struct {
	ID          string     `json:"id"`
	HouseID     string     `json:"house_id"`
	Amount      float64    `json:"amount"`
	ReceiptKey  string     `json:"receipt_key"`
	PaymentDate string     `json:"payment_date"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	ReviewedAt  *time.Time `json:"reviewed_at"`
}

// PaymentFilter narrows a payment listing. The date range applies only when
// both ends are set.
type PaymentFilter struct {
	HouseID string
	Status  string
	Start   string
	End     string
}

// ValidationError carries the client-facing message of a rejected input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("billing: %s", e.Message)
}

// Unwrap lets callers match shared.ErrValidation.
func (e *ValidationError) Unwrap() error {
	return shared.ErrValidation
}

func invalid(msg string) error {
	return &ValidationError{Message: msg}
}

func validFrequency(f string) bool {
	switch f {
	case FrequencyMonthly, FrequencySemiAnnual, FrequencyAnnual:
		return true
	}
	return false
}

func validStatus(s string) bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusRejected:
		return true
	}
	return false
}

func validDate(d string) bool {
	_, err := time.Parse(dateLayout, d)
	return err == nil
}
