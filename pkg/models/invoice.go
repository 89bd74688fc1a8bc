package models

import "time"

type InvoiceStatus string

const (
	InvoiceStatusCreated   InvoiceStatus = "CREATED"
	InvoiceStatusSent      InvoiceStatus = "SENT"
	InvoiceStatusPaid      InvoiceStatus = "PAID"
	InvoiceStatusCancelled InvoiceStatus = "CANCELLED"
)

func (s InvoiceStatus) Valid() bool {
	switch s {
	case InvoiceStatusCreated, InvoiceStatusSent, InvoiceStatusPaid, InvoiceStatusCancelled:
		return true
	default:
		return false
	}
}

// Invoice amounts are kept as canonical decimal strings with two fraction digits.
type Invoice struct {
	ID        string        `json:"id"`
	Amount    string        `json:"amount"`
	Status    InvoiceStatus `json:"status"`
	Level     Level         `json:"level"`
	UserID    string        `json:"user_id,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}
