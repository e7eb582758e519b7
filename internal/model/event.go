package model

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventCustomerCreated EventType = "customer.created"
	EventCustomerUpdated EventType = "customer.updated"
	EventCustomerDeleted EventType = "customer.deleted"
)

// CustomerEvent is published after a customer write commits.
type CustomerEvent struct {
	ID               uuid.UUID `json:"id"`
	Type             EventType `json:"type"`
	CustomerID       int64     `json:"customerId"`
	NationalID       string    `json:"nationalId"`
	Email            string    `json:"email"`
	CustomerTypeCode string    `json:"typeCode"`
	OccurredAt       time.Time `json:"occurredAt"`
}

func NewCustomerEvent(t EventType, c *Customer, at time.Time) CustomerEvent {
	return CustomerEvent{
		ID:               uuid.New(),
		Type:             t,
		CustomerID:       c.ID,
		NationalID:       c.NationalID,
		Email:            c.Email,
		CustomerTypeCode: c.CustomerTypeCode,
		OccurredAt:       at.UTC(),
	}
}
