package models

import "time"

// PixelStatus is the lifecycle state of a tracking pixel.
type PixelStatus string

const (
	PixelActive   PixelStatus = "active"
	PixelPaused   PixelStatus = "paused"
	PixelDisabled PixelStatus = "disabled"
)

// Valid reports whether s is a known pixel status.
func (s PixelStatus) Valid() bool {
	switch s {
	case PixelActive, PixelPaused, PixelDisabled:
		return true
	default:
		return false
	}
}

// Pixel is a tracked site owned by an account.
type Pixel struct {
	ID        string      `json:"id"`
	AccountID int         `json:"accountId"`
	Name      string      `json:"name"`
	Domain    string      `json:"domain"`
	Status    PixelStatus `json:"status"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

type CreatePixelRequest struct {
	Name   string      `json:"name" binding:"required"`
	Domain string      `json:"domain" binding:"required"`
	Status PixelStatus `json:"status"`
}

// UpdatePixelRequest changes only the fields that are present.
type UpdatePixelRequest struct {
	Name   *string      `json:"name" binding:"omitempty,min=1"`
	Domain *string      `json:"domain" binding:"omitempty,min=1"`
	Status *PixelStatus `json:"status"`
}
