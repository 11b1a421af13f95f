package models

import "time"

// Lead is a contact captured against a visitor of a pixel.
type Lead struct {
	ID        string    `json:"id"`
	VisitorID string    `json:"visitorId"`
	PixelID   string    `json:"pixelId"`
	Email     *string   `json:"email,omitempty"`
	FirstName *string   `json:"firstName,omitempty"`
	LastName  *string   `json:"lastName,omitempty"`
	Phone     *string   `json:"phone,omitempty"`
	Company   *string   `json:"company,omitempty"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"createdAt"`
}

type CreateLeadRequest struct {
	PixelID   string  `json:"pixelId" binding:"required"`
	VisitorID string  `json:"visitorId" binding:"required"`
	Email     *string `json:"email,omitempty" binding:"omitempty,email"`
	FirstName *string `json:"firstName,omitempty"`
	LastName  *string `json:"lastName,omitempty"`
	Phone     *string `json:"phone,omitempty"`
	Company   *string `json:"company,omitempty"`
	Source    string  `json:"source"`
}
