package models

import "time"

// TrackRequest is the beacon payload posted by the embedded pixel script.
type TrackRequest struct {
	PixelID   string  `json:"pixelId" binding:"required"`
	SessionID string  `json:"sessionId"`
	URL       string  `json:"url" binding:"required"`
	Title     *string `json:"title,omitempty"`
	Referrer  *string `json:"referrer,omitempty"`
}

// PageView is a single immutable page-view event recorded against a visitor.
type PageView struct {
	ID        string    `json:"id"`
	VisitorID string    `json:"visitorId"`
	PixelID   string    `json:"pixelId"`
	URL       string    `json:"url"`
	Title     *string   `json:"title,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
