package models

import "time"

// Device classes produced by user-agent classification.
const (
	DeviceDesktop = "desktop"
	DeviceMobile  = "mobile"
	DeviceTablet  = "tablet"
)

// Unknown is stored for enrichment attributes that could not be resolved.
const Unknown = "Unknown"

// Visitor is the resolved identity for a (pixel, session) pair. A visitor
// without a session id is anonymous and is never matched again.
// Enrichment fields are nil when the lookup did not produce them.
type Visitor struct {
	ID           string    `json:"id"`
	PixelID      string    `json:"pixelId"`
	SessionID    *string   `json:"sessionId,omitempty"`
	IPAddress    *string   `json:"ipAddress,omitempty"`
	UserAgent    *string   `json:"userAgent,omitempty"`
	Country      *string   `json:"country,omitempty"`
	Region       *string   `json:"region,omitempty"`
	City         *string   `json:"city,omitempty"`
	Latitude     *float64  `json:"latitude,omitempty"`
	Longitude    *float64  `json:"longitude,omitempty"`
	Device       *string   `json:"device,omitempty"`
	Browser      *string   `json:"browser,omitempty"`
	OS           *string   `json:"os,omitempty"`
	Referrer     *string   `json:"referrer,omitempty"`
	LandingPage  *string   `json:"landingPage,omitempty"`
	IsNewVisitor bool      `json:"isNewVisitor"`
	VisitCount   int       `json:"visitCount"`
	CreatedAt    time.Time `json:"createdAt"`
}

// GeoLocation is the result of an IP geolocation lookup.
type GeoLocation struct {
	Country   string
	Region    string
	City      string
	// Coordinates are nil when the lookup did not report them.
	Latitude  *float64
	Longitude *float64
}

// DeviceInfo is the result of user-agent classification.
type DeviceInfo struct {
	Device  string
	Browser string
	OS      string
}

// Enrichment holds whatever derived attributes could be resolved for a beacon.
type Enrichment struct {
	Geo    *GeoLocation
	Device DeviceInfo
}
