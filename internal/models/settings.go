package models

import "time"

// AppSettings holds the Admin-editable branding values shown on every page.
type AppSettings struct {
	LogoURL   string    `db:"logo_url" json:"logo_url"`
	LogoSize  int       `db:"logo_size" json:"logo_size"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// DefaultLogoSize is the header logo height in pixels.
const DefaultLogoSize = 32
