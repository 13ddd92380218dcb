package models

import "time"

// SOSStatus is the two-state alert lifecycle. An alert is created New and
// transitions exactly once to Acknowledged; it is never deleted.
type SOSStatus string

const (
	SOSStatusNew          SOSStatus = "NEW"
	SOSStatusAcknowledged SOSStatus = "ACKNOWLEDGED"
)

// SOSAlert is an emergency report raised by a student or guest. Location is
// free text, not a catalog reference: callers describe where they are.
type SOSAlert struct {
	ID             string           `db:"id" json:"id"`
	Reporter       Reporter         `json:"reporter"`
	Category       IncidentCategory `db:"category" json:"category"`
	Description    string           `db:"description" json:"description"`
	Location       string           `db:"location" json:"location"`
	ContactInfo    string           `db:"contact_info" json:"contact_info"`
	ImageURL       string           `db:"image_url" json:"image_url,omitempty"`
	Advisory       string           `db:"advisory" json:"advisory,omitempty"`
	Status         SOSStatus        `db:"status" json:"status"`
	AcknowledgedBy string           `db:"acknowledged_by" json:"acknowledged_by,omitempty"`
	CreatedAt      time.Time        `db:"created_at" json:"created_at"`
}

// SOSAlertFilter narrows alert listings.
type SOSAlertFilter struct {
	Status         *SOSStatus
	ReporterUserID string
}
