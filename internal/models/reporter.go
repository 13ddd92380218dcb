package models

import "encoding/json"

// ReporterKind tags the two reporter variants: a directory user or an
// anonymous guest identified only by free text.
type ReporterKind string

const (
	ReporterRegistered ReporterKind = "registered"
	ReporterAnonymous  ReporterKind = "anonymous"
)

// Reporter identifies who filed a record. Registered reporters carry the
// directory user id; anonymous reporters exist precisely because no
// directory entry exists, so their name (and class, for alerts) is captured
// directly.
type Reporter struct {
	UserID string `db:"reporter_user_id"`
	Name   string `db:"reporter_name"`
	Class  string `db:"reporter_class"`
}

// RegisteredReporter builds a reporter from a directory user.
func RegisteredReporter(u User) Reporter {
	return Reporter{UserID: u.ID, Name: u.Name, Class: u.Class}
}

// AnonymousReporter builds a guest reporter from free-text identity.
func AnonymousReporter(name, class string) Reporter {
	return Reporter{Name: name, Class: class}
}

// Kind derives the reporter variant.
func (r Reporter) Kind() ReporterKind {
	if r.UserID != "" {
		return ReporterRegistered
	}
	return ReporterAnonymous
}

// Registered reports whether the reporter has a directory identity.
func (r Reporter) Registered() bool {
	return r.UserID != ""
}

// MarshalJSON emits the tagged form so consumers handle both variants
// explicitly.
func (r Reporter) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind   ReporterKind `json:"kind"`
		UserID string       `json:"user_id,omitempty"`
		Name   string       `json:"name"`
		Class  string       `json:"class,omitempty"`
	}{
		Kind:   r.Kind(),
		UserID: r.UserID,
		Name:   r.Name,
		Class:  r.Class,
	})
}
