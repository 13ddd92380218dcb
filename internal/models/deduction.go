package models

import "time"

// UnknownReference marks a resolved display value whose referenced record no
// longer exists. Deductions outlive deleted users and must degrade
// gracefully instead of erroring.
const UnknownReference = "unknown"

// PointDeduction is one append-only ledger entry: immutable once created.
type PointDeduction struct {
	ID         string    `db:"id" json:"id"`
	StudentID  string    `db:"student_id" json:"student_id"`
	TeacherID  string    `db:"teacher_id" json:"teacher_id"`
	RuleID     string    `db:"rule_id" json:"rule_id"`
	LocationID string    `db:"location_id" json:"location_id"`
	Notes      string    `db:"notes" json:"notes"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// DeductionDetail is a ledger entry resolved against the catalogs and
// directory. Resolution is fallible: dangling references come back as
// UnknownReference, never as an error.
type DeductionDetail struct {
	PointDeduction
	RuleCategory string `json:"rule_category"`
	RuleBehavior string `json:"rule_behavior"`
	Points       int    `json:"points"`
	LocationName string `json:"location_name"`
	TeacherName  string `json:"teacher_name"`
}

// StudentPointSummary aggregates a student's ledger.
type StudentPointSummary struct {
	StudentID   string `json:"student_id"`
	Entries     int    `json:"entries"`
	TotalPoints int    `json:"total_points"`
}
