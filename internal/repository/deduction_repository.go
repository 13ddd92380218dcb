package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sstb-school/student-affairs-api/internal/models"
)

const deductionColumns = "id, student_id, teacher_id, rule_id, location_id, notes, created_at"

// DeductionRepository manages the append-only point deduction ledger. There
// are no update or delete operations: entries are immutable history.
type DeductionRepository struct {
	db *sqlx.DB
}

// NewDeductionRepository constructs a new repository.
func NewDeductionRepository(db *sqlx.DB) *DeductionRepository {
	return &DeductionRepository{db: db}
}

// Create appends a ledger entry.
func (r *DeductionRepository) Create(ctx context.Context, deduction *models.PointDeduction) error {
	if deduction.CreatedAt.IsZero() {
		deduction.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO point_deductions (id, student_id, teacher_id, rule_id, location_id, notes, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		deduction.ID, deduction.StudentID, deduction.TeacherID, deduction.RuleID,
		deduction.LocationID, deduction.Notes, deduction.CreatedAt)
	if err != nil {
		return fmt.Errorf("create point deduction: %w", err)
	}
	return nil
}

// ListByStudent returns a student's deductions newest-first.
func (r *DeductionRepository) ListByStudent(ctx context.Context, studentID string) ([]models.PointDeduction, error) {
	query := fmt.Sprintf("SELECT %s FROM point_deductions WHERE student_id = $1 ORDER BY created_at DESC", deductionColumns)
	var deductions []models.PointDeduction
	if err := r.db.SelectContext(ctx, &deductions, query, studentID); err != nil {
		return nil, fmt.Errorf("list point deductions: %w", err)
	}
	return deductions, nil
}

// Summary aggregates a student's ledger by joining the rule catalog for
// point values. Entries whose rule no longer resolves contribute zero.
func (r *DeductionRepository) Summary(ctx context.Context, studentID string) (*models.StudentPointSummary, error) {
	query := `SELECT COUNT(d.id) AS entries, COALESCE(SUM(r.points), 0) AS total_points
		FROM point_deductions d
		LEFT JOIN behavior_rules r ON r.id = d.rule_id
		WHERE d.student_id = $1`
	row := struct {
		Entries     int `db:"entries"`
		TotalPoints int `db:"total_points"`
	}{}
	if err := r.db.GetContext(ctx, &row, query, studentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &models.StudentPointSummary{StudentID: studentID}, nil
		}
		return nil, fmt.Errorf("summarise point deductions: %w", err)
	}
	return &models.StudentPointSummary{
		StudentID:   studentID,
		Entries:     row.Entries,
		TotalPoints: row.TotalPoints,
	}, nil
}
