package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sstb-school/student-affairs-api/internal/models"
)

const sosColumns = "id, reporter_user_id, reporter_name, reporter_class, category, description, location, contact_info, image_url, advisory, status, acknowledged_by, created_at"

type sosRow struct {
	ID             string    `db:"id"`
	ReporterUserID string    `db:"reporter_user_id"`
	ReporterName   string    `db:"reporter_name"`
	ReporterClass  string    `db:"reporter_class"`
	Category       string    `db:"category"`
	Description    string    `db:"description"`
	Location       string    `db:"location"`
	ContactInfo    string    `db:"contact_info"`
	ImageURL       string    `db:"image_url"`
	Advisory       string    `db:"advisory"`
	Status         string    `db:"status"`
	AcknowledgedBy string    `db:"acknowledged_by"`
	CreatedAt      time.Time `db:"created_at"`
}

func (row sosRow) toModel() models.SOSAlert {
	return models.SOSAlert{
		ID: row.ID,
		Reporter: models.Reporter{
			UserID: row.ReporterUserID,
			Name:   row.ReporterName,
			Class:  row.ReporterClass,
		},
		Category:       models.IncidentCategory(row.Category),
		Description:    row.Description,
		Location:       row.Location,
		ContactInfo:    row.ContactInfo,
		ImageURL:       row.ImageURL,
		Advisory:       row.Advisory,
		Status:         models.SOSStatus(row.Status),
		AcknowledgedBy: row.AcknowledgedBy,
		CreatedAt:      row.CreatedAt,
	}
}

// SOSRepository manages persistence for SOS alerts.
type SOSRepository struct {
	db *sqlx.DB
}

// NewSOSRepository constructs a new repository.
func NewSOSRepository(db *sqlx.DB) *SOSRepository {
	return &SOSRepository{db: db}
}

// Create inserts a new alert.
func (r *SOSRepository) Create(ctx context.Context, alert *models.SOSAlert) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sos_alerts (id, reporter_user_id, reporter_name, reporter_class, category, description, location, contact_info, image_url, advisory, status, acknowledged_by, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		alert.ID, alert.Reporter.UserID, alert.Reporter.Name, alert.Reporter.Class,
		string(alert.Category), alert.Description, alert.Location, alert.ContactInfo,
		alert.ImageURL, alert.Advisory, string(alert.Status), alert.AcknowledgedBy, alert.CreatedAt)
	if err != nil {
		return fmt.Errorf("create sos alert: %w", err)
	}
	return nil
}

// FindByID loads a single alert.
func (r *SOSRepository) FindByID(ctx context.Context, id string) (*models.SOSAlert, error) {
	query := fmt.Sprintf("SELECT %s FROM sos_alerts WHERE id = $1 LIMIT 1", sosColumns)
	var row sosRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		return nil, err
	}
	alert := row.toModel()
	return &alert, nil
}

// List returns alerts newest-first, optionally filtered.
func (r *SOSRepository) List(ctx context.Context, filter models.SOSAlertFilter) ([]models.SOSAlert, error) {
	where := []string{"1=1"}
	args := []interface{}{}
	if filter.Status != nil {
		where = append(where, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, string(*filter.Status))
	}
	if filter.ReporterUserID != "" {
		where = append(where, fmt.Sprintf("reporter_user_id = $%d", len(args)+1))
		args = append(args, filter.ReporterUserID)
	}
	query := fmt.Sprintf("SELECT %s FROM sos_alerts WHERE %s ORDER BY created_at DESC", sosColumns, strings.Join(where, " AND "))
	var rows []sosRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list sos alerts: %w", err)
	}
	alerts := make([]models.SOSAlert, len(rows))
	for i, row := range rows {
		alerts[i] = row.toModel()
	}
	return alerts, nil
}

// MarkAcknowledged transitions an alert out of the New state, recording who
// acknowledged it. The status guard keeps the transition single-shot.
func (r *SOSRepository) MarkAcknowledged(ctx context.Context, id, staffID string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE sos_alerts SET status = $3, acknowledged_by = $2 WHERE id = $1 AND status = $4`,
		id, staffID, string(models.SOSStatusAcknowledged), string(models.SOSStatusNew))
	if err != nil {
		return false, fmt.Errorf("acknowledge sos alert: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("acknowledge sos alert: %w", err)
	}
	return affected == 1, nil
}

// SetAdvisory attaches best-effort guidance text to an alert.
func (r *SOSRepository) SetAdvisory(ctx context.Context, id, advisory string) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE sos_alerts SET advisory = $2 WHERE id = $1`, id, advisory); err != nil {
		return fmt.Errorf("set sos advisory: %w", err)
	}
	return nil
}
