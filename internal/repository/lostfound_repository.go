package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sstb-school/student-affairs-api/internal/models"
)

const lostFoundColumns = "id, reporter_user_id, reporter_name, name, category, location_id, description, image_url, status, created_at"

type lostFoundRow struct {
	ID             string    `db:"id"`
	ReporterUserID string    `db:"reporter_user_id"`
	ReporterName   string    `db:"reporter_name"`
	Name           string    `db:"name"`
	Category       string    `db:"category"`
	LocationID     string    `db:"location_id"`
	Description    string    `db:"description"`
	ImageURL       string    `db:"image_url"`
	Status         string    `db:"status"`
	CreatedAt      time.Time `db:"created_at"`
}

func (row lostFoundRow) toModel() models.LostFoundItem {
	return models.LostFoundItem{
		ID: row.ID,
		Reporter: models.Reporter{
			UserID: row.ReporterUserID,
			Name:   row.ReporterName,
		},
		Name:        row.Name,
		Category:    row.Category,
		LocationID:  row.LocationID,
		Description: row.Description,
		ImageURL:    row.ImageURL,
		Status:      models.ItemStatus(row.Status),
		CreatedAt:   row.CreatedAt,
	}
}

// LostFoundRepository manages persistence for lost & found items.
type LostFoundRepository struct {
	db *sqlx.DB
}

// NewLostFoundRepository constructs a new repository.
func NewLostFoundRepository(db *sqlx.DB) *LostFoundRepository {
	return &LostFoundRepository{db: db}
}

// Create inserts a new item.
func (r *LostFoundRepository) Create(ctx context.Context, item *models.LostFoundItem) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO lost_found_items (id, reporter_user_id, reporter_name, name, category, location_id, description, image_url, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		item.ID, item.Reporter.UserID, item.Reporter.Name, item.Name, item.Category,
		item.LocationID, item.Description, item.ImageURL, string(item.Status), item.CreatedAt)
	if err != nil {
		return fmt.Errorf("create lost-found item: %w", err)
	}
	return nil
}

// FindByID loads a single item.
func (r *LostFoundRepository) FindByID(ctx context.Context, id string) (*models.LostFoundItem, error) {
	query := fmt.Sprintf("SELECT %s FROM lost_found_items WHERE id = $1 LIMIT 1", lostFoundColumns)
	var row lostFoundRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		return nil, err
	}
	item := row.toModel()
	return &item, nil
}

// List returns items newest-first, optionally filtered by status.
func (r *LostFoundRepository) List(ctx context.Context, filter models.LostFoundFilter) ([]models.LostFoundItem, error) {
	where := []string{"1=1"}
	args := []interface{}{}
	if filter.Status != nil {
		where = append(where, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, string(*filter.Status))
	}
	query := fmt.Sprintf("SELECT %s FROM lost_found_items WHERE %s ORDER BY created_at DESC", lostFoundColumns, strings.Join(where, " AND "))
	var rows []lostFoundRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list lost-found items: %w", err)
	}
	items := make([]models.LostFoundItem, len(rows))
	for i, row := range rows {
		items[i] = row.toModel()
	}
	return items, nil
}

// MarkClaimed transitions a Found item to Claimed. The status guard keeps
// the transition single-shot.
func (r *LostFoundRepository) MarkClaimed(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE lost_found_items SET status = $2 WHERE id = $1 AND status = $3`,
		id, string(models.ItemStatusClaimed), string(models.ItemStatusFound))
	if err != nil {
		return false, fmt.Errorf("claim lost-found item: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("claim lost-found item: %w", err)
	}
	return affected == 1, nil
}
