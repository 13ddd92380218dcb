package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/sstb-school/student-affairs-api/internal/models"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		role TEXT NOT NULL,
		class TEXT NOT NULL DEFAULT '',
		avatar_url TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS locations (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS behavior_rules (
		id TEXT PRIMARY KEY,
		category TEXT NOT NULL,
		behavior TEXT NOT NULL,
		points INT NOT NULL
	)`,
	// History tables carry no foreign keys: records outlive deleted users
	// and resolution degrades to "unknown" instead of erroring.
	`CREATE TABLE IF NOT EXISTS point_deductions (
		id TEXT PRIMARY KEY,
		student_id TEXT NOT NULL,
		teacher_id TEXT NOT NULL,
		rule_id TEXT NOT NULL,
		location_id TEXT NOT NULL,
		notes TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS sos_alerts (
		id TEXT PRIMARY KEY,
		reporter_user_id TEXT NOT NULL DEFAULT '',
		reporter_name TEXT NOT NULL,
		reporter_class TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		location TEXT NOT NULL,
		contact_info TEXT NOT NULL,
		image_url TEXT NOT NULL DEFAULT '',
		advisory TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		acknowledged_by TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS lost_found_items (
		id TEXT PRIMARY KEY,
		reporter_user_id TEXT NOT NULL DEFAULT '',
		reporter_name TEXT NOT NULL,
		name TEXT NOT NULL,
		category TEXT NOT NULL,
		location_id TEXT NOT NULL,
		description TEXT NOT NULL,
		image_url TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS app_settings (
		id INT PRIMARY KEY DEFAULT 1 CHECK (id = 1),
		logo_url TEXT NOT NULL DEFAULT '',
		logo_size INT NOT NULL DEFAULT 32,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_point_deductions_student ON point_deductions (student_id, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_sos_alerts_status ON sos_alerts (status, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_lost_found_status ON lost_found_items (status, created_at DESC)`,
}

// seedUsers is the fixed bootstrap directory used when no prior state exists.
var seedUsers = []models.User{
	{ID: "t01", Name: "ว่าที่ ร.ต.ธีรเดช วีรทองประเสริฐ", Email: "theeradej.v@school.ac.th", Role: models.RoleAdmin},
	{ID: "t02", Name: "ครูสมศรี ศรีสุข", Email: "somsri.s@school.ac.th", Role: models.RoleTeacher},
	{ID: "a01", Name: "ผอ.วิชัย มีสุข", Email: "vichai.m@school.ac.th", Role: models.RoleAdmin},
	{ID: "s01", Name: "เด็กชายมานะ รักเรียน", Email: "mana.r@student.school.ac.th", Role: models.RoleStudent, Class: "ม.1/1"},
	{ID: "s02", Name: "เด็กหญิงปิติ ยินดี", Email: "piti.y@student.school.ac.th", Role: models.RoleStudent, Class: "ม.1/2"},
	{ID: "s03", Name: "เด็กชายธีระ กล้าหาญ", Email: "teera.g@student.school.ac.th", Role: models.RoleStudent, Class: "ม.2/1"},
}

var seedLocations = []models.Location{
	{ID: "loc01", Name: "อาคาร 1 - ชั้น 1"},
	{ID: "loc02", Name: "โรงอาหาร 2"},
	{ID: "loc03", Name: "สนามฟุตบอล"},
	{ID: "loc04", Name: "ห้องสมุด"},
	{ID: "loc05", Name: "ลานจอดรถครู"},
	{ID: "loc06", Name: "สหกรณ์"},
}

var seedRules = []models.BehaviorRule{
	{ID: "rule01", Category: "การแต่งกาย", Behavior: "ไม่ปักชื่อ", Points: -5},
	{ID: "rule02", Category: "การแต่งกาย", Behavior: "สวมรองเท้าผิดระเบียบ", Points: -5},
	{ID: "rule03", Category: "การตรงต่อเวลา", Behavior: "มาสายหลัง 8.00 น.", Points: -10},
	{ID: "rule04", Category: "พฤติกรรมการอยู่ร่วมกัน", Behavior: "ทิ้งขยะไม่เป็นที่", Points: -3},
	{ID: "rule05", Category: "พฤติกรรมการอยู่ร่วมกัน", Behavior: "ทะเลาะวิวาท", Points: -20},
	{ID: "rule06", Category: "ความรับผิดชอบ", Behavior: "ไม่ส่งการบ้าน", Points: -5},
}

// Bootstrap creates the schema and seeds reference data plus the initial
// directory when the database is empty.
func Bootstrap(ctx context.Context, db *sqlx.DB, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}

	for _, loc := range seedLocations {
		if _, err := db.ExecContext(ctx,
			`INSERT INTO locations (id, name) VALUES ($1, $2) ON CONFLICT (id) DO NOTHING`,
			loc.ID, loc.Name); err != nil {
			return fmt.Errorf("seed location %s: %w", loc.ID, err)
		}
	}

	for _, rule := range seedRules {
		if _, err := db.ExecContext(ctx,
			`INSERT INTO behavior_rules (id, category, behavior, points) VALUES ($1, $2, $3, $4) ON CONFLICT (id) DO NOTHING`,
			rule.ID, rule.Category, rule.Behavior, rule.Points); err != nil {
			return fmt.Errorf("seed rule %s: %w", rule.ID, err)
		}
	}

	var userCount int
	if err := db.GetContext(ctx, &userCount, `SELECT COUNT(*) FROM users`); err != nil {
		return fmt.Errorf("count users: %w", err)
	}
	if userCount == 0 {
		now := time.Now().UTC()
		for _, u := range seedUsers {
			avatar := fmt.Sprintf("https://picsum.photos/seed/%s/100", u.ID)
			if _, err := db.ExecContext(ctx,
				`INSERT INTO users (id, name, email, role, class, avatar_url, created_at, updated_at)
				 VALUES ($1, $2, $3, $4, $5, $6, $7, $7)`,
				u.ID, u.Name, u.Email, string(u.Role), u.Class, avatar, now); err != nil {
				return fmt.Errorf("seed user %s: %w", u.ID, err)
			}
			// Seed order is directory order; keep timestamps strictly increasing.
			now = now.Add(time.Millisecond)
		}
		logger.Sugar().Infow("seeded bootstrap directory", "users", len(seedUsers))
	}

	if _, err := db.ExecContext(ctx,
		`INSERT INTO app_settings (id, logo_url, logo_size, updated_at) VALUES (1, '', $1, $2) ON CONFLICT (id) DO NOTHING`,
		models.DefaultLogoSize, time.Now().UTC()); err != nil {
		return fmt.Errorf("seed settings: %w", err)
	}

	return nil
}
