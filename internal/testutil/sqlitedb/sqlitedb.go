// Package sqlitedb opens in-memory SQLite databases carrying a sqlite-safe
// copy of the approval schema (no ENUM/CHAR types) plus the intranet tables
// the directory reads.
package sqlitedb

import (
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type RequestRow struct {
	ID        uint64 `gorm:"primaryKey;column:id;autoIncrement"`
	RequestID string `gorm:"size:64;uniqueIndex;column:request_id"`
	Requester string `gorm:"column:requester"`
	Category  string `gorm:"column:category"`
	Content   string `gorm:"column:content"`
	Status    string `gorm:"type:text;column:status;default:pending"`
	Version   uint64 `gorm:"column:version;default:1"`
	DecidedAt *time.Time
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (RequestRow) TableName() string { return "approval_requests" }

type LineRow struct {
	ID              uint64 `gorm:"primaryKey;column:id;autoIncrement"`
	LineID          string `gorm:"size:64;uniqueIndex;column:line_id"`
	RequestID       uint64 `gorm:"column:request_id;uniqueIndex:ux_lines_request_order,priority:1"`
	Approver        string `gorm:"column:approver"`
	Order           int    `gorm:"column:line_order;uniqueIndex:ux_lines_request_order,priority:2"`
	Status          string `gorm:"type:text;column:status;default:waiting"`
	DecisionComment *string
	DecidedAt       *time.Time
	CreatedAt       time.Time `gorm:"column:created_at"`
}

func (LineRow) TableName() string { return "approval_lines" }

type AuditRow struct {
	ID                  uint64 `gorm:"primaryKey;column:id;autoIncrement"`
	AuditID             string `gorm:"size:64;uniqueIndex;column:audit_id"`
	RequestID           uint64 `gorm:"column:request_id"`
	LineID              *uint64
	Actor               string
	Action              string
	RequestStatusBefore string    `gorm:"column:request_status_before"`
	RequestStatusAfter  string    `gorm:"column:request_status_after"`
	Comment             *string   `gorm:"column:comment"`
	CreatedAt           time.Time `gorm:"column:created_at"`
}

func (AuditRow) TableName() string { return "approval_audit" }

// intranetDDL mirrors the intranet's own departments/positions/users tables.
// The service reads them but never migrates them, so they are created here
// with their real column set rather than from Go structs.
var intranetDDL = []string{
	`CREATE TABLE departments (
		id INTEGER PRIMARY KEY,
		code VARCHAR(20) NOT NULL UNIQUE,
		name VARCHAR(100) NOT NULL,
		parent_id INTEGER REFERENCES departments(id),
		created_at DATETIME
	)`,
	`CREATE TABLE positions (
		id INTEGER PRIMARY KEY,
		name VARCHAR(100) NOT NULL,
		level INTEGER NOT NULL,
		created_at DATETIME
	)`,
	`CREATE TABLE users (
		id INTEGER PRIMARY KEY,
		employee_id VARCHAR(30) UNIQUE,
		name_kr VARCHAR(50) NOT NULL,
		name_en VARCHAR(50) NOT NULL,
		birth_date DATETIME NOT NULL,
		gender VARCHAR(6) NOT NULL,
		hire_date DATETIME NOT NULL,
		email VARCHAR(100) NOT NULL UNIQUE,
		password VARCHAR(255) NOT NULL,
		department_id INTEGER NOT NULL REFERENCES departments(id),
		position_id INTEGER NOT NULL REFERENCES positions(id),
		phone_landline VARCHAR(20),
		phone_number VARCHAR(20) NOT NULL,
		resume_file VARCHAR(255) NOT NULL,
		cover_letter_file VARCHAR(255) NOT NULL,
		is_active BOOLEAN,
		email_verified BOOLEAN,
		created_at DATETIME,
		profile_image VARCHAR(255)
	)`,
	`INSERT INTO departments (id, code, name) VALUES (1, 'HQ', '본사')`,
}

// Position inserts a row into the intranet positions table.
func Position(t *testing.T, db *gorm.DB, id uint64, name string, level int) {
	t.Helper()
	err := db.Exec(`INSERT INTO positions (id, name, level, created_at) VALUES (?, ?, ?, ?)`,
		id, name, level, time.Now().UTC()).Error
	if err != nil {
		t.Fatalf("seed position %s: %v", name, err)
	}
}

// User inserts a row into the intranet users table with placeholder personal data.
func User(t *testing.T, db *gorm.DB, id uint64, employeeID, nameKR string, positionID uint64, active bool) {
	t.Helper()
	now := time.Now().UTC()
	err := db.Exec(`INSERT INTO users (id, employee_id, name_kr, name_en, birth_date, gender, hire_date, email,
		password, department_id, position_id, phone_number, resume_file, cover_letter_file, is_active,
		email_verified, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?, ?, ?, ?, ?, ?, ?)`,
		id, employeeID, nameKR, "n/a", now, "MALE", now, employeeID+"@intranet.test",
		"x", positionID, "010-0000-0000", "resume.pdf", "cover.pdf", active, true, now).Error
	if err != nil {
		t.Fatalf("seed user %s: %v", employeeID, err)
	}
}

// Open creates a fresh in-memory database with every table migrated. The pool
// is pinned to one connection so all sessions see the same memory database.
func Open(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	// IMPORTANT: migrate the sqlite-safe models, NOT the domain models.
	if err := db.AutoMigrate(&RequestRow{}, &LineRow{}, &AuditRow{}); err != nil {
		t.Fatalf("auto-migrate: %v", err)
	}
	for _, stmt := range intranetDDL {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("intranet schema: %v", err)
		}
	}
	return db
}
