// Package directory resolves actor ids to identities with a role claim. The
// database, a YAML file and a Redis cache in front of either are provided.
package directory

import (
	"context"
	"errors"
	"strconv"

	domain "intranet-approval/internal/domain/directory"

	"gorm.io/gorm"
)

// DefaultAdminPosition is the position that carries the administrator role
// unless other position names are configured.
const DefaultAdminPosition = "사장"

type userRow struct {
	ID       uint64 `gorm:"column:id"`
	NameKR   string `gorm:"column:name_kr"`
	Position string `gorm:"column:position"`
	Level    int    `gorm:"column:level"`
}

// GormDirectory reads the shared intranet users and positions tables. Actor
// ids are the decimal users.id, the same value the intranet puts in a token's
// sub claim.
type GormDirectory struct {
	db             *gorm.DB
	adminPositions map[string]struct{}
}

func NewGormDirectory(db *gorm.DB, adminPositions ...string) *GormDirectory {
	if len(adminPositions) == 0 {
		adminPositions = []string{DefaultAdminPosition}
	}
	set := make(map[string]struct{}, len(adminPositions))
	for _, p := range adminPositions {
		set[p] = struct{}{}
	}
	return &GormDirectory{db: db, adminPositions: set}
}

func (d *GormDirectory) Resolve(ctx context.Context, id string) (domain.Actor, error) {
	uid, err := strconv.ParseUint(id, 10, 64)
	if err != nil || uid == 0 {
		return domain.Actor{}, domain.ErrNotFound
	}

	var row userRow
	res := d.db.WithContext(ctx).
		Table("users").
		Select("users.id, users.name_kr, positions.name AS position, positions.level").
		Joins("JOIN positions ON positions.id = users.position_id").
		Where("users.id = ? AND users.is_active = ?", uid, true).
		Take(&row)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return domain.Actor{}, domain.ErrNotFound
	}
	if res.Error != nil {
		return domain.Actor{}, res.Error
	}

	role := domain.RoleMember
	if _, ok := d.adminPositions[row.Position]; ok {
		role = domain.RoleAdmin
	}
	return domain.Actor{
		ID:       strconv.FormatUint(row.ID, 10),
		Name:     row.NameKR,
		Position: row.Position,
		Level:    row.Level,
		Role:     role,
	}, nil
}
