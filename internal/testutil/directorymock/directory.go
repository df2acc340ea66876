package directorymock

import (
	"context"

	"intranet-approval/internal/domain/directory"
)

var _ directory.Directory = (*Dir)(nil)

// Dir resolves from a fixed map. ResolveFn, when set, wins.
type Dir struct {
	Actors    map[string]directory.Actor
	ResolveFn func(ctx context.Context, id string) (directory.Actor, error)
}

func New(actors ...directory.Actor) *Dir {
	d := &Dir{Actors: make(map[string]directory.Actor, len(actors))}
	for _, a := range actors {
		d.Actors[a.ID] = a
	}
	return d
}

func (d *Dir) Resolve(ctx context.Context, id string) (directory.Actor, error) {
	if d.ResolveFn != nil {
		return d.ResolveFn(ctx, id)
	}
	a, ok := d.Actors[id]
	if !ok {
		return directory.Actor{}, directory.ErrNotFound
	}
	return a, nil
}

// Member and Admin build actors for tests.
func Member(id string) directory.Actor {
	return directory.Actor{ID: id, Name: id, Role: directory.RoleMember}
}

func Admin(id string) directory.Actor {
	return directory.Actor{ID: id, Name: id, Role: directory.RoleAdmin}
}
