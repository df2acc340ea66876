package directory

import (
	"context"
	"fmt"
	"os"
	"sync"

	domain "intranet-approval/internal/domain/directory"

	"gopkg.in/yaml.v3"
)

type directoryFile struct {
	Actors []domain.Actor `yaml:"actors"`
}

// StaticDirectory resolves actors from a YAML file:
//
//	actors:
//	  - id: E001
//	    name: 김사장
//	    position: 사장
//	    level: 1
//	    role: admin
type StaticDirectory struct {
	path   string
	mu     sync.RWMutex
	actors map[string]domain.Actor
}

func NewStaticDirectory(path string) (*StaticDirectory, error) {
	d := &StaticDirectory{path: path}
	if err := d.Sync(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *StaticDirectory) Resolve(_ context.Context, id string) (domain.Actor, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	a, ok := d.actors[id]
	if !ok {
		return domain.Actor{}, domain.ErrNotFound
	}
	return a, nil
}

// Sync reloads the file. On error the previous contents stay in place.
func (d *StaticDirectory) Sync() error {
	data, err := os.ReadFile(d.path)
	if err != nil {
		return fmt.Errorf("directory: reading %s: %w", d.path, err)
	}
	actors, err := parseDirectory(data)
	if err != nil {
		return fmt.Errorf("directory: parsing %s: %w", d.path, err)
	}

	d.mu.Lock()
	d.actors = actors
	d.mu.Unlock()
	return nil
}

func parseDirectory(data []byte) (map[string]domain.Actor, error) {
	var f directoryFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	out := make(map[string]domain.Actor, len(f.Actors))
	for i, a := range f.Actors {
		if a.ID == "" {
			return nil, fmt.Errorf("actor %d has no id", i)
		}
		if _, dup := out[a.ID]; dup {
			return nil, fmt.Errorf("actor %q listed twice", a.ID)
		}
		switch a.Role {
		case domain.RoleAdmin, domain.RoleMember:
		case "":
			a.Role = domain.RoleMember
		default:
			return nil, fmt.Errorf("actor %q has unknown role %q", a.ID, a.Role)
		}
		out[a.ID] = a
	}
	return out, nil
}
