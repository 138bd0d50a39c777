package config

import (
	"os"
	"sort"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	apperrors "github.com/briefstack/maildigest/internal/errors"
)

// Role is consumer-side configuration: which items a digest reader cares
// about and what the generated angles should optimize for. The pipeline
// consumes roles but never writes them.
type Role struct {
	Name              string   `yaml:"-"`
	Enabled           bool     `yaml:"enabled"`
	Objectives        []string `yaml:"objectives"`
	FocusCategories   []string `yaml:"focus_categories"`
	FocusTopics       []string `yaml:"focus_topics"`
	AdditionalSources []string `yaml:"additional_sources"`
}

type rolesFile struct {
	Roles map[string]Role `yaml:"roles"`
}

func LoadRoles(path string) (map[string]Role, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read roles file %s", path)
	}

	var file rolesFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, errors.Wrapf(err, "failed to parse roles file %s", path)
	}

	roles := make(map[string]Role, len(file.Roles))
	for name, role := range file.Roles {
		role.Name = name
		roles[name] = role
	}
	return roles, nil
}

func GetRole(roles map[string]Role, name string) (*Role, error) {
	role, ok := roles[name]
	if !ok {
		return nil, errors.Wrap(apperrors.ErrRoleNotFound, name)
	}
	return &role, nil
}

// EnabledRoles returns enabled roles sorted by name so batch runs process
// them in a stable order.
func EnabledRoles(roles map[string]Role) []Role {
	enabled := make([]Role, 0, len(roles))
	for _, role := range roles {
		if role.Enabled {
			enabled = append(enabled, role)
		}
	}
	sort.Slice(enabled, func(i, j int) bool { return enabled[i].Name < enabled[j].Name })
	return enabled
}
