package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/briefstack/maildigest/internal/errors"
)

const rolesYAML = `
roles:
  CTO:
    enabled: true
    objectives:
      - Track infrastructure trends
    focus_categories:
      - AI/ML
      - DevOps
    focus_topics:
      - AI SaaS
  CFO:
    enabled: false
    objectives:
      - Watch financing conditions
  Advisor:
    enabled: true
`

func writeRolesFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "roles.yaml")
	require.NoError(t, os.WriteFile(path, []byte(rolesYAML), 0o644))
	return path
}

func TestLoadRoles(t *testing.T) {
	roles, err := LoadRoles(writeRolesFile(t))
	require.NoError(t, err)
	require.Len(t, roles, 3)

	cto := roles["CTO"]
	assert.Equal(t, "CTO", cto.Name)
	assert.True(t, cto.Enabled)
	assert.Equal(t, []string{"AI/ML", "DevOps"}, cto.FocusCategories)
	assert.Equal(t, []string{"AI SaaS"}, cto.FocusTopics)
}

func TestLoadRoles_MissingFile(t *testing.T) {
	_, err := LoadRoles(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestGetRole(t *testing.T) {
	roles, err := LoadRoles(writeRolesFile(t))
	require.NoError(t, err)

	role, err := GetRole(roles, "CTO")
	require.NoError(t, err)
	assert.Equal(t, "CTO", role.Name)

	_, err = GetRole(roles, "CMO")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrRoleNotFound))
}

func TestEnabledRoles_SortedByName(t *testing.T) {
	roles, err := LoadRoles(writeRolesFile(t))
	require.NoError(t, err)

	enabled := EnabledRoles(roles)
	require.Len(t, enabled, 2)
	assert.Equal(t, "Advisor", enabled[0].Name)
	assert.Equal(t, "CTO", enabled[1].Name)
}
