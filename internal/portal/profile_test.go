package portal

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hilanfill/internal/plan"
)

func TestSymbolSetMapping(t *testing.T) {
	symbols := DefaultProfile().Symbols

	t.Run("absence codes", func(t *testing.T) {
		assert.Equal(t, "2", symbols.ForAbsence(plan.Vacation))
		assert.Equal(t, "5", symbols.ForAbsence(plan.SickDeclaration))
		assert.Equal(t, "6", symbols.ForAbsence(plan.Sick))
		assert.Equal(t, "4", symbols.ForAbsence(plan.ReserveDuty))
		assert.Equal(t, "", symbols.ForAbsence(plan.AbsenceNone))
	})

	t.Run("presence codes", func(t *testing.T) {
		assert.Equal(t, "0", symbols.ForPresence(plan.Office))
		assert.Equal(t, "15", symbols.ForPresence(plan.Remote))
	})

	t.Run("absence detection", func(t *testing.T) {
		assert.True(t, symbols.IsAbsence("2"))
		assert.True(t, symbols.IsAbsence("6"))
		assert.False(t, symbols.IsAbsence("0"))
		assert.False(t, symbols.IsAbsence("15"))
		assert.False(t, symbols.IsAbsence(""))
	})

	t.Run("harmless weekend symbols", func(t *testing.T) {
		assert.True(t, symbols.Harmless(""))
		assert.True(t, symbols.Harmless("15"))
		assert.False(t, symbols.Harmless("0"))
		assert.False(t, symbols.Harmless("2"))
	})
}

func TestLoadProfileOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.yaml")
	content := `
base_url: https://example.hilan.co.il
symbols:
  remote: "16"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	p, err := LoadProfile(path)
	require.NoError(t, err)

	assert.Equal(t, "https://example.hilan.co.il", p.BaseURL)
	assert.Equal(t, "16", p.Symbols.Remote, "overridden")
	assert.Equal(t, "2", p.Symbols.Vacation, "default kept")
	assert.Equal(t, "#user_nm", p.Selectors.UsernameInput, "default kept")
}

func TestLoadProfileMissingFile(t *testing.T) {
	_, err := LoadProfile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestProjectAlreadySet(t *testing.T) {
	t.Run("empty hidden value never matches", func(t *testing.T) {
		row := Row{ProjectText: "1234 - platform"}
		assert.False(t, ProjectAlreadySet(row, "1234"))
	})
	t.Run("hidden value match", func(t *testing.T) {
		row := Row{ProjectCode: "1234", ProjectText: ""}
		assert.True(t, ProjectAlreadySet(row, "1234"))
	})
	t.Run("visible text match", func(t *testing.T) {
		row := Row{ProjectCode: "something", ProjectText: "Proj 1234 - Platform"}
		assert.True(t, ProjectAlreadySet(row, "1234"))
	})
	t.Run("different project", func(t *testing.T) {
		row := Row{ProjectCode: "9999", ProjectText: "9999 - other"}
		assert.False(t, ProjectAlreadySet(row, "1234"))
	})
}
