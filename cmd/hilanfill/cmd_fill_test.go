package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hilanfill/internal/plan"
)

func resetFillFlags() {
	fillUser, fillPassword, fillProject = "", "", ""
	fillStart, fillEnd = "09:00", "18:00"
	fillPresentDays, fillPresentDates = "", ""
	fillVacation, fillSickDays, fillSickFile = "", "", ""
	fillReserveDays, fillReserveFile = "", ""
	fillMonth, fillYear = 0, 0
	fillDryRun = false
}

func TestBuildFillJob(t *testing.T) {
	now := time.Date(2024, time.February, 15, 12, 0, 0, 0, time.UTC)

	t.Run("defaults to current month", func(t *testing.T) {
		resetFillFlags()
		fillUser, fillPassword = "123", "secret"

		job, err := buildFillJob(now)
		require.NoError(t, err)
		assert.Equal(t, 2024, job.Year)
		assert.Equal(t, time.February, job.Month)
		assert.Len(t, job.States, 29)
	})

	t.Run("full plan", func(t *testing.T) {
		resetFillFlags()
		fillUser, fillPassword = "123", "secret"
		fillProject = "12086 - AGUR IC"
		fillMonth, fillYear = 2, 2024
		fillPresentDays = "1,3"
		fillVacation = "20-22"
		fillSickDays = "8"

		job, err := buildFillJob(now)
		require.NoError(t, err)

		// Feb 5 2024 is a Monday, office weekday 2 in portal terms is
		// not set; weekday 1=Sunday so the 4th is office, the 5th remote.
		assert.Equal(t, plan.Office, job.States[4].Presence)
		assert.Equal(t, plan.Attendance, job.States[4].Action)
		assert.Equal(t, plan.Absence, job.States[20].Action)
		assert.Equal(t, plan.Vacation, job.States[20].Absence)
		assert.Equal(t, plan.SickDeclaration, job.States[8].Absence)
		assert.Equal(t, "12086", job.States[5].Project.Code)
	})

	t.Run("bad clock rejected", func(t *testing.T) {
		resetFillFlags()
		fillStart = "25:00"
		_, err := buildFillJob(now)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "--start-time")
	})

	t.Run("overlapping sets rejected", func(t *testing.T) {
		resetFillFlags()
		fillVacation = "5"
		fillSickDays = "5,6"
		_, err := buildFillJob(now)
		require.Error(t, err)
		var cfgErr *plan.ConfigError
		assert.ErrorAs(t, err, &cfgErr)
	})

	t.Run("missing certificate file rejected", func(t *testing.T) {
		resetFillFlags()
		fillSickDays = "5,6,7"
		fillSickFile = filepath.Join(t.TempDir(), "missing.pdf")
		_, err := buildFillJob(now)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "--sick-file")
	})

	t.Run("credentials fall back to environment", func(t *testing.T) {
		resetFillFlags()
		t.Setenv("HILAN_USER", "env-user")
		t.Setenv("HILAN_PASSWORD", "env-pass")

		job, err := buildFillJob(now)
		require.NoError(t, err)
		assert.Equal(t, "env-user", job.User)
		assert.Equal(t, "env-pass", job.Password)
	})

	t.Run("existing certificate accepted", func(t *testing.T) {
		resetFillFlags()
		cert := filepath.Join(t.TempDir(), "cert.pdf")
		require.NoError(t, os.WriteFile(cert, []byte("x"), 0o644))
		fillSickDays = "5,6,7"
		fillSickFile = cert

		job, err := buildFillJob(now)
		require.NoError(t, err)
		assert.Equal(t, plan.Sick, job.States[5].Absence)
		assert.Equal(t, cert, job.States[5].Attachment)
	})
}

func TestDescribeState(t *testing.T) {
	assert.Equal(t, "vacation", describeState(plan.DayState{
		Action: plan.Absence, Absence: plan.Vacation,
	}))
	assert.Equal(t, "sick (attach /tmp/c.pdf)", describeState(plan.DayState{
		Action: plan.Absence, Absence: plan.Sick, Attachment: "/tmp/c.pdf",
	}))
	assert.Equal(t, "presence  09:00-18:00  12086 - AGUR IC", describeState(plan.DayState{
		Action: plan.Attendance, Presence: plan.Office,
		Entry: "09:00", Exit: "18:00",
		Project: plan.Project{Code: "12086", Label: "12086 - AGUR IC"},
	}))
}
