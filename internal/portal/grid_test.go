package portal

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDateLabel(t *testing.T) {
	tests := []struct {
		label   string
		day     int
		month   int
		weekday string
		ok      bool
	}{
		{"05/02 Mon", 5, 2, "Mon", true},
		{"01/02 Thu", 1, 2, "Thu", true},
		{"  17/11 Tue  ", 17, 11, "Tue", true},
		{"09/02", 9, 2, "", true},
		{"", 0, 0, "", false},
		{"garbage", 0, 0, "", false},
		{"99/02 Mon", 0, 0, "", false},
		{"05/13 Mon", 0, 0, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			day, month, weekday, ok := parseDateLabel(tt.label)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.day, day)
				assert.Equal(t, tt.month, month)
				assert.Equal(t, tt.weekday, weekday)
			}
		})
	}
}

func TestParseRows(t *testing.T) {
	payload := `[
		{
			"rowIndex": 0, "dateText": "01/02 Thu",
			"hasEntry": true, "hasExit": true,
			"entryId": "e0", "exitId": "x0",
			"entry": "09:00", "exit": "18:00",
			"hasProject": true, "projectName": "p0",
			"project": "1234 - platform", "projectText": "1234 - platform",
			"hasSymbol": true, "symbolId": "s0", "symbol": "0"
		},
		{
			"rowIndex": 1, "dateText": "02/02 Fri",
			"hasEntry": false, "hasExit": false,
			"entryId": "", "exitId": "",
			"entry": "", "exit": "",
			"hasProject": false, "projectName": "",
			"project": "", "projectText": "",
			"hasSymbol": false, "symbolId": "", "symbol": ""
		},
		{
			"rowIndex": 2, "dateText": "",
			"hasEntry": false, "hasExit": false,
			"entryId": "", "exitId": "",
			"entry": "", "exit": "",
			"hasProject": false, "projectName": "",
			"project": "", "projectText": "",
			"hasSymbol": false, "symbolId": "", "symbol": ""
		}
	]`

	rows, err := parseRows(json.RawMessage(payload))
	require.NoError(t, err)
	require.Len(t, rows, 2, "row with empty date label must be dropped")

	work := rows[0]
	assert.Equal(t, 0, work.Index)
	assert.Equal(t, 1, work.Day)
	assert.Equal(t, 2, work.Month)
	assert.False(t, work.Weekend)
	assert.True(t, work.CanFill())
	assert.True(t, work.HasHours())
	assert.Equal(t, "0", work.Symbol)
	assert.Equal(t, "1234 - platform", work.ProjectCode)
	assert.Equal(t, time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC), work.Date(2024))

	weekend := rows[1]
	assert.True(t, weekend.Weekend)
	assert.False(t, weekend.CanFill())
	assert.False(t, weekend.HasHours())
	assert.False(t, weekend.HasSymbol)
}

func TestParseRowsBadPayload(t *testing.T) {
	_, err := parseRows(json.RawMessage(`{"not":"an array"}`))
	assert.Error(t, err)
}

func TestRowHasHours(t *testing.T) {
	assert.False(t, Row{}.HasHours())
	assert.True(t, Row{Entry: "09:00"}.HasHours())
	assert.True(t, Row{Exit: "18:00"}.HasHours())
	assert.False(t, Row{Entry: "  "}.HasHours())
}
