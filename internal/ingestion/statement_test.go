package ingestion

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMPesaCSV_Success(t *testing.T) {
	input := strings.Join([]string{
		"receipt,completion_time,amount,details",
		"SFC7RE1XYZ,2026-03-14 10:22:41,85000,Payment from 255744XXXX",
		"SFC7RE2ABC,2026-03-14 11:05:02,120000.00,Payment from 255713XXXX",
	}, "\n")

	lines, err := ParseMPesaCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, lines, 2)

	assert.Equal(t, "SFC7RE1XYZ", lines[0].Reference)
	assert.Equal(t, int64(85000), lines[0].Amount)
	assert.Equal(t, time.Date(2026, 3, 14, 10, 22, 41, 0, time.UTC), lines[0].Timestamp)

	assert.Equal(t, "SFC7RE2ABC", lines[1].Reference)
	assert.Equal(t, int64(120000), lines[1].Amount)
}

func TestParseMPesaCSV_RFC3339Timestamp(t *testing.T) {
	input := "receipt,completion_time,amount,details\n" +
		"SFC7RE1XYZ,2026-03-14T10:22:41Z,85000,details"

	lines, err := ParseMPesaCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, time.Date(2026, 3, 14, 10, 22, 41, 0, time.UTC), lines[0].Timestamp)
}

func TestParseMPesaCSV_EmptyInput(t *testing.T) {
	_, err := ParseMPesaCSV(strings.NewReader(""))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty")
}

func TestParseMPesaCSV_WrongHeader(t *testing.T) {
	input := "transaction_id,date,gross,details\nSFC7RE1,2026-03-14 10:00:00,100,x"

	_, err := ParseMPesaCSV(strings.NewReader(input))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "receipt")
}

func TestParseMPesaCSV_LineErrors(t *testing.T) {
	tests := []struct {
		name    string
		row     string
		wantErr string
	}{
		{"empty receipt", ",2026-03-14 10:00:00,85000,x", "line 2: empty receipt"},
		{"bad timestamp", "SFC7RE1,14/03/2026,85000,x", "line 2 completion_time"},
		{"bad amount", "SFC7RE1,2026-03-14 10:00:00,85000TZS,x", "line 2 amount"},
		{"one decimal digit", "SFC7RE1,2026-03-14 10:00:00,85000.5,x", "line 2 amount"},
		{"nonzero cents", "SFC7RE1,2026-03-14 10:00:00,85000.50,x", "line 2 amount"},
		{"amount overflows int64", "SFC7RE1,2026-03-14 10:00:00,9999999999999999999,x", "line 2 amount"},
		{"missing columns", "SFC7RE1,2026-03-14 10:00:00", "line 2: expected at least 3 columns"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := "receipt,completion_time,amount,details\n" + tt.row
			_, err := ParseMPesaCSV(strings.NewReader(input))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParseMPesaCSV_HeaderOnly(t *testing.T) {
	lines, err := ParseMPesaCSV(strings.NewReader("receipt,completion_time,amount,details\n"))
	require.NoError(t, err)
	assert.Empty(t, lines)
}
