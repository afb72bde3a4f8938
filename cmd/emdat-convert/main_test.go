package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/couchcryptid/emdat-etl/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = "Disaster No,Disaster Type,Disaster Subtype,Country,Location,Start Date,Total Deaths,Total Affected\n" +
	"2010-0017,Earthquake,Ground movement,Haiti,Port-au-Prince,2010-01-12,222570,3700000\n" +
	"2099-0001,Flood,,Atlantis,,2099-01-01,,\n"

func writeInput(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestRun_WritesBatch(t *testing.T) {
	in := writeInput(t, "emdat.csv", sampleCSV)
	out := filepath.Join(t.TempDir(), "out", "events.json")
	var stdout, stderr bytes.Buffer

	err := run([]string{"-in", in, "-out", out, "-at", "2024-06-01T12:00:00Z"}, &stdout, &stderr)
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	var batch domain.Batch
	require.NoError(t, json.Unmarshal(data, &batch))

	require.Len(t, batch.Events, 1)
	assert.Equal(t, "emdat-2010-0017", batch.Events[0].ID)
	assert.Equal(t, time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC), batch.IngestedAt)
	assert.Equal(t, 1, batch.Rejected)

	summary := stderr.String()
	assert.Contains(t, summary, "Deaths: 222,570")
	assert.Contains(t, summary, "earthquake=1")
	assert.Contains(t, summary, "No coordinates found for country: Atlantis")
	assert.Empty(t, stdout.String())
}

func TestRun_Stdout(t *testing.T) {
	in := writeInput(t, "emdat.csv", sampleCSV)
	var stdout, stderr bytes.Buffer

	require.NoError(t, run([]string{"-in", in, "-severity", "threshold"}, &stdout, &stderr))

	var batch domain.Batch
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &batch))
	require.Len(t, batch.Events, 1)
	assert.Equal(t, domain.SeverityLevel(5), batch.Events[0].Impact.SeverityLevel)
}

func TestRun_Errors(t *testing.T) {
	csv := writeInput(t, "emdat.csv", sampleCSV)
	allBad := writeInput(t, "bad.csv", "Disaster Type,Country,Start Date\nFlood,Atlantis,2020\n")

	tests := []struct {
		name string
		args []string
	}{
		{name: "missing input flag", args: nil},
		{name: "unknown severity model", args: []string{"-in", csv, "-severity", "loudness"}},
		{name: "bad clock", args: []string{"-in", csv, "-at", "noon"}},
		{name: "missing file", args: []string{"-in", filepath.Join(t.TempDir(), "nope.csv")}},
		{name: "no valid records", args: []string{"-in", allBad}},
		{name: "unsupported extension", args: []string{"-in", writeInput(t, "emdat.pdf", sampleCSV)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			assert.Error(t, run(tt.args, &stdout, &stderr))
			assert.Empty(t, stdout.String())
		})
	}
}
