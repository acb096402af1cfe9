package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/ridesim/core/model"
)

func sample() []model.RideRequest {
	d := model.DriverID(2)
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return []model.RideRequest{
		{ID: 1, RiderID: 1, Status: model.RequestCompleted, DriverID: &d, Pickup: model.Position{X: 1, Y: 2},
			Dropoff: model.Position{X: 3, Y: 4}, ETA: 5, CreatedTick: 1, UpdatedTick: 9, CreatedAt: ts, UpdatedAt: ts},
		{ID: 2, RiderID: 3, Status: model.RequestFailed, Reason: "rider removed, early", CreatedAt: ts, UpdatedAt: ts},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sample()))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, csvHeader, rows[0])
	assert.Equal(t, []string{"Request 1", "Rider 1", "Driver 2", "completed", "1", "2", "3", "4", "5", "1", "9",
		"2024-05-01T12:00:00Z", "2024-05-01T12:00:00Z", ""}, rows[1])
	assert.Equal(t, "", rows[2][2])
	assert.Equal(t, "rider removed, early", rows[2][13])
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, sample()))
	var out []model.RideRequest
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	require.Len(t, out, 2)
	assert.Equal(t, model.DriverID(2), *out[0].DriverID)

	buf.Reset()
	require.NoError(t, WriteJSON(&buf, nil))
	assert.JSONEq(t, `[]`, buf.String())
}

func TestWriteByExtension(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, "out.CSV", sample()))
	assert.Contains(t, buf.String(), "request_id")

	buf.Reset()
	require.NoError(t, Write(&buf, "out.json", sample()))
	assert.Contains(t, buf.String(), `"Request 1"`)

	assert.Error(t, Write(&buf, "out.xml", sample()))
}
