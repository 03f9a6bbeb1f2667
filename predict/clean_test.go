package predict

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sensorpredict/ml"
)

func decode(t *testing.T, body string) *ml.Table {
	t.Helper()
	table, err := DecodeBatch([]byte(body))
	require.NoError(t, err)
	return table
}

func TestCleanMissingColumns(t *testing.T) {
	_, err := Clean(decode(t, `[{"timestamp": 1}, {"timestamp": 2}]`))
	require.Error(t, err)
	assert.Equal(t, KindMissingColumns, KindOf(err))
	assert.Contains(t, err.Error(), "analog_value")
	assert.NotContains(t, err.Error(), "timestamp")

	_, err = Clean(decode(t, `[{"client_id": "T1"}]`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timestamp")
	assert.Contains(t, err.Error(), "analog_value")
}

func TestCleanDropsInvalidTimestamps(t *testing.T) {
	cleaned, err := Clean(decode(t, `[
		{"timestamp": 1000, "analog_value": 1},
		{"timestamp": "not a time", "analog_value": 2},
		{"timestamp": "2500.9", "analog_value": 3},
		{"timestamp": null, "analog_value": 4},
		{"timestamp": "inf", "analog_value": 5},
		{"timestamp": 1e400, "analog_value": 6},
		{"analog_value": 7},
		{"timestamp": -7.9, "analog_value": 8}
	]`))
	require.NoError(t, err)
	require.Equal(t, 3, cleaned.Len())

	var timestamps []int64
	var values []float64
	for row := 0; row < cleaned.Len(); row++ {
		ts, ok := cleaned.Get(row, "timestamp").Int64()
		require.True(t, ok)
		timestamps = append(timestamps, ts)
		v, _ := cleaned.Get(row, "analog_value").Float64()
		values = append(values, v)
	}
	assert.Equal(t, []int64{1000, 2500, -7}, timestamps)
	assert.Equal(t, []float64{1, 3, 8}, values)
}

func TestCleanReplacesInfinityInOtherColumns(t *testing.T) {
	cleaned, err := Clean(decode(t, `[{"timestamp": 1, "analog_value": 1e999, "note": "inf"}]`))
	require.NoError(t, err)
	assert.True(t, cleaned.Get(0, "analog_value").IsMissing())
	assert.Equal(t, ml.KindString, cleaned.Get(0, "note").Kind())
}

func TestCleanAllInvalid(t *testing.T) {
	_, err := Clean(decode(t, `[{"timestamp": "a", "analog_value": 1}, {"timestamp": "b", "analog_value": 2}]`))
	require.Error(t, err)
	assert.Equal(t, KindNoValidRecords, KindOf(err))
	assert.Equal(t, MsgNoValidRecords, err.Error())
}

func TestCleanTimestampOutOfRange(t *testing.T) {
	_, err := Clean(decode(t, `[{"timestamp": 1e30, "analog_value": 1}]`))
	require.Error(t, err)
	assert.Equal(t, KindTimestampRange, KindOf(err))
}

func TestCleanTimestampOutOfRangeReportsBatchPosition(t *testing.T) {
	_, err := Clean(decode(t, `[
		{"timestamp": "bad", "analog_value": 1},
		{"timestamp": 5, "analog_value": 2},
		{"timestamp": 1e30, "analog_value": 3}
	]`))
	require.Error(t, err)
	assert.Equal(t, KindTimestampRange, KindOf(err))
	assert.Contains(t, err.Error(), "record 2")
}
