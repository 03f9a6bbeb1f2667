package predict

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeBatchRejectsEmptyInput(t *testing.T) {
	for _, body := range []string{"", "   ", "null", "[]", "{}", `""`, "0", "false"} {
		_, err := DecodeBatch([]byte(body))
		require.Error(t, err, "body %q", body)
		assert.Equal(t, KindNoInput, KindOf(err), "body %q", body)
		assert.Equal(t, MsgNoInput, err.Error())
	}
}

func TestDecodeBatchRejectsNonList(t *testing.T) {
	for _, body := range []string{`{"timestamp": 1, "analog_value": 2}`, `"text"`, `42`, `true`, `[1, 2]`, `[{"timestamp": 1}, "x"]`} {
		_, err := DecodeBatch([]byte(body))
		require.Error(t, err, "body %q", body)
		assert.Equal(t, KindNotList, KindOf(err), "body %q", body)
		assert.Equal(t, MsgNotList, err.Error())
	}
}

func TestDecodeBatchRejectsMalformedJSON(t *testing.T) {
	for _, body := range []string{`[{"timestamp": 1`, `[1,]`, `[{}] []`} {
		_, err := DecodeBatch([]byte(body))
		require.Error(t, err, "body %q", body)
		assert.Equal(t, KindMalformedJSON, KindOf(err), "body %q", body)
	}
}

func TestDecodeBatchBuildsColumnUnion(t *testing.T) {
	table, err := DecodeBatch([]byte(`[
		{"timestamp": 1700000000000, "analog_value": 21.5},
		{"analog_value": 19, "client_id": "T1", "timestamp": "1700000000500"},
		{"timestamp": 3, "analog_value": 1, "analog_value": 2}
	]`))
	require.NoError(t, err)

	assert.Equal(t, []string{"timestamp", "analog_value", "client_id"}, table.Columns())
	assert.Equal(t, 3, table.Len())
	assert.True(t, table.Get(0, "client_id").IsMissing())

	ts, ok := table.Get(0, "timestamp").Int64()
	require.True(t, ok)
	assert.Equal(t, int64(1700000000000), ts)

	assert.Equal(t, "1700000000500", table.Get(1, "timestamp").Text())

	last, _ := table.Get(2, "analog_value").Float64()
	assert.Equal(t, 2.0, last)
}
