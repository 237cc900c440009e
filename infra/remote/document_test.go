package remote

import (
	"log/slog"
	"strconv"
	"testing"
	"time"

	"github.com/nNEWBE/expense-tracker-sub000/pkg/domain/record"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeRecords_SkipsUnknownKinds(t *testing.T) {
	at := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC).UnixMilli()
	fields := map[string]string{
		"good":  `{"amount":"12.5","category":"Food","date":` + itoa(at) + `,"type":"EXPENSE","localId":1}`,
		"lower": `{"amount":"900","category":"Salary","date":` + itoa(at+1000) + `,"type":"income","localId":2}`,
		"bad":   `{"amount":"3","category":"Gift","date":` + itoa(at) + `,"type":"TRANSFER","localId":3}`,
		"blank": `{"amount":"4","category":"Misc","date":` + itoa(at) + `,"localId":4}`,
	}

	got, err := decodeRecords(fields, slog.Default())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "lower", got[0].RemoteID)
	assert.Equal(t, record.Income, got[0].Kind)
	assert.Equal(t, "good", got[1].RemoteID)
	assert.Equal(t, record.Expense, got[1].Kind)
}

func TestDecodeRecords_MalformedJSON(t *testing.T) {
	_, err := decodeRecords(map[string]string{"x": "{"}, slog.Default())
	assert.Error(t, err)
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}
