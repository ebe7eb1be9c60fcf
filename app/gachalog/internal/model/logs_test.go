package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustLog(t *testing.T, records ...PullRecord) CategoryLog {
	t.Helper()
	cl, err := NewCategoryLog(records)
	require.NoError(t, err)
	return cl
}

// TestLogsAccountID 测试按卡池顺序取 UID
func TestLogsAccountID(t *testing.T) {
	logs := Logs{
		CategoryWeapon:   mustLog(t, rec("200000002", "302", "2023-01-01 00:00:00", "a", 1)),
		CategoryStandard: mustLog(t, rec("100000001", "200", "2023-01-01 00:00:00", "b", 2)),
	}
	assert.Equal(t, "100000001", logs.AccountID())
	assert.Equal(t, 2, logs.Total())
	assert.ErrorIs(t, logs.Validate(), ErrAccountMismatch)

	assert.Equal(t, "", Logs{}.AccountID())
}

// TestLogsJSONRoundTrip 测试缓存文件往返一致
func TestLogsJSONRoundTrip(t *testing.T) {
	logs := Logs{
		CategoryCharacter: mustLog(t,
			rec("100000001", "301", "2023-01-02 00:00:00", "b", 2),
			rec("100000001", "301", "2023-01-01 00:00:00", "a", 1),
		),
		CategoryStandard: mustLog(t, rec("100000001", "200", "2023-01-01 00:00:00", "c", 3)),
	}

	data, err := json.Marshal(logs)
	require.NoError(t, err)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Len(t, raw, 4)
	assert.JSONEq(t, "[]", string(raw["100"]))

	var back Logs
	require.NoError(t, json.Unmarshal(data, &back))
	for _, c := range Categories() {
		assert.True(t, logs.Get(c).Equal(back.Get(c)), c.Name())
	}
}

// TestLogsUnmarshalAlias 测试 400 归并到 301
func TestLogsUnmarshalAlias(t *testing.T) {
	main := []PullRecord{rec("1", "301", "2023-01-03 00:00:00", "a", 3), rec("1", "301", "2023-01-01 00:00:00", "b", 1)}
	alias := []PullRecord{rec("1", "400", "2023-01-02 00:00:00", "c", 2)}
	data, err := json.Marshal(map[string][]PullRecord{"301": main, "400": alias})
	require.NoError(t, err)

	var logs Logs
	require.NoError(t, json.Unmarshal(data, &logs))
	got := logs.Get(CategoryCharacter).Records()
	require.Len(t, got, 3)
	assert.Equal(t, []string{"a", "c", "b"}, []string{got[0].Name, got[1].Name, got[2].Name})
	_, ok := logs[CategoryCharacter2]
	assert.False(t, ok)
}

// TestLogsUnmarshalUnknown 测试未知卡池
func TestLogsUnmarshalUnknown(t *testing.T) {
	var logs Logs
	assert.ErrorIs(t, json.Unmarshal([]byte(`{"999":[]}`), &logs), ErrUnknownCategory)
}
