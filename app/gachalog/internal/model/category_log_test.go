package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNewCategoryLogOrder 测试构造时校验从新到旧
func TestNewCategoryLogOrder(t *testing.T) {
	r1 := rec("1", "301", "2023-01-01 00:00:00", "a", 1)
	r2 := rec("1", "301", "2023-01-02 00:00:00", "b", 2)

	_, err := NewCategoryLog([]PullRecord{r2, r1})
	assert.NoError(t, err)

	_, err = NewCategoryLog([]PullRecord{r1, r2})
	assert.ErrorIs(t, err, ErrOrderViolation)

	// 同一时刻 id 递增视为倒序
	s1 := rec("1", "301", "2023-01-01 00:00:00", "a", 1)
	s2 := rec("1", "301", "2023-01-01 00:00:00", "b", 2)
	_, err = NewCategoryLog([]PullRecord{s1, s2})
	assert.ErrorIs(t, err, ErrOrderViolation)
}

// TestCategoryLogPrepend 测试头部追加
func TestCategoryLogPrepend(t *testing.T) {
	r1 := rec("1", "301", "2023-01-01 00:00:00", "a", 1)
	r2 := rec("1", "301", "2023-01-02 00:00:00", "b", 2)
	r3 := rec("1", "301", "2023-01-03 00:00:00", "c", 3)

	cl, err := NewCategoryLog([]PullRecord{r2})
	require.NoError(t, err)

	out, err := cl.Prepend(r3)
	require.NoError(t, err)
	assert.Equal(t, []PullRecord{r3, r2}, out.Records())
	assert.Equal(t, 1, cl.Len())

	_, err = cl.Prepend(r1)
	assert.ErrorIs(t, err, ErrOrderViolation)
}

// TestCategoryLogInsert 测试按时间归并
func TestCategoryLogInsert(t *testing.T) {
	r1 := rec("1", "301", "2023-01-01 00:00:00", "a", 1)
	r2 := rec("1", "301", "2023-01-02 00:00:00", "b", 2)
	r3 := rec("1", "301", "2023-01-03 00:00:00", "c", 3)
	r4 := rec("1", "301", "2023-01-04 00:00:00", "d", 4)

	cl, err := NewCategoryLog([]PullRecord{r3, r1})
	require.NoError(t, err)

	out, err := cl.Insert(r4, r2)
	require.NoError(t, err)
	assert.Equal(t, []PullRecord{r4, r3, r2, r1}, out.Records())

	// 时间相同且无 id 时新记录在前
	n := rec("1", "301", "2023-01-03 00:00:00", "n", 0)
	out, err = cl.Insert(n)
	require.NoError(t, err)
	assert.Equal(t, []PullRecord{n, r3, r1}, out.Records())
}

// TestCategoryLogAppend 测试尾部追加
func TestCategoryLogAppend(t *testing.T) {
	r1 := rec("1", "302", "2023-01-01 00:00:00", "a", 1)
	r2 := rec("1", "302", "2023-01-02 00:00:00", "b", 2)

	var cl CategoryLog
	cl, err := cl.Append(r2)
	require.NoError(t, err)
	cl, err = cl.Append(r1)
	require.NoError(t, err)
	assert.Equal(t, 2, cl.Len())

	_, err = cl.Append(r2)
	assert.ErrorIs(t, err, ErrOrderViolation)

	newest, ok := cl.Newest()
	require.True(t, ok)
	assert.Equal(t, r2, newest)
	oldest, ok := cl.Oldest()
	require.True(t, ok)
	assert.Equal(t, r1, oldest)
}

// TestSortCategoryLog 测试排序构造
func TestSortCategoryLog(t *testing.T) {
	r1 := rec("1", "301", "2023-01-01 00:00:00", "a", 1)
	r2 := rec("1", "301", "2023-01-02 00:00:00", "b", 2)
	cl := SortCategoryLog([]PullRecord{r1, r2})
	assert.Equal(t, []PullRecord{r2, r1}, cl.Records())
}

// TestCategoryLogJSON 测试序列化往返与读入校验
func TestCategoryLogJSON(t *testing.T) {
	r1 := rec("1", "301", "2023-01-01 00:00:00", "a", 1)
	r2 := rec("1", "301", "2023-01-02 00:00:00", "b", 2)
	cl, err := NewCategoryLog([]PullRecord{r2, r1})
	require.NoError(t, err)

	data, err := json.Marshal(cl)
	require.NoError(t, err)

	var back CategoryLog
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, cl.Equal(back))

	bad, err := json.Marshal([]PullRecord{r1, r2})
	require.NoError(t, err)
	assert.ErrorIs(t, json.Unmarshal(bad, &back), ErrOrderViolation)

	empty, err := json.Marshal(CategoryLog{})
	require.NoError(t, err)
	assert.Equal(t, "[]", string(empty))
}
