package feature

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wenlin9/xdbot/internal/session"
)

func newSleepHandlerAt(t *testing.T, start time.Time) (*SleepHandler, *time.Time) {
	t.Helper()
	clock := start
	handler := NewSleepHandler(session.NewStore(), time.UTC)
	handler.now = func() time.Time { return clock }
	return handler, &clock
}

// TestSleep_WakeWithoutRecord tests "/早安" before any "/晚安"
func TestSleep_WakeWithoutRecord(t *testing.T) {
	handler, _ := newSleepHandlerAt(t, time.Date(2024, 3, 2, 7, 0, 0, 0, time.UTC))
	replier := &fakeReplier{}

	require.NoError(t, handler.Handle(context.Background(), groupMessage("/早安"), replier))

	require.Len(t, replier.texts, 1)
	assert.Contains(t, replier.texts[0], "你还没有记录睡眠时间呢")
}

// TestSleep_RecordAndWake tests a full night
func TestSleep_RecordAndWake(t *testing.T) {
	handler, clock := newSleepHandlerAt(t, time.Date(2024, 3, 1, 23, 30, 0, 0, time.UTC))
	replier := &fakeReplier{}

	require.NoError(t, handler.Handle(context.Background(), groupMessage("/晚安"), replier))
	assert.Contains(t, replier.texts[0], "晚安！现在是23:30")

	*clock = clock.Add(7*time.Hour + 45*time.Minute)
	require.NoError(t, handler.Handle(context.Background(), groupMessage("/早安"), replier))

	assert.Contains(t, replier.texts[1], "早安！现在是07:15")
	assert.Contains(t, replier.texts[1], "你睡了7小时45分钟")
	assert.Contains(t, replier.texts[1], "睡眠时间刚刚好！")

	// The record is gone; a second wake reports nothing recorded.
	require.NoError(t, handler.Handle(context.Background(), groupMessage("/早安"), replier))
	assert.Contains(t, replier.texts[2], "你还没有记录睡眠时间呢")
}

// TestSleep_ImmediateWake tests a near-zero duration
func TestSleep_ImmediateWake(t *testing.T) {
	handler, clock := newSleepHandlerAt(t, time.Date(2024, 3, 1, 23, 0, 0, 0, time.UTC))
	replier := &fakeReplier{}

	require.NoError(t, handler.Handle(context.Background(), groupMessage("/晚安"), replier))
	*clock = clock.Add(time.Minute)
	require.NoError(t, handler.Handle(context.Background(), groupMessage("/早安"), replier))

	assert.Contains(t, replier.texts[1], "你睡了0小时1分钟")
	assert.Contains(t, replier.texts[1], "要注意休息哦！")
}

// TestClassifySleep tests the grading boundaries
func TestClassifySleep(t *testing.T) {
	assert.Equal(t, "要注意休息哦！", classifySleep(0))
	assert.Equal(t, "要注意休息哦！", classifySleep(5))
	assert.Equal(t, "睡眠时间刚刚好！", classifySleep(6))
	assert.Equal(t, "睡眠时间刚刚好！", classifySleep(8))
	assert.Equal(t, "睡得有点久哦！", classifySleep(9))
}

// TestSleep_PerUserRecords tests that records are scoped per group member
func TestSleep_PerUserRecords(t *testing.T) {
	store := session.NewStore()
	handler := NewSleepHandler(store, time.UTC)
	clock := time.Date(2024, 3, 1, 23, 0, 0, 0, time.UTC)
	handler.now = func() time.Time { return clock }
	replier := &fakeReplier{}

	require.NoError(t, handler.Handle(context.Background(), groupMessage("/晚安"), replier))

	// user-2 never said good night; their wake finds nothing.
	wake := groupMessage("/早安")
	wake.UserID = "user-2"
	require.NoError(t, handler.Handle(context.Background(), wake, replier))
	assert.Contains(t, replier.texts[1], "你还没有记录睡眠时间呢")
}
