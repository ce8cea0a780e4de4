package resolution

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"twcompany/enrichment"
)

// noDelay не ждет
type noDelay struct{}

func (noDelay) Sleep(ctx context.Context, d time.Duration) error {
	return ctx.Err()
}

// recordingDelayer запоминает запрошенные паузы, не ожидая их
type recordingDelayer struct {
	Delays []time.Duration
}

func (r *recordingDelayer) Sleep(ctx context.Context, d time.Duration) error {
	r.Delays = append(r.Delays, d)
	return ctx.Err()
}

// fakeSource отдает заранее заданные выдачи и запоминает запросы
type fakeSource struct {
	name    string
	results map[string][]enrichment.Candidate
	err     error
	queries []string
}

func (f *fakeSource) Name() string { return f.name }

func (f *fakeSource) Search(ctx context.Context, name string) ([]enrichment.Candidate, error) {
	f.queries = append(f.queries, name)
	if f.err != nil {
		return nil, f.err
	}
	return f.results[name], nil
}

func newFakes() (*fakeSource, *fakeSource) {
	return &fakeSource{name: "moea", results: map[string][]enrichment.Candidate{}},
		&fakeSource{name: "g0v", results: map[string][]enrichment.Candidate{}}
}

func TestResolver_OfficialRawStage(t *testing.T) {
	official, mirror := newFakes()
	official.results["台灣積體電路製造"] = []enrichment.Candidate{
		{ID: "22099131", Name: "台灣積體電路製造股份有限公司"},
		{ID: "99999999", Name: "台灣積體電路製造股份有限公司新竹分公司"},
	}
	delayer := &recordingDelayer{}

	resolver := NewResolver(official, mirror, Config{CoreRetryDelay: DefaultCoreRetryDelay, Delayer: delayer})
	resolved, ok := resolver.Resolve(context.Background(), "  台灣積體電路製造 ")

	require.True(t, ok)
	assert.Equal(t, "22099131", resolved.ID)
	assert.Equal(t, StageMOEARaw, resolved.Stage)
	assert.Equal(t, "台灣積體電路製造", resolved.Query)
	assert.Empty(t, mirror.queries)
	assert.Empty(t, delayer.Delays)
}

func TestResolver_MirrorFallback(t *testing.T) {
	official, mirror := newFakes()
	official.err = &enrichment.FetchError{Source: "moea", Op: "search", Kind: enrichment.KindTransport}
	mirror.results["台積電"] = []enrichment.Candidate{{ID: "22099131", Name: "台灣積體電路製造股份有限公司"}}

	resolver := NewResolver(official, mirror, Config{Delayer: noDelay{}})
	resolved, ok := resolver.Resolve(context.Background(), "台積電")

	require.True(t, ok)
	assert.Equal(t, "22099131", resolved.ID)
	assert.Equal(t, StageG0VRaw, resolved.Stage)
}

func TestResolver_CoreRetry(t *testing.T) {
	official, mirror := newFakes()
	official.results["鼎泰豐小吃店"] = []enrichment.Candidate{{ID: "12345678", Name: "鼎泰豐小吃店股份有限公司"}}
	delayer := &recordingDelayer{}

	resolver := NewResolver(official, mirror, Config{CoreRetryDelay: DefaultCoreRetryDelay, Delayer: delayer})
	resolved, ok := resolver.Resolve(context.Background(), "鼎泰豐小吃店有限公司")

	require.True(t, ok)
	assert.Equal(t, "12345678", resolved.ID)
	assert.Equal(t, StageMOEACore, resolved.Stage)
	assert.Equal(t, []string{"鼎泰豐小吃店有限公司", "鼎泰豐小吃店"}, official.queries)
	assert.Equal(t, []string{"鼎泰豐小吃店有限公司"}, mirror.queries)
	assert.Equal(t, []time.Duration{DefaultCoreRetryDelay}, delayer.Delays)
}

func TestResolver_MirrorCoreStage(t *testing.T) {
	official, mirror := newFakes()
	mirror.results["好好創投"] = []enrichment.Candidate{{ID: "87654321", Name: "好好創投"}}

	resolver := NewResolver(official, mirror, Config{Delayer: noDelay{}})
	resolved, ok := resolver.Resolve(context.Background(), "好好創投有限合夥")

	require.True(t, ok)
	assert.Equal(t, StageG0VCore, resolved.Stage)
	assert.Equal(t, []string{"好好創投有限合夥", "好好創投"}, mirror.queries)
}

func TestResolver_NoRetryWhenCoreEqualsRaw(t *testing.T) {
	official, mirror := newFakes()
	delayer := &recordingDelayer{}

	resolver := NewResolver(official, mirror, Config{CoreRetryDelay: DefaultCoreRetryDelay, Delayer: delayer})
	_, ok := resolver.Resolve(context.Background(), "台積電")

	assert.False(t, ok)
	assert.Equal(t, []string{"台積電"}, official.queries)
	assert.Equal(t, []string{"台積電"}, mirror.queries)
	assert.Empty(t, delayer.Delays)
}

func TestResolver_AllStagesFail(t *testing.T) {
	official, mirror := newFakes()
	mirror.err = errors.New("connection refused")

	resolver := NewResolver(official, mirror, Config{Delayer: noDelay{}})
	resolved, ok := resolver.Resolve(context.Background(), "不存在股份有限公司")

	assert.False(t, ok)
	assert.Equal(t, Resolved{}, resolved)
	assert.Len(t, official.queries, 2)
	assert.Len(t, mirror.queries, 2)
}

func TestResolver_EmptyIDFallsThrough(t *testing.T) {
	official, mirror := newFakes()
	official.results["台積電"] = []enrichment.Candidate{{ID: "", Name: "台積電"}}
	mirror.results["台積電"] = []enrichment.Candidate{{ID: "22099131", Name: "台積電"}}

	resolver := NewResolver(official, mirror, Config{Delayer: noDelay{}})
	resolved, ok := resolver.Resolve(context.Background(), "台積電")

	require.True(t, ok)
	assert.Equal(t, StageG0VRaw, resolved.Stage)
}

func TestResolver_EmptyName(t *testing.T) {
	official, mirror := newFakes()

	resolver := NewResolver(official, mirror, Config{Delayer: noDelay{}})
	_, ok := resolver.Resolve(context.Background(), " 　")

	assert.False(t, ok)
	assert.Empty(t, official.queries)
}

func TestResolver_CancelledContext(t *testing.T) {
	official, mirror := newFakes()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	resolver := NewResolver(official, mirror, Config{Delayer: noDelay{}})
	_, ok := resolver.Resolve(ctx, "台積電股份有限公司")

	assert.False(t, ok)
	assert.Empty(t, official.queries)
}

func TestStage_Label(t *testing.T) {
	assert.Equal(t, "統編直查", StageDirect.Label())
	assert.Equal(t, "經濟部核心名", StageMOEACore.Label())
	assert.Equal(t, "custom", Stage("custom").Label())
}

func TestJitter(t *testing.T) {
	for i := 0; i < 100; i++ {
		d := Jitter(100*time.Millisecond, 300*time.Millisecond)
		assert.GreaterOrEqual(t, d, 100*time.Millisecond)
		assert.LessOrEqual(t, d, 300*time.Millisecond)
	}
	assert.Equal(t, time.Second, Jitter(time.Second, time.Second))
}

func TestTimerDelayer_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := TimerDelayer{}.Sleep(ctx, time.Hour)

	assert.ErrorIs(t, err, context.Canceled)
}
