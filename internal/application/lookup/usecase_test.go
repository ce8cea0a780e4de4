package lookup

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"twcompany/enrichment"
	"twcompany/reconcile"
	"twcompany/resolution"
)

type stubResolver struct {
	resolved map[string]resolution.Resolved
	calls    []string
}

func (s *stubResolver) Resolve(ctx context.Context, rawName string) (resolution.Resolved, bool) {
	s.calls = append(s.calls, rawName)
	r, ok := s.resolved[rawName]
	return r, ok
}

type stubFetcher struct {
	details map[string]*enrichment.Detail
}

func (s *stubFetcher) FetchDetail(ctx context.Context, id string) (*enrichment.Detail, bool) {
	d, ok := s.details[id]
	return d, ok
}

func (s *stubFetcher) GetSourceStats() map[string]interface{} {
	return map[string]interface{}{"g0v": map[string]interface{}{"available": true}}
}

type stubLister struct {
	candidates []enrichment.Candidate
	err        error
	keyword    string
}

func (s *stubLister) List(ctx context.Context, keyword string) ([]enrichment.Candidate, error) {
	s.keyword = keyword
	return s.candidates, s.err
}

type stubReconciler struct {
	called int
	err    error
}

func (s *stubReconciler) ReconcileBatch(ctx context.Context, queries []reconcile.RawQuery, progress reconcile.ProgressFunc) ([]reconcile.ReconciledRow, []enrichment.DirectorRecord, error) {
	s.called++
	rows := make([]reconcile.ReconciledRow, len(queries))
	for i := range queries {
		rows[i] = reconcile.ReconciledRow{Index: i + 1}
	}
	return rows, []enrichment.DirectorRecord{}, s.err
}

func tsmcDetail() *enrichment.Detail {
	return &enrichment.Detail{
		Source: enrichment.G0VName,
		Record: enrichment.DetailRecord{
			enrichment.FieldBusinessNo: "22099131",
			enrichment.FieldName:       "台灣積體電路製造股份有限公司",
		},
		Directors: []enrichment.DirectorRecord{{"姓名": "魏哲家", "職稱": "董事長"}},
	}
}

func newUseCase() (*UseCase, *stubResolver, *stubLister, *stubReconciler) {
	resolver := &stubResolver{resolved: map[string]resolution.Resolved{
		"台積電": {ID: "22099131", Stage: resolution.StageG0VRaw, Query: "台積電"},
		"幽靈公司": {ID: "87654321", Stage: resolution.StageMOEACore, Query: "幽靈"},
	}}
	fetcher := &stubFetcher{details: map[string]*enrichment.Detail{"22099131": tsmcDetail()}}
	lister := &stubLister{}
	reconciler := &stubReconciler{}
	return NewUseCase(resolver, fetcher, lister, reconciler, 3), resolver, lister, reconciler
}

func TestLookup_DirectID(t *testing.T) {
	uc, resolver, _, _ := newUseCase()

	result, err := uc.Lookup(context.Background(), " 22099131 ")
	require.NoError(t, err)

	assert.Equal(t, "22099131", result.ID)
	assert.Equal(t, resolution.StageDirect, result.Stage)
	assert.Equal(t, "統編直查", result.Strategy)
	assert.Equal(t, "台灣積體電路製造股份有限公司", result.Record.Get(enrichment.FieldName))
	assert.Equal(t, enrichment.G0VName, result.Source)
	assert.Len(t, result.Directors, 1)
	assert.Empty(t, resolver.calls)
}

func TestLookup_ByName(t *testing.T) {
	uc, resolver, _, _ := newUseCase()

	result, err := uc.Lookup(context.Background(), "台積電")
	require.NoError(t, err)

	assert.Equal(t, "22099131", result.ID)
	assert.Equal(t, resolution.StageG0VRaw, result.Stage)
	assert.Equal(t, "g0v全名", result.Strategy)
	assert.Equal(t, []string{"台積電"}, resolver.calls)
}

func TestLookup_DirectorsAreCopied(t *testing.T) {
	uc, _, _, _ := newUseCase()

	result, err := uc.Lookup(context.Background(), "22099131")
	require.NoError(t, err)
	result.Directors[0]["姓名"] = "changed"

	again, err := uc.Lookup(context.Background(), "22099131")
	require.NoError(t, err)
	assert.Equal(t, "魏哲家", again.Directors[0]["姓名"])
}

func TestLookup_Errors(t *testing.T) {
	uc, _, _, _ := newUseCase()

	_, err := uc.Lookup(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrEmptyQuery)

	_, err = uc.Lookup(context.Background(), "nan")
	assert.ErrorIs(t, err, ErrEmptyQuery)

	_, err = uc.Lookup(context.Background(), "不存在的公司")
	assert.ErrorIs(t, err, ErrNotResolved)

	_, err = uc.Lookup(context.Background(), "幽靈公司")
	assert.ErrorIs(t, err, ErrDetailUnavailable)
}

func TestDetail(t *testing.T) {
	uc, _, _, _ := newUseCase()

	result, err := uc.Detail(context.Background(), "22099131")
	require.NoError(t, err)
	assert.Equal(t, "22099131", result.ID)

	_, err = uc.Detail(context.Background(), "2209913")
	assert.ErrorIs(t, err, ErrInvalidID)

	_, err = uc.Detail(context.Background(), "12345678")
	assert.ErrorIs(t, err, ErrDetailUnavailable)
}

func TestSearch(t *testing.T) {
	uc, _, lister, _ := newUseCase()

	candidates, err := uc.Search(context.Background(), " 台積 ")
	require.NoError(t, err)
	assert.NotNil(t, candidates)
	assert.Empty(t, candidates)
	assert.Equal(t, "台積", lister.keyword)

	lister.err = &enrichment.FetchError{Source: "moea", Op: "list", Kind: enrichment.KindStatus, StatusCode: 503}
	_, err = uc.Search(context.Background(), "台積")
	assert.True(t, enrichment.IsKind(err, enrichment.KindStatus))

	_, err = uc.Search(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyQuery)
}

func TestSearch_WithoutLister(t *testing.T) {
	uc := NewUseCase(&stubResolver{}, &stubFetcher{}, nil, &stubReconciler{}, 0)

	_, err := uc.Search(context.Background(), "台積")
	assert.ErrorIs(t, err, ErrSearchUnavailable)
}

func TestBatch(t *testing.T) {
	uc, _, _, reconciler := newUseCase()

	result, err := uc.Batch(context.Background(), []reconcile.RawQuery{{ID: "22099131"}, {Name: "台積電"}}, nil)
	require.NoError(t, err)
	assert.Len(t, result.Rows, 2)

	_, err = uc.Batch(context.Background(), make([]reconcile.RawQuery, 4), nil)
	assert.ErrorIs(t, err, ErrTooManyRows)

	_, err = uc.Batch(context.Background(), nil, nil)
	assert.ErrorIs(t, err, ErrEmptyQuery)
	assert.Equal(t, 1, reconciler.called)

	reconciler.err = context.Canceled
	result, err = uc.Batch(context.Background(), []reconcile.RawQuery{{ID: "22099131"}}, nil)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Len(t, result.Rows, 1)
}

func TestSourceStats(t *testing.T) {
	uc, _, _, _ := newUseCase()
	assert.Contains(t, uc.SourceStats(), "g0v")
}
