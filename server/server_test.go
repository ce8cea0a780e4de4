package server

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"twcompany/exporter"
	"twcompany/internal/api/handlers/batch"
	"twcompany/internal/config"
	"twcompany/internal/container"
)

// fakeRegistries поднимает официальный реестр и зеркало на httptest
func fakeRegistries(t *testing.T) (*httptest.Server, *httptest.Server, *int32) {
	t.Helper()
	var moeaCalls int32

	moea := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&moeaCalls, 1)
		filter := r.URL.Query().Get("$filter")
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.Contains(filter, "Company_Name like 台積電"):
			_, _ = w.Write([]byte(`[{"Business_Accounting_NO":"22099131","Company_Name":"台灣積體電路製造股份有限公司"}]`))
		case strings.Contains(filter, "Company_Name like 台積"):
			_, _ = w.Write([]byte(`[{"Business_Accounting_NO":"22099131","Company_Name":"台灣積體電路製造股份有限公司"},{"Business_Accounting_NO":"11111111","Company_Name":"台積舊公司"}]`))
		default:
			w.WriteHeader(http.StatusNoContent)
		}
	}))
	t.Cleanup(moea.Close)

	g0v := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/api/show/22099131" {
			_, _ = w.Write([]byte(`{"data":{"統一編號":"22099131","公司名稱":"台灣積體電路製造股份有限公司","代表人姓名":"魏哲家",` +
				`"核准設立日期":{"year":1987,"month":2,"day":21},"董監事名單":[{"姓名":"魏哲家","職稱":"董事長"}]}}`))
			return
		}
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))
	t.Cleanup(g0v.Close)

	return moea, g0v, &moeaCalls
}

func newTestServer(t *testing.T) (http.Handler, *int32) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	moea, g0v, moeaCalls := fakeRegistries(t)

	cfg := config.GetDefaults()
	cfg.MOEA.SearchURL = moea.URL
	cfg.MOEA.DetailURL = moea.URL
	cfg.MOEA.RatePerSec = 0
	cfg.G0V.SearchURL = g0v.URL + "/api/search/"
	cfg.G0V.DetailURL = g0v.URL + "/api/show/"
	cfg.G0V.RatePerSec = 0
	cfg.CoreRetryDelay = 0
	cfg.Batch.LookupDelayMin = 0
	cfg.Batch.LookupDelayMax = 0
	cfg.Batch.DetailDelay = 0
	cfg.Batch.MaxRows = 5
	require.NoError(t, cfg.Validate())

	c, err := container.NewContainer(cfg)
	require.NoError(t, err)
	require.NoError(t, c.Initialize())
	t.Cleanup(func() { _ = c.Close() })

	return NewServer(c).Handler(), moeaCalls
}

func doRequest(handler http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func TestLookupEndpoint(t *testing.T) {
	handler, _ := newTestServer(t)

	w := doRequest(handler, httptest.NewRequest(http.MethodGet, "/api/company/lookup?q="+url.QueryEscape("台積電"), nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var body struct {
		ID        string              `json:"id"`
		Stage     string              `json:"stage"`
		Strategy  string              `json:"strategy"`
		Record    map[string]string   `json:"record"`
		Directors []map[string]string `json:"directors"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "22099131", body.ID)
	assert.Equal(t, "moea_raw", body.Stage)
	assert.Equal(t, "經濟部全名", body.Strategy)
	assert.Equal(t, "076年02月21日", body.Record["核准設立日期"])
	assert.Len(t, body.Directors, 1)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestLookupEndpoint_Errors(t *testing.T) {
	handler, _ := newTestServer(t)

	w := doRequest(handler, httptest.NewRequest(http.MethodGet, "/api/company/lookup", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(handler, httptest.NewRequest(http.MethodGet, "/api/company/lookup?q="+url.QueryEscape("沒有這家公司"), nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doRequest(handler, httptest.NewRequest(http.MethodGet, "/api/company/12345678", nil))
	assert.Equal(t, http.StatusBadGateway, w.Code)

	w = doRequest(handler, httptest.NewRequest(http.MethodGet, "/api/company/abc", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDetailEndpoint_UsesCache(t *testing.T) {
	handler, moeaCalls := newTestServer(t)

	for i := 0; i < 2; i++ {
		w := doRequest(handler, httptest.NewRequest(http.MethodGet, "/api/company/22099131", nil))
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := doRequest(handler, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var health struct {
		Status  string `json:"status"`
		Sources struct {
			Cache struct {
				Hits int64 `json:"hits"`
			} `json:"cache"`
		} `json:"sources"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, int64(1), health.Sources.Cache.Hits)
	assert.Zero(t, atomic.LoadInt32(moeaCalls), "mirror answered, official registry must not be called")
}

func TestSearchEndpoint(t *testing.T) {
	handler, _ := newTestServer(t)

	w := doRequest(handler, httptest.NewRequest(http.MethodGet, "/api/company/search?q="+url.QueryEscape("台積"), nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Total      int `json:"total"`
		Candidates []struct {
			ID string `json:"id"`
		} `json:"candidates"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Total)
	assert.Equal(t, "11111111", body.Candidates[1].ID)
}

func uploadCSV(t *testing.T, content string, fields map[string]string, query string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", "input.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	for k, v := range fields {
		require.NoError(t, writer.WriteField(k, v))
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/batch"+query, &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestBatchEndpoint_Workbook(t *testing.T) {
	handler, _ := newTestServer(t)

	csv := "項目,公司名稱,統一編號\n1,,22099131\n2,台積電,\n3,查無此公司,\n"
	w := doRequest(handler, uploadCSV(t, csv, nil, ""))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment")
	assert.NotEmpty(t, w.Header().Get("X-Batch-ID"))

	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(exporter.BasicSheet)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"1", "", "22099131"}, rows[1][:3])
	assert.Equal(t, []string{"2", "台積電", "22099131"}, rows[2][:3])
	assert.Equal(t, []string{"3", "查無此公司", ""}, rows[3][:3])

	board, err := f.GetRows(exporter.DirectorsSheet)
	require.NoError(t, err)
	assert.Len(t, board, 3)
}

func TestBatchEndpoint_JSONAndColumns(t *testing.T) {
	handler, _ := newTestServer(t)

	csv := "代號,抬頭\n22099131,台積電\n"
	w := doRequest(handler, uploadCSV(t, csv, map[string]string{"id_column": "代號", "name_column": "抬頭"}, "?format=json"))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var body struct {
		Rows []struct {
			ID       string `json:"id"`
			Strategy string `json:"strategy"`
		} `json:"rows"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Rows, 1)
	assert.Equal(t, "統編直查", body.Rows[0].Strategy)

	w = doRequest(handler, uploadCSV(t, csv, map[string]string{"id_column": "不存在"}, ""))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBatchEndpoint_Limits(t *testing.T) {
	handler, _ := newTestServer(t)

	csv := "統編\n1\n2\n3\n4\n5\n6\n"
	w := doRequest(handler, uploadCSV(t, csv, nil, ""))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/batch", strings.NewReader("not multipart"))
	w = doRequest(handler, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBatchEndpoint_OversizedUpload(t *testing.T) {
	handler, _ := newTestServer(t)

	content := "統編\n" + strings.Repeat("22099131\n", (batch.MaxUploadSize/9)+1024)
	w := doRequest(handler, uploadCSV(t, content, nil, ""))

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Contains(t, w.Body.String(), "upload exceeds")
}

func TestTemplateEndpoint(t *testing.T) {
	handler, _ := newTestServer(t)

	w := doRequest(handler, httptest.NewRequest(http.MethodGet, "/api/batch/template", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", w.Header().Get("Content-Type"))

	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{exporter.TemplateSheet}, f.GetSheetList())
}

func TestMetricsAndNoRoute(t *testing.T) {
	handler, _ := newTestServer(t)

	w := doRequest(handler, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(handler, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "twcompany_http_requests_total")

	w = doRequest(handler, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestShutdownWithoutStart(t *testing.T) {
	c, err := container.NewContainer(config.GetDefaults())
	require.NoError(t, err)
	require.NoError(t, c.Initialize())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, NewServer(c).Shutdown(ctx))
}
