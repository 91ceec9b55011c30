package ui

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"gopivot/adapters/excel"
	"gopivot/app"
	"gopivot/internal/errors"
	"gopivot/internal/testkit"
	session "gopivot/ui/middleware"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func newTestApp(t *testing.T) (*App, *app.CubeService, *testkit.RecordingUsageLogger) {
	t.Helper()
	usage := &testkit.RecordingUsageLogger{}
	envs := testkit.StaticEnvironments{Source: testkit.NewMemorySource(testkit.NewSampleCube()), Usage: usage}
	svc := app.NewCubeService(envs, app.CubeServiceOptions{UsageLogEnabled: true})
	a, err := NewApp(svc, excel.NewExporter())
	require.NoError(t, err)
	return a, svc, usage
}

func regionByYear() url.Values {
	return url.Values{
		"row":    {"region:europe,asia", "region.country"},
		"column": {"time:2019,2020"},
		"filter": {"measure:count"},
	}
}

func get(t *testing.T, a *App, path string, q url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path+"?"+q.Encode(), nil)
	rec := httptest.NewRecorder()
	a.ServeHTTP(rec, req)
	return rec
}

func TestCubeJSON(t *testing.T) {
	a, svc, usage := newTestApp(t)

	q := regionByYear()
	q.Set("fz", "true")
	rec := get(t, a, "/api/test/en/cubes/health.sotkanet.population", q)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var view app.CubeView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, "Population", view.Name)
	require.Len(t, view.Rows, 3)
	assert.Equal(t, "Japan", view.Rows[2][1].Label)
	assert.Equal(t, []string{"0", "126200"}, view.Cells[2])

	svc.Wait()
	events := usage.Events()
	require.Len(t, events, 1)
	assert.Equal(t, "json", events[0].View)
	assert.True(t, events[0].FilterZero)
	assert.NotEmpty(t, events[0].SessionID)
}

func TestCubeJSONKeepsSession(t *testing.T) {
	a, svc, usage := newTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/api/test/en/cubes/health.sotkanet.population?"+regionByYear().Encode(), nil)
	req.AddCookie(&http.Cookie{Name: session.SessionCookie, Value: "abc-123"})
	rec := httptest.NewRecorder()
	a.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Result().Cookies())

	svc.Wait()
	require.Len(t, usage.Events(), 1)
	assert.Equal(t, "abc-123", usage.Events()[0].SessionID)
}

func TestCubeErrors(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		query  url.Values
		status int
		code   string
	}{
		{"bad header syntax", "/api/test/en/cubes/health.sotkanet.population", url.Values{"row": {"region"}}, http.StatusBadRequest, errors.CodeInvalidInput},
		{"bad flag", "/api/test/en/cubes/health.sotkanet.population", url.Values{"fz": {"maybe"}}, http.StatusBadRequest, errors.CodeInvalidInput},
		{"bad cube id", "/api/test/en/cubes/population", nil, http.StatusBadRequest, errors.CodeInvalidInput},
		{"missing cube", "/api/test/en/cubes/health.sotkanet.mortality", nil, http.StatusNotFound, errors.CodeCubeNotFound},
		{"unknown node", "/api/test/en/cubes/health.sotkanet.population", url.Values{"row": {"region:mars"}}, http.StatusInternalServerError, errors.CodeIntegrity},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			a, _, _ := newTestApp(t)
			rec := get(t, a, tc.path, tc.query)
			assert.Equal(t, tc.status, rec.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tc.code, body["code"])
			if tc.status == http.StatusInternalServerError {
				assert.Equal(t, "internal error", body["error"])
			}
		})
	}
}

func TestCubePage(t *testing.T) {
	a, _, _ := newTestApp(t)

	rec := get(t, a, "/test/fi/cubes/health.sotkanet.population", regionByYear())
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "<h1>Väestö</h1>")
	assert.Contains(t, body, "<th>Suomi</th>")
	assert.Contains(t, body, "<td>126200</td>")

	rec = get(t, a, "/test/fi/cubes/health.sotkanet.mortality", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Error 404")
}

func TestCubeValueTypes(t *testing.T) {
	a, _, _ := newTestApp(t)

	q := regionByYear()
	q.Set("svt", "true")
	rec := get(t, a, "/api/test/en/cubes/health.sotkanet.population", q)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var view app.CubeView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	require.Len(t, view.Companions, 3)
	assert.Equal(t, app.CompanionView{CILower: "5490", CIUpper: "5570", SampleSize: "1200"}, view.Companions[0][1])

	rec = get(t, a, "/test/en/cubes/health.sotkanet.population", q)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `<span class="ci">5490 - 5570</span>`)
	assert.Contains(t, body, `<span class="n">n = 1200</span>`)

	rec = get(t, a, "/api/test/en/cubes/health.sotkanet.population", regionByYear())
	assert.NotContains(t, rec.Body.String(), "companions")
}

func TestCubeExport(t *testing.T) {
	a, _, _ := newTestApp(t)

	q := regionByYear()
	q.Set("format", "xlsx")
	rec := get(t, a, "/api/test/en/cubes/health.sotkanet.population/export", q)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, excel.FormatXLSX.ContentType(), rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "health.sotkanet.population.xlsx")

	f, err := excelize.OpenReader(rec.Body)
	require.NoError(t, err)
	defer f.Close()
	v, err := f.GetCellValue(f.GetSheetName(0), "A1")
	require.NoError(t, err)
	assert.Equal(t, "Population", v)

	q.Set("format", "ods")
	rec = get(t, a, "/api/test/en/cubes/health.sotkanet.population/export", q)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestInvalidate(t *testing.T) {
	a, _, _ := newTestApp(t)

	req := httptest.NewRequest(http.MethodPost, "/api/test/cubes/health.sotkanet.population/invalidate", nil)
	rec := httptest.NewRecorder()
	a.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/test/cubes/bad/invalidate", nil)
	rec = httptest.NewRecorder()
	a.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealth(t *testing.T) {
	a, _, _ := newTestApp(t)
	rec := get(t, a, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
