package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/fpawel/vctool/internal/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	lgr, err := ledger.New()
	require.NoError(t, err)
	srv := httptest.NewServer(New(lgr, "").Handler())
	t.Cleanup(func() {
		srv.Close()
		require.NoError(t, lgr.Close())
	})
	return srv
}

func do(t *testing.T, srv *httptest.Server, method, path string, body interface{}) (*http.Response, map[string]json.RawMessage) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, srv.URL+path, &buf)
	require.NoError(t, err)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	var m map[string]json.RawMessage
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&m))
	require.NoError(t, resp.Body.Close())
	return resp, m
}

func addEntry(t *testing.T, srv *httptest.Server, nominal string) {
	t.Helper()
	resp, _ := do(t, srv, http.MethodPost, "/entries", map[string]string{
		"nominal": nominal, "upper": "0.01", "lower": "0.01",
		"tolerance": "0.02", "feature": "pin", "datum": "A",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestComputePreview(t *testing.T) {
	srv := newTestServer(t)
	resp, m := do(t, srv, http.MethodPost, "/compute", map[string]string{
		"nominal": "0.5", "upper": "0.01", "lower": "0.01",
		"tolerance": "0.02", "feature": "pin",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var vc75 float64
	require.NoError(t, json.Unmarshal(m["vc75"], &vc75))
	assert.InDelta(t, 0.475, vc75, 1e-9)
}

func TestComputeBlankFieldsPreviewAsZero(t *testing.T) {
	srv := newTestServer(t)
	resp, m := do(t, srv, http.MethodPost, "/compute", map[string]string{
		"nominal": "1", "feature": "hole",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var mmc float64
	require.NoError(t, json.Unmarshal(m["mmc"], &mmc))
	assert.Equal(t, 1.0, mmc)
}

func TestComputeMalformedField(t *testing.T) {
	srv := newTestServer(t)
	resp, m := do(t, srv, http.MethodPost, "/compute", map[string]string{
		"nominal": "abc", "feature": "pin",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, m, "error")
}

func TestAddListDelete(t *testing.T) {
	srv := newTestServer(t)
	addEntry(t, srv, "1")
	addEntry(t, srv, "2")

	resp, err := srv.Client().Get(srv.URL + "/entries")
	require.NoError(t, err)
	var entries []ledger.Entry
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&entries))
	require.NoError(t, resp.Body.Close())
	require.Len(t, entries, 2)
	assert.Equal(t, 1.0, entries[0].Nominal)

	dresp, _ := do(t, srv, http.MethodDelete, "/entries/0", nil)
	assert.Equal(t, http.StatusOK, dresp.StatusCode)

	dresp, _ = do(t, srv, http.MethodDelete, "/entries/5", nil)
	assert.Equal(t, http.StatusNotFound, dresp.StatusCode)
}

func TestAddIncompleteEntry(t *testing.T) {
	srv := newTestServer(t)
	resp, _ := do(t, srv, http.MethodPost, "/entries", map[string]string{
		"nominal": "1", "feature": "pin",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestEditEntry(t *testing.T) {
	srv := newTestServer(t)
	addEntry(t, srv, "0.5")

	resp, _ := do(t, srv, http.MethodPatch, "/entries/0", map[string]string{
		"field": "tolerance", "value": "0.04",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = do(t, srv, http.MethodPatch, "/entries/0", map[string]string{
		"field": "tolerance", "value": "oops",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	lresp, err := srv.Client().Get(srv.URL + "/entries")
	require.NoError(t, err)
	var entries []ledger.Entry
	require.NoError(t, json.NewDecoder(lresp.Body).Decode(&entries))
	require.NoError(t, lresp.Body.Close())
	require.Len(t, entries, 1)
	assert.Equal(t, 0.04, entries[0].Tolerance)
	assert.Equal(t, 0.45, entries[0].VC100)
}

func TestExport(t *testing.T) {
	srv := newTestServer(t)

	filename := filepath.Join(t.TempDir(), "out.csv")
	resp, _ := do(t, srv, http.MethodPost, "/export", map[string]string{"filename": filename})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	_, err := os.Stat(filename)
	assert.True(t, os.IsNotExist(err), "no file on failed export")

	addEntry(t, srv, "0.5")
	resp, m := do(t, srv, http.MethodPost, "/export", map[string]string{"filename": filename})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var rows int
	require.NoError(t, json.Unmarshal(m["rows"], &rows))
	assert.Equal(t, 1, rows)

	data, err := os.ReadFile(filename)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Feature Type")
}
