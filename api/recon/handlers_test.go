package recon

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"BankRecon/api/constants"
	"BankRecon/internal/formats"
	"BankRecon/internal/ingest"
	"BankRecon/internal/reconcile"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const (
	bankCSV = "1234,0001,x,20240105,y,-150000.00,12,PAGO PSE EMPRESA,z\n" +
		"1234,0002,x,20240105,y,0,99,SALDO DIA,z\n" +
		"1234,0003,x,20240106,y,300.00,14,ABONO,z\n"
	ledgerCSV = "Fecha,Documento,Concepto,Debito,Credito\n" +
		"2024-01-05,CE-1,Pago proveedor,,150000\n" +
		"2024-01-06,RC-2,Recaudo,100,\n" +
		"2024-01-06,RC-3,Recaudo,195,\n"
)

func newTestRouter() *mux.Router {
	return NewRouter(reconcile.New(), ingest.New(), 1<<20)
}

func upload(t *testing.T, h http.Handler, side, format, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(constants.FormFileField, side+".csv")
	require.NoError(t, err)
	_, err = fw.Write([]byte(body))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	url := "/api/transactions/upload/" + side
	if format != "" {
		url += "?format=" + format
	}
	req := httptest.NewRequest(http.MethodPost, url, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return do(t, h, req)
}

func postJSON(t *testing.T, h http.Handler, url string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(http.MethodPost, url, &buf)
	req.Header.Set("Content-Type", constants.ContentTypeJSON)
	return do(t, h, req)
}

func do(t *testing.T, h http.Handler, req *http.Request) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	var out map[string]interface{}
	if rec.Header().Get(constants.ContentTypeText) == constants.ContentTypeJSON {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec, out
}

func loadBoth(t *testing.T, h http.Handler) {
	t.Helper()
	rec, body := upload(t, h, "bank", "", bankCSV)
	require.Equal(t, http.StatusOK, rec.Code, body)
	rec, body = upload(t, h, "accounting", string(formats.GenericLedger), ledgerCSV)
	require.Equal(t, http.StatusOK, rec.Code, body)
}

func TestHealthAndFormats(t *testing.T) {
	h := newTestRouter()

	rec, body := do(t, h, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])

	rec, body = do(t, h, httptest.NewRequest(http.MethodGet, "/api/formats", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["rows"], len(formats.All))
}

func TestUploadAndAutoReconcile(t *testing.T) {
	h := newTestRouter()

	rec, body := upload(t, h, "bank", "", bankCSV)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 2, body["transaction_count"])
	assert.EqualValues(t, 1, body["excluded"])

	rec, _ = upload(t, h, "accounting", string(formats.GenericLedger), ledgerCSV)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, body = postJSON(t, h, "/api/transactions/reconcile/auto", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["matched_pairs"], 1)

	rec, body = postJSON(t, h, "/api/transactions/reconcile/auto", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, body["matched_pairs"])

	rec, body = do(t, h, httptest.NewRequest(http.MethodGet, "/api/transactions/initial", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["bank_transactions"], 1)
	assert.Len(t, body["accounting_transactions"], 2)
}

func TestUploadSameFileKeepsPairs(t *testing.T) {
	h := newTestRouter()
	loadBoth(t, h)
	postJSON(t, h, "/api/transactions/reconcile/auto", nil)

	rec, body := upload(t, h, "bank", string(formats.BancolombiaStatement), bankCSV)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, body["replaced"])

	_, body = do(t, h, httptest.NewRequest(http.MethodGet, "/api/transactions/matched", nil))
	assert.Len(t, body["rows"], 1)
}

func TestUploadErrors(t *testing.T) {
	h := newTestRouter()

	rec, _ := upload(t, h, "ledger", "", bankCSV)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = upload(t, h, "bank", "nope", bankCSV)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = upload(t, h, "bank", string(formats.SiesaAuxiliary), bankCSV)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, body := upload(t, h, "bank", "", "a,b,c\n")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, false, body["success"])
	assert.Contains(t, body["error"], "column count mismatch")
}

func TestManualReconcileFlow(t *testing.T) {
	h := newTestRouter()
	loadBoth(t, h)

	_, body := do(t, h, httptest.NewRequest(http.MethodGet, "/api/transactions/initial", nil))
	bank := body["bank_transactions"].([]interface{})
	acc := body["accounting_transactions"].([]interface{})
	idOf := func(v interface{}) string { return v.(map[string]interface{})["id"].(string) }

	// ABONO 300.00 settled by RC-2 (100) and RC-3 (195): off by 5.00
	rec, body := postJSON(t, h, "/api/transactions/reconcile/manual/many_to_one", map[string]interface{}{
		"bank_transaction_id":        idOf(bank[1]),
		"accounting_transaction_ids": []string{idOf(acc[1]), idOf(acc[2])},
	})
	require.Equal(t, http.StatusOK, rec.Code, body)
	assert.Len(t, body["matched_pairs_created"], 2)
	assert.NotEmpty(t, body["warning"])
	assert.Equal(t, "5.00", body["difference"])

	rec, _ = postJSON(t, h, "/api/transactions/reconcile/manual", map[string]string{
		"bank_transaction_id":       idOf(bank[0]),
		"accounting_transaction_id": idOf(acc[1]),
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec, _ = postJSON(t, h, "/api/transactions/reconcile/manual", map[string]string{
		"bank_transaction_id":       "missing",
		"accounting_transaction_id": idOf(acc[0]),
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, body = postJSON(t, h, "/api/transactions/reconcile/manual", map[string]string{
		"bank_transaction_id":       idOf(bank[0]),
		"accounting_transaction_id": idOf(acc[0]),
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotNil(t, body["matched_pair"])
	assert.Empty(t, body["warning"])

	rec, body = postJSON(t, h, "/api/transactions/reconcile/reset", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 3, body["removed"])
}

func TestClearDataNeedsConfirmation(t *testing.T) {
	h := newTestRouter()
	loadBoth(t, h)

	rec, _ := postJSON(t, h, "/api/admin/clear_data", map[string]bool{"confirm": false})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = postJSON(t, h, "/api/admin/clear_data", map[string]bool{"confirm": true})
	assert.Equal(t, http.StatusOK, rec.Code)

	_, body := do(t, h, httptest.NewRequest(http.MethodGet, "/api/transactions/initial", nil))
	assert.Empty(t, body["bank_transactions"])
}

func TestExportWorkbook(t *testing.T) {
	h := newTestRouter()
	loadBoth(t, h)
	postJSON(t, h, "/api/transactions/reconcile/auto", nil)

	rec, _ := do(t, h, httptest.NewRequest(http.MethodGet, "/api/transactions/export", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, constants.ContentTypeXLSX, rec.Header().Get(constants.ContentTypeText))

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Matched")
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestOneToManyReconcile(t *testing.T) {
	h := newTestRouter()
	loadBoth(t, h)

	_, body := do(t, h, httptest.NewRequest(http.MethodGet, "/api/transactions/initial", nil))
	bank := body["bank_transactions"].([]interface{})
	acc := body["accounting_transactions"].([]interface{})
	idOf := func(v interface{}) string { return v.(map[string]interface{})["id"].(string) }

	rec, body := postJSON(t, h, "/api/transactions/reconcile/manual/one_to_many", map[string]interface{}{
		"accounting_transaction_id": idOf(acc[0]),
		"bank_transaction_ids":      []string{idOf(bank[0]), idOf(bank[1])},
	})
	require.Equal(t, http.StatusOK, rec.Code, body)
	assert.Equal(t, "one_to_many", body["shape"])
	assert.Len(t, body["matched_pairs_created"], 2)
	assert.Equal(t, "300.00", body["difference"])
	assert.NotEmpty(t, body["warning"])

	rec, _ = postJSON(t, h, "/api/transactions/reconcile/manual/one_to_many", map[string]interface{}{
		"accounting_transaction_id": idOf(acc[1]),
		"bank_transaction_ids":      []string{idOf(bank[1])},
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestUploadReportsLoadedRecords(t *testing.T) {
	state := reconcile.New()
	pipeline := ingest.New()

	first, err := pipeline.Ingest([]byte(bankCSV), formats.BancolombiaStatement)
	require.NoError(t, err)
	replaced, err := state.Replace(first)
	require.NoError(t, err)
	require.True(t, replaced)
	assert.Equal(t, first.Records, reportedRecords(state, first, replaced))

	// same file parsed again gets fresh ids that are never loaded
	second, err := pipeline.Ingest([]byte(bankCSV), formats.BancolombiaStatement)
	require.NoError(t, err)
	replaced, err = state.Replace(second)
	require.NoError(t, err)
	require.False(t, replaced)

	got := reportedRecords(state, second, replaced)
	require.Len(t, got, len(first.Records))
	for i := range got {
		assert.Equal(t, first.Records[i].ID, got[i].ID)
		assert.NotEqual(t, second.Records[i].ID, got[i].ID)
	}
}
