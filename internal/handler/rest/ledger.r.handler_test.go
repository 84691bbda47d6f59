package hrest

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"ledger-service/internal/domain"
	"ledger-service/internal/repository/memory"
	"ledger-service/internal/usecase"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustDecimal(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	store := memory.NewStore()
	policy := domain.NewMirrorPolicy(
		[]domain.Scope{domain.ScopeHospital},
		map[domain.Scope][]domain.TransactionKind{
			domain.ScopeHospital: {domain.KindIncome},
		},
	)
	postingUC := usecase.NewPostingUsecase(store, policy, nil, nil)
	reportUC := usecase.NewReportUsecase(store, nil)
	handler := NewLedgerRestHandler(postingUC, reportUC)

	srv := httptest.NewServer(handler.Handler())
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, srv *httptest.Server, path string, body interface{}) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(srv.URL+path, "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	defer resp.Body.Close()
	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestCreatePostingAndGetBalance(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv, "/ledger/postings", PostingJSON{
		Scope:      "hospital",
		Kind:       "income",
		Amount:     mustDecimal(t, "500.00"),
		Category:   "consultation",
		OccurredOn: "2024-01-10",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "success", body["status"])

	data := body["data"].(map[string]interface{})
	txn := data["transaction"].(map[string]interface{})
	assert.Equal(t, "HOS-INC-20240110-0001", txn["transaction_no"])
	require.NotNil(t, data["voucher"])

	getResp, err := http.Get(srv.URL + "/ledger/balances/hospital")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, getResp.StatusCode)
	getBody := decodeBody(t, getResp)
	balanceData := getBody["data"].(map[string]interface{})
	assert.Equal(t, "500", balanceData["balance"])
}

func TestCreatePostingValidationErrors(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv, "/ledger/postings", PostingJSON{
		Scope:      "pharmacy",
		Kind:       "income",
		Amount:     mustDecimal(t, "10.00"),
		OccurredOn: "2024-01-10",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	resp = postJSON(t, srv, "/ledger/postings", PostingJSON{
		Scope:      "hospital",
		Kind:       "expense",
		Amount:     mustDecimal(t, "100.00"),
		Category:   "supplies",
		OccurredOn: "2024-01-10",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	resp.Body.Close()

	resp = postJSON(t, srv, "/ledger/postings", PostingJSON{
		Scope:      "hospital",
		Kind:       "income",
		Amount:     mustDecimal(t, "10.00"),
		OccurredOn: "10/01/2024",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestMonthlyReportEndpoint(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv, "/ledger/postings", PostingJSON{
		Scope:      "hospital",
		Kind:       "income",
		Amount:     mustDecimal(t, "800.00"),
		Category:   "consultation",
		OccurredOn: "2024-01-10",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	getResp, err := http.Get(srv.URL + "/ledger/reports/monthly?scope=hospital&month=2024-01")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, getResp.StatusCode)
	body := decodeBody(t, getResp)
	report := body["data"].(map[string]interface{})
	assert.Equal(t, "800", report["income"])
	assert.Equal(t, "800", report["profit"])

	badResp, err := http.Get(srv.URL + "/ledger/reports/monthly?scope=hospital&month=January")
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, badResp.StatusCode)
	badResp.Body.Close()
}

func TestFindByReferenceEndpoint(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv, "/ledger/postings", PostingJSON{
		Scope:      "optics",
		Kind:       "income",
		Amount:     mustDecimal(t, "75.50"),
		Category:   "frames",
		OccurredOn: "2024-02-01",
		RefType:    "invoice",
		RefID:      "INV-100",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	found, err := http.Get(srv.URL + "/ledger/transactions/by-ref?scope=optics&ref_type=invoice&ref_id=INV-100")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, found.StatusCode)
	body := decodeBody(t, found)
	txn := body["data"].(map[string]interface{})
	assert.Equal(t, "OPT-INC-20240201-0001", txn["transaction_no"])

	missing, err := http.Get(srv.URL + "/ledger/transactions/by-ref?scope=optics&ref_type=invoice&ref_id=INV-999")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, missing.StatusCode)
	missing.Body.Close()
}

func TestListVouchersEndpoint(t *testing.T) {
	srv := newTestServer(t)

	for _, amount := range []string{"500.00", "300.00"} {
		resp := postJSON(t, srv, "/ledger/postings", PostingJSON{
			Scope:      "hospital",
			Kind:       "income",
			Amount:     mustDecimal(t, amount),
			Category:   "consultation",
			OccurredOn: "2024-01-10",
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		resp.Body.Close()
	}

	resp, err := http.Get(srv.URL + "/ledger/vouchers?source_scope=hospital")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	vouchers := body["data"].([]interface{})
	// Same-day income aggregates into one voucher.
	require.Len(t, vouchers, 1)
	voucher := vouchers[0].(map[string]interface{})
	assert.Equal(t, "800", voucher["amount"])
}
