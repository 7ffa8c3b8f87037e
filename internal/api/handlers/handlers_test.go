package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/zeninapp/zenin-ingest/internal/archive"
	"github.com/zeninapp/zenin-ingest/internal/feed/inmemory"
	"github.com/zeninapp/zenin-ingest/internal/session"
	"github.com/zeninapp/zenin-ingest/internal/store"
)

func TestParseHandler_FinancialText(t *testing.T) {
	h := NewParseHandler(zerolog.Nop())

	body := `{"text": "Rs.500.00 debited from A/c XX1234 on 01-01-24 to Swiggy"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/parse", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.Parse(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]interface{}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["financial"])
	assert.Equal(t, true, resp["parsed"])

	draft, ok := resp["draft"].(map[string]interface{})
	if assert.True(t, ok, "expected draft object") {
		assert.Equal(t, "expense", draft["direction"])
		assert.Equal(t, "Swiggy", draft["merchant_hint"])
	}
}

func TestParseHandler_NonFinancialText(t *testing.T) {
	h := NewParseHandler(zerolog.Nop())

	body := `{"text": "Your OTP is 432112, do not share"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/parse", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.Parse(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]interface{}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, false, resp["financial"])
}

func TestNotificationsHandler_IngestValidation(t *testing.T) {
	q := inmemory.NewQueue(1, 1)
	defer q.Close()
	h := NewNotificationsHandler(q, archive.NewMemoryArchive(), zerolog.Nop())

	req := httptest.NewRequest(http.MethodPost, "/v1/notifications", strings.NewReader(`{"title": "Bank"}`))
	rec := httptest.NewRecorder()

	h.Ingest(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestNotificationsHandler_IngestEnqueues(t *testing.T) {
	q := inmemory.NewQueue(1, 1)
	defer q.Close()
	h := NewNotificationsHandler(q, archive.NewMemoryArchive(), zerolog.Nop())

	body := `{"title": "HDFC Bank", "text": "Rs.500 debited", "packageName": "com.hdfc.bank"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/notifications", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.Ingest(rec, req)

	assert.Equal(t, http.StatusAccepted, rec.Code)

	var resp map[string]string
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp["delivery_id"])
}

func TestNotificationsHandler_LastEmpty(t *testing.T) {
	q := inmemory.NewQueue(1, 1)
	defer q.Close()
	h := NewNotificationsHandler(q, archive.NewMemoryArchive(), zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, "/v1/notifications/last", nil)
	rec := httptest.NewRecorder()

	h.Last(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTransactionsHandler_ListUnauthorized(t *testing.T) {
	h := NewTransactionsHandler(store.NewMemoryStore(), session.NewStaticResolver(""), zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, "/v1/transactions", nil)
	rec := httptest.NewRecorder()

	h.List(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestTransactionsHandler_ListEmpty(t *testing.T) {
	h := NewTransactionsHandler(store.NewMemoryStore(), session.NewStaticResolver("user-1"), zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, "/v1/transactions", nil)
	rec := httptest.NewRecorder()

	h.List(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]interface{}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, float64(0), resp["count"])
}
