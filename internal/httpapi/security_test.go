package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"comanda/backend/internal/domain"
	"comanda/backend/internal/store"
)

// fetchCSRFToken calls the CSRF token endpoint and returns the token string.
func fetchCSRFToken(t *testing.T, api *API) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/csrf-token", nil)
	res := httptest.NewRecorder()
	api.Handler().ServeHTTP(res, req)
	if res.Code != http.StatusOK {
		t.Fatalf("csrf-token endpoint returned status %d", res.Code)
	}
	var body struct {
		Token string `json:"csrf_token"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil || body.Token == "" {
		t.Fatalf("decode csrf token: %v", err)
	}
	return body.Token
}

func TestMiddlewareSetsSecurityHeaders(t *testing.T) {
	api := newTestAPI(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	res := httptest.NewRecorder()

	api.Handler().ServeHTTP(res, req)

	if got := res.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Fatalf("expected X-Content-Type-Options nosniff, got %q", got)
	}
	if got := res.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Fatalf("expected X-Frame-Options DENY, got %q", got)
	}
	if got := res.Header().Get("Referrer-Policy"); got == "" {
		t.Fatalf("expected Referrer-Policy to be set")
	}
}

func TestPreflightReturnsNoContent(t *testing.T) {
	api := newTestAPI(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/cart/items", nil)
	res := httptest.NewRecorder()

	api.Handler().ServeHTTP(res, req)

	if res.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", res.Code)
	}
	if got := res.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("expected allowed origin *, got %q", got)
	}
}

func TestPINRateLimitReturns429(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()

	for i := 0; i < 9; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/pin", strings.NewReader(`{"pin":"1234"}`))
		req.Header.Set("Content-Type", "application/json")
		req.RemoteAddr = "127.0.0.1:5000"
		res := httptest.NewRecorder()

		handler.ServeHTTP(res, req)

		if i < 8 && res.Code != http.StatusUnauthorized {
			t.Fatalf("attempt %d expected 401 before limit, got %d", i+1, res.Code)
		}
		if i == 8 && res.Code != http.StatusTooManyRequests {
			t.Fatalf("attempt 9 expected 429, got %d", res.Code)
		}
	}
}

func TestJSONBodyTooLargeRejected(t *testing.T) {
	api := newTestAPI(t)
	veryLong := strings.Repeat("a", (1<<20)+1024)
	body := fmt.Sprintf(`{"notes":"%s"}`, veryLong)

	req := httptest.NewRequest(http.MethodPut, "/api/v1/cart/notes", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-CSRF-Token", fetchCSRFToken(t, api))
	res := httptest.NewRecorder()

	api.Handler().ServeHTTP(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for too large body, got %d", res.Code)
	}
}

func TestUnknownFieldsRejected(t *testing.T) {
	api := newTestAPI(t)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/day/open", strings.NewReader(`{"opening_balance":10,"float":5}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-CSRF-Token", fetchCSRFToken(t, api))
	res := httptest.NewRecorder()

	api.Handler().ServeHTTP(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown field, got %d", res.Code)
	}
}

func TestInvalidBearerTokenRejected(t *testing.T) {
	api := newTestAPI(t)

	for _, header := range []string{"Bearer not-a-token", "Basic abc"} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/session", nil)
		req.Header.Set("Authorization", header)
		res := httptest.NewRecorder()

		api.Handler().ServeHTTP(res, req)

		if res.Code != http.StatusUnauthorized {
			t.Fatalf("%q: expected 401, got %d", header, res.Code)
		}
	}
}

func TestInternalErrorsStayGeneric(t *testing.T) {
	res := httptest.NewRecorder()
	writeFailure(res, errors.New("pq: connection refused on 10.0.0.3"))

	if res.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", res.Code)
	}
	if strings.Contains(res.Body.String(), "10.0.0.3") {
		t.Fatalf("internal detail leaked: %s", res.Body.String())
	}
}

func TestStatusForFailures(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{domain.Fail(domain.ReasonForbidden, ""), http.StatusForbidden},
		{domain.Fail(domain.ReasonInvalidPIN, ""), http.StatusUnauthorized},
		{domain.Fail(domain.ReasonOrderNotFound, "order 7"), http.StatusNotFound},
		{domain.Fail(domain.ReasonOpenOrdersRemain, ""), http.StatusConflict},
		{domain.Fail(domain.ReasonSplitMismatch, ""), http.StatusUnprocessableEntity},
		{fmt.Errorf("shift x: %w", store.ErrNotFound), http.StatusNotFound},
	}
	for _, tc := range cases {
		if got := statusFor(tc.err); got != tc.want {
			t.Fatalf("%v: expected %d, got %d", tc.err, tc.want, got)
		}
	}
}

func TestParsePositiveLimitCapsValues(t *testing.T) {
	if got := parsePositiveLimit("", 100, 1000); got != 100 {
		t.Fatalf("expected fallback 100, got %d", got)
	}
	if got := parsePositiveLimit("-5", 100, 1000); got != 100 {
		t.Fatalf("expected fallback for negative, got %d", got)
	}
	if got := parsePositiveLimit("5000", 100, 1000); got != 1000 {
		t.Fatalf("expected cap 1000, got %d", got)
	}
	if got := parsePositiveLimit("25", 100, 1000); got != 25 {
		t.Fatalf("expected 25, got %d", got)
	}
}

func TestClientKeyStripsPort(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.168.1.20:51234"
	if got := clientKey(req); got != "192.168.1.20" {
		t.Fatalf("expected host only, got %q", got)
	}
}

func TestCrossSiteFormPostCannotUseSessionRole(t *testing.T) {
	api := newTestAPI(t)
	unlock(t, api, "0001")
	expectStatus(t, doJSON(t, api, http.MethodPost, "/api/v1/day/open", map[string]float64{"opening_balance": 0}, ""), http.StatusCreated)

	forged := []struct {
		path string
		body string
	}{
		{"/api/v1/cash/manual-income", `{"amount":500,"method":"cash","description":"x"}=`},
		{"/api/v1/day/close", `{"customer_names":{}}=`},
	}
	for _, f := range forged {
		req := httptest.NewRequest(http.MethodPost, f.path, strings.NewReader(f.body))
		req.Header.Set("Content-Type", "text/plain")
		req.Header.Set("Origin", "https://evil.example")
		res := httptest.NewRecorder()

		api.Handler().ServeHTTP(res, req)

		if res.Code != http.StatusForbidden {
			t.Fatalf("%s: expected 403 without CSRF token, got %d", f.path, res.Code)
		}
	}

	token := unlock(t, api, "0001")
	rec := doJSON(t, api, http.MethodGet, "/api/v1/transactions", nil, token)
	expectStatus(t, rec, http.StatusOK)
	var txs struct {
		Transactions []domain.Transaction `json:"transactions"`
	}
	decodeBody(t, rec, &txs)
	if len(txs.Transactions) != 0 {
		t.Fatalf("expected no transactions, got %+v", txs.Transactions)
	}
	rec = doJSON(t, api, http.MethodGet, "/api/v1/day/active", nil, token)
	expectStatus(t, rec, http.StatusOK)
	var active struct {
		Shift *domain.ShiftReport `json:"shift"`
	}
	decodeBody(t, rec, &active)
	if active.Shift == nil {
		t.Fatalf("expected the shift to stay open")
	}
}

func TestNonJSONBodyRejected(t *testing.T) {
	api := newTestAPI(t)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/day/open", strings.NewReader(`{"opening_balance":10}`))
	req.Header.Set("Content-Type", "text/plain")
	req.Header.Set("X-CSRF-Token", fetchCSRFToken(t, api))
	res := httptest.NewRecorder()

	api.Handler().ServeHTTP(res, req)

	if res.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("expected 415 for text/plain body, got %d", res.Code)
	}
}

func TestTrailingJSONDataRejected(t *testing.T) {
	api := newTestAPI(t)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/day/open", strings.NewReader(`{"opening_balance":10}=`))
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("X-CSRF-Token", fetchCSRFToken(t, api))
	res := httptest.NewRecorder()

	api.Handler().ServeHTTP(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for trailing data, got %d", res.Code)
	}
}

func TestCSRFTokenValidation(t *testing.T) {
	api := newTestAPI(t)
	if api.validateCSRFToken("") {
		t.Fatalf("empty token must not validate")
	}
	if !api.validateCSRFToken(api.generateCSRFToken()) {
		t.Fatalf("fresh token must validate")
	}
	previous := api.csrfTokenForHour(time.Now().UTC().Truncate(time.Hour).Unix() - 3600)
	if !api.validateCSRFToken(previous) {
		t.Fatalf("previous hour token must validate")
	}
	stale := api.csrfTokenForHour(time.Now().UTC().Truncate(time.Hour).Unix() - 3*3600)
	if api.validateCSRFToken(stale) {
		t.Fatalf("token older than two hours must not validate")
	}
}
