package httpapi

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"mime"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"comanda/backend/internal/domain"
	"comanda/backend/internal/orders"
	"comanda/backend/internal/reporting"
	"comanda/backend/internal/service"
	"comanda/backend/internal/store"
)

// API exposes one terminal over HTTP. Requests without a bearer token act as
// the terminal's own session; a token from /auth/pin carries an unlocked role.
// Because the session role is ambient, mutating calls that rely on it must
// carry an X-CSRF-Token.
type API struct {
	service       *service.Service
	terminal      *service.Terminal
	auth          *AuthManager
	allowedOrigin string
	pinLimiter    *attemptLimiter
	csrfSecret    []byte
}

var (
	errUnsupportedMediaType = errors.New("request body must be application/json")
	errTrailingData         = errors.New("request body must contain a single JSON value")
)

func New(svc *service.Service, terminal *service.Terminal, auth *AuthManager, allowedOrigin string) *API {
	csrfSecret := make([]byte, 32)
	if _, err := rand.Read(csrfSecret); err != nil {
		log.Printf("[httpapi] WARN: crypto/rand failed, CSRF secret derived from the auth secret: %v", err)
		sum := sha256.Sum256(append([]byte("csrf:"), auth.secret...))
		csrfSecret = sum[:]
	}
	return &API{
		service:       svc,
		terminal:      terminal,
		auth:          auth,
		allowedOrigin: allowedOrigin,
		pinLimiter:    newAttemptLimiter(8, time.Minute),
		csrfSecret:    csrfSecret,
	}
}

// csrfTokenForHour is the hex HMAC of an hour bucket (Unix seconds truncated
// to the hour).
func (a *API) csrfTokenForHour(hourBucket int64) string {
	h := hmac.New(sha256.New, a.csrfSecret)
	fmt.Fprintf(h, "%d", hourBucket)
	return hex.EncodeToString(h.Sum(nil))
}

func (a *API) generateCSRFToken() string {
	return a.csrfTokenForHour(time.Now().UTC().Truncate(time.Hour).Unix())
}

// validateCSRFToken accepts the current and the previous hour's token.
func (a *API) validateCSRFToken(token string) bool {
	if token == "" {
		return false
	}
	current := time.Now().UTC().Truncate(time.Hour).Unix()
	return hmac.Equal([]byte(token), []byte(a.csrfTokenForHour(current))) ||
		hmac.Equal([]byte(token), []byte(a.csrfTokenForHour(current-3600)))
}

// csrfExemptPaths are called before a client can hold a token. The PIN
// itself is the proof there.
var csrfExemptPaths = []string{
	"/api/v1/auth/pin",
}

func mutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// checkCSRF guards state-changing requests that act as the terminal session.
func (a *API) checkCSRF(w http.ResponseWriter, r *http.Request) bool {
	if !mutating(r.Method) {
		return true
	}
	for _, exempt := range csrfExemptPaths {
		if r.URL.Path == exempt {
			return true
		}
	}
	if !a.validateCSRFToken(strings.TrimSpace(r.Header.Get("X-CSRF-Token"))) {
		writeError(w, http.StatusForbidden, errors.New("missing or invalid CSRF token"))
		return false
	}
	return true
}

type attemptLimiter struct {
	mu      sync.Mutex
	max     int
	window  time.Duration
	entries map[string][]time.Time
}

func newAttemptLimiter(max int, window time.Duration) *attemptLimiter {
	if max < 1 {
		max = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &attemptLimiter{max: max, window: window, entries: make(map[string][]time.Time)}
}

func (l *attemptLimiter) Allow(key string) bool {
	if l == nil {
		return true
	}
	now := time.Now()
	cutoff := now.Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	history := l.entries[key]
	kept := make([]time.Time, 0, len(history)+1)
	for _, ts := range history {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	if len(kept) >= l.max {
		l.entries[key] = kept
		return false
	}
	kept = append(kept, now)
	l.entries[key] = kept
	return true
}

func clientKey(r *http.Request) string {
	host := strings.TrimSpace(r.RemoteAddr)
	if host == "" {
		return "unknown"
	}
	if addr, err := netip.ParseAddrPort(host); err == nil {
		return addr.Addr().String()
	}
	if idx := strings.LastIndex(host, ":"); idx > 0 {
		return host[:idx]
	}
	return host
}

func (a *API) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(a.withMiddleware)

	r.Get("/healthz", a.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(a.withActor)

		r.Get("/auth/csrf-token", a.handleCSRFToken)
		r.Post("/auth/pin", a.handleUnlock)
		r.Post("/auth/lock", a.handleLock)

		r.Get("/session", a.handleSession)
		r.Post("/session/waiter", a.handleSelectWaiter)
		r.Post("/session/table", a.handleSelectTable)
		r.Post("/session/logout", a.handleLogout)

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", a.handleCart)
			r.Post("/items", a.handleAddItem)
			r.Patch("/items/{lineID}", a.handleUpdateLine)
			r.Delete("/items/{lineID}", a.handleRemoveLine)
			r.Put("/notes", a.handleNotes)
			r.Post("/hold", a.handleHold)
			r.Post("/submit", a.handleSubmit)
		})

		r.Get("/held", a.handleHeldOrders)
		r.Post("/held/resume", a.handleResumeHeld)
		r.Post("/held/discard", a.handleDiscardHeld)

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", a.handleOrders)
			r.Get("/{id}", a.handleOrder)
			r.Post("/{id}/status", a.handleAdvanceOrder)
			r.Post("/{id}/cancel", a.handleCancelOrder)
			r.Post("/{id}/pay", a.handlePayOrder)
			r.Post("/{id}/reopen", a.handleReopenOrder)
			r.Get("/{id}/receipt", a.handleReceipt)
		})
		r.Get("/credit", a.handleCreditOrders)

		r.Post("/day/open", a.handleOpenDay)
		r.Get("/day/active", a.handleActiveDay)
		r.Get("/day/open-orders", a.handleOpenOrdersForClose)
		r.Post("/day/close", a.handleCloseDay)

		r.Post("/cash/manual-income", a.handleManualIncome)
		r.Post("/cash/drawer/open", a.handleOpenDrawer)
		r.Get("/transactions", a.handleTransactions)

		r.Get("/inventory", a.handleInventory)
		r.Post("/inventory/{id}/restock", a.handleRestock)

		r.Get("/reports/dashboard", a.handleDashboard)
		r.Get("/reports/daily", a.handleDailyReport)
		r.Get("/reports/manager", a.handleManagerOverview)
		r.Get("/reports/cash", a.handleCashSummary)
		r.Get("/reports/shifts", a.handleClosedShifts)
		r.Get("/reports/shifts/{id}", a.handleShiftSummary)

		r.Get("/menu", a.handleMenu)
		r.Get("/categories", a.handleCategories)
		r.Get("/waiters", a.handleWaiters)
		r.Get("/layout", a.handleLayout)
	})

	return r
}

// withActor puts the acting operator into the request context: the bearer
// token's role when present, otherwise the terminal session.
func (a *API) withActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authorization := strings.TrimSpace(r.Header.Get("Authorization"))
		if authorization == "" {
			if !a.checkCSRF(w, r) {
				return
			}
			next.ServeHTTP(w, r.WithContext(a.terminal.Context(r.Context())))
			return
		}
		if !strings.HasPrefix(strings.ToLower(authorization), "bearer ") {
			writeError(w, http.StatusUnauthorized, errors.New("malformed authorization header"))
			return
		}

		token := strings.TrimSpace(authorization[len("Bearer "):])
		actor, err := a.auth.ParseToken(token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(service.WithActor(r.Context(), actor)))
	})
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ok": true,
		"at": time.Now().UTC().Format(time.RFC3339),
	})
}

// handleCSRFToken hands out the token session-role clients send in
// X-CSRF-Token on every mutating call.
func (a *API) handleCSRFToken(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"csrf_token": a.generateCSRFToken(),
	})
}

func (a *API) handleUnlock(w http.ResponseWriter, r *http.Request) {
	if !a.pinLimiter.Allow(clientKey(r)) {
		writeError(w, http.StatusTooManyRequests, errors.New("too many PIN attempts"))
		return
	}

	var req struct {
		PIN string `json:"pin"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	role, err := a.terminal.Unlock(r.Context(), req.PIN)
	if err != nil {
		writeFailure(w, err)
		return
	}
	resp, err := a.auth.Issue(a.terminal.Session().WaiterID, role)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *API) handleLock(w http.ResponseWriter, r *http.Request) {
	if err := a.terminal.Lock(r.Context()); err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"session": a.terminal.Session()})
}

func (a *API) handleSession(w http.ResponseWriter, r *http.Request) {
	session := a.terminal.Session()
	writeJSON(w, http.StatusOK, map[string]any{
		"session":      session,
		"capabilities": session.Role.Capabilities(),
	})
}

func (a *API) handleSelectWaiter(w http.ResponseWriter, r *http.Request) {
	var req struct {
		WaiterID string `json:"waiter_id"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}
	if err := a.terminal.SelectWaiter(r.Context(), strings.TrimSpace(req.WaiterID)); err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"session": a.terminal.Session()})
}

func (a *API) handleSelectTable(w http.ResponseWriter, r *http.Request) {
	var req domain.TableRef
	if err := decodeJSON(r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}
	held, err := a.terminal.SelectTable(r.Context(), req)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"session":    a.terminal.Session(),
		"held_order": held,
	})
}

func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := a.terminal.Logout(r.Context()); err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"session": a.terminal.Session()})
}

func (a *API) handleCart(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.terminal.Cart())
}

func (a *API) handleAddItem(w http.ResponseWriter, r *http.Request) {
	var req struct {
		MenuItemID         string              `json:"menu_item_id"`
		Customizations     map[string][]string `json:"customizations"`
		RemovedIngredients []string            `json:"removed_ingredients"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}
	line, err := a.terminal.AddItem(r.Context(), req.MenuItemID, orders.Selection(req.Customizations), req.RemovedIngredients)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"line": line, "cart": a.terminal.Cart()})
}

func (a *API) handleUpdateLine(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Quantity *int     `json:"quantity"`
		Discount *float64 `json:"discount"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}
	lineID := chi.URLParam(r, "lineID")
	if req.Quantity != nil {
		if err := a.terminal.UpdateQuantity(lineID, *req.Quantity); err != nil {
			writeFailure(w, err)
			return
		}
	}
	if req.Discount != nil {
		if err := a.terminal.SetItemDiscount(lineID, *req.Discount); err != nil {
			writeFailure(w, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, a.terminal.Cart())
}

func (a *API) handleRemoveLine(w http.ResponseWriter, r *http.Request) {
	if err := a.terminal.RemoveItem(chi.URLParam(r, "lineID")); err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a.terminal.Cart())
}

func (a *API) handleNotes(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Notes string `json:"notes"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}
	a.terminal.SetNotes(req.Notes)
	writeJSON(w, http.StatusOK, a.terminal.Cart())
}

func (a *API) handleHold(w http.ResponseWriter, r *http.Request) {
	held, err := a.terminal.Hold(r.Context())
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"held_order": held})
}

func (a *API) handleSubmit(w http.ResponseWriter, r *http.Request) {
	order, err := a.terminal.Submit(r.Context())
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"order": order})
}

func (a *API) handleHeldOrders(w http.ResponseWriter, r *http.Request) {
	held, err := a.service.HeldOrders(r.Context())
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"held_orders": held})
}

func (a *API) handleResumeHeld(w http.ResponseWriter, r *http.Request) {
	held, err := a.terminal.ResumeHeld(r.Context())
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"held_order": held, "cart": a.terminal.Cart()})
}

func (a *API) handleDiscardHeld(w http.ResponseWriter, r *http.Request) {
	if err := a.terminal.DiscardHeldAndStart(r.Context()); err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a.terminal.Cart())
}

func (a *API) handleOrders(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := service.OrderFilter{CurrentShift: query.Get("shift") == "current"}
	if raw := strings.TrimSpace(query.Get("status")); raw != "" {
		for _, status := range strings.Split(raw, ",") {
			filter.Statuses = append(filter.Statuses, domain.OrderStatus(strings.TrimSpace(status)))
		}
	}
	if rawTable := query.Get("table"); rawTable != "" {
		number, err := strconv.Atoi(rawTable)
		if err != nil {
			writeError(w, http.StatusBadRequest, errors.New("table must be a number"))
			return
		}
		filter.Table = &domain.TableRef{Number: number, Area: domain.Area(query.Get("area"))}
	}

	list, err := a.service.Orders(r.Context(), filter)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"orders": list})
}

func (a *API) handleOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}
	order, err := a.service.Order(r.Context(), id)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"order": order})
}

func (a *API) handleAdvanceOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}
	var req struct {
		Status domain.OrderStatus `json:"status"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}
	order, err := a.service.AdvanceOrder(r.Context(), id, req.Status)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"order": order})
}

func (a *API) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}
	order, err := a.service.CancelOrder(r.Context(), id)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"order": order})
}

func (a *API) handlePayOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}
	var req domain.PaymentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}
	settlement, err := a.service.PayOrder(r.Context(), id, req)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, settlement)
}

func (a *API) handleReopenOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}
	order, err := a.terminal.AddToExistingOrder(r.Context(), id)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"reopened": order, "cart": a.terminal.Cart()})
}

func (a *API) handleReceipt(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}
	receipt, err := a.service.Receipt(r.Context(), id)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, receipt)
}

func (a *API) handleCreditOrders(w http.ResponseWriter, r *http.Request) {
	list, err := a.service.CreditOrders(r.Context())
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"orders": list})
}

func (a *API) handleOpenDay(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OpeningBalance float64 `json:"opening_balance"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}
	shift, err := a.service.OpenDay(r.Context(), req.OpeningBalance)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"shift": shift})
}

func (a *API) handleActiveDay(w http.ResponseWriter, r *http.Request) {
	shift, ok, err := a.service.ActiveShift(r.Context())
	if err != nil {
		writeFailure(w, err)
		return
	}
	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{"shift": nil})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"shift": shift})
}

func (a *API) handleOpenOrdersForClose(w http.ResponseWriter, r *http.Request) {
	open, err := a.service.OpenOrdersForClose(r.Context())
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"orders": open})
}

func (a *API) handleCloseDay(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CustomerNames map[int64]string `json:"customer_names"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}
	shift, err := a.service.CloseDay(r.Context(), req.CustomerNames)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"shift": shift})
}

func (a *API) handleManualIncome(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Amount      float64       `json:"amount"`
		Description string        `json:"description"`
		Method      domain.Tender `json:"method"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}
	tx, err := a.service.RecordManualIncome(r.Context(), req.Amount, strings.TrimSpace(req.Description), req.Method)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"transaction": tx})
}

func (a *API) handleOpenDrawer(w http.ResponseWriter, r *http.Request) {
	if err := a.service.OpenDrawer(r.Context()); err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (a *API) handleTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := a.service.Transactions(r.Context())
	if err != nil {
		writeFailure(w, err)
		return
	}
	limit := parsePositiveLimit(r.URL.Query().Get("limit"), 100, 1000)
	if len(txs) > limit {
		txs = txs[:limit]
	}
	writeJSON(w, http.StatusOK, map[string]any{"transactions": txs})
}

func (a *API) handleInventory(w http.ResponseWriter, r *http.Request) {
	levels, err := a.service.Inventory(r.Context())
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"inventory": levels})
}

func (a *API) handleRestock(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Units float64 `json:"units"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}
	item, err := a.service.Restock(r.Context(), chi.URLParam(r, "id"), req.Units)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"item": item})
}

func (a *API) handleDashboard(w http.ResponseWriter, r *http.Request) {
	dashboard, err := a.service.Dashboard(r.Context())
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dashboard)
}

func (a *API) handleDailyReport(w http.ResponseWriter, r *http.Request) {
	report, err := a.service.DailyReport(r.Context())
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (a *API) handleManagerOverview(w http.ResponseWriter, r *http.Request) {
	overview, err := a.service.ManagerOverview(r.Context())
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, overview)
}

func (a *API) handleCashSummary(w http.ResponseWriter, r *http.Request) {
	period := reporting.Period(strings.TrimSpace(r.URL.Query().Get("period")))
	if period == "" {
		period = reporting.PeriodDay
	}
	summary, err := a.service.CashSummary(r.Context(), period)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (a *API) handleClosedShifts(w http.ResponseWriter, r *http.Request) {
	shifts, err := a.service.ClosedShifts(r.Context())
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"shifts": shifts})
}

func (a *API) handleShiftSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := a.service.ShiftSummary(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (a *API) handleMenu(w http.ResponseWriter, r *http.Request) {
	items, err := a.service.Menu(r.Context())
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"menu_items": items})
}

func (a *API) handleCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := a.service.Categories(r.Context())
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"categories": categories})
}

func (a *API) handleWaiters(w http.ResponseWriter, r *http.Request) {
	waiters, err := a.service.Waiters(r.Context())
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"waiters": waiters})
}

func (a *API) handleLayout(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"areas":    a.service.Layout(),
		"tax_rate": a.service.TaxRate(),
	})
}

func (a *API) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Cross-Origin-Opener-Policy", "same-origin")
		w.Header().Set("Access-Control-Allow-Origin", a.allowedOrigin)
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-CSRF-Token")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,PATCH,DELETE,OPTIONS")
		w.Header().Set("Vary", "Origin")

		if r.Method == http.MethodPost || r.Method == http.MethodPatch || r.Method == http.MethodPut {
			r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		startedAt := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %s", r.Method, r.URL.Path, time.Since(startedAt))
	})
}

func orderID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 1 {
		writeError(w, http.StatusBadRequest, errors.New("invalid order id"))
		return 0, false
	}
	return id, true
}

// statusFor maps a rejected command to the HTTP status the client sees.
func statusFor(err error) int {
	reason, ok := domain.ReasonOf(err)
	if !ok {
		if errors.Is(err, store.ErrNotFound) {
			return http.StatusNotFound
		}
		return http.StatusInternalServerError
	}
	switch reason {
	case domain.ReasonForbidden:
		return http.StatusForbidden
	case domain.ReasonInvalidPIN:
		return http.StatusUnauthorized
	case domain.ReasonOrderNotFound, domain.ReasonLineNotFound, domain.ReasonMenuItemNotFound,
		domain.ReasonWaiterNotFound, domain.ReasonStockItemNotFound, domain.ReasonHeldOrderNotFound:
		return http.StatusNotFound
	case domain.ReasonNoOpenShift, domain.ReasonShiftAlreadyOpen, domain.ReasonOpenOrdersRemain,
		domain.ReasonInvalidTransition, domain.ReasonHeldOrderExists, domain.ReasonReceiptUnavailable,
		domain.ReasonCartNotEmpty:
		return http.StatusConflict
	default:
		return http.StatusUnprocessableEntity
	}
}

func writeFailure(w http.ResponseWriter, err error) {
	status := statusFor(err)
	reason, ok := domain.ReasonOf(err)
	if !ok {
		writeError(w, status, err)
		return
	}
	writeJSON(w, status, map[string]any{
		"error":  err.Error(),
		"reason": reason,
	})
}

// decodeJSON reads exactly one JSON value from an application/json body.
func decodeJSON(r *http.Request, dest any) error {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "application/json" {
		return errUnsupportedMediaType
	}
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil {
		return err
	}
	if err := decoder.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errTrailingData
	}
	return nil
}

func writeDecodeError(w http.ResponseWriter, err error) {
	if errors.Is(err, errUnsupportedMediaType) {
		writeError(w, http.StatusUnsupportedMediaType, err)
		return
	}
	writeError(w, http.StatusBadRequest, err)
}

func parsePositiveLimit(raw string, fallback int, max int) int {
	limit := fallback
	trimmed := strings.TrimSpace(raw)
	if trimmed != "" {
		if parsed, err := strconv.Atoi(trimmed); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if max > 0 && limit > max {
		return max
	}
	return limit
}

func writeError(w http.ResponseWriter, status int, err error) {
	// 5xx bodies stay generic; the detail goes to the log.
	msg := err.Error()
	if status >= 500 {
		log.Printf("internal error (status %d): %v", status, err)
		msg = "internal server error"
	}
	writeJSON(w, status, map[string]any{
		"error": msg,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
