package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/zeninapp/zenin-ingest/internal/api/middleware"
	"github.com/zeninapp/zenin-ingest/internal/archive"
	"github.com/zeninapp/zenin-ingest/internal/classify"
	"github.com/zeninapp/zenin-ingest/internal/domain"
	"github.com/zeninapp/zenin-ingest/internal/extract"
	"github.com/zeninapp/zenin-ingest/internal/feed"
	"github.com/zeninapp/zenin-ingest/internal/session"
	"github.com/zeninapp/zenin-ingest/internal/store"
)

// NotificationsHandler accepts raw notifications from the platform listener
// and exposes the diagnostic archive slot.
type NotificationsHandler struct {
	publisher feed.Publisher
	arc       archive.Archive
	log       zerolog.Logger
}

// NewNotificationsHandler creates a new notifications handler.
func NewNotificationsHandler(publisher feed.Publisher, arc archive.Archive, log zerolog.Logger) *NotificationsHandler {
	return &NotificationsHandler{
		publisher: publisher,
		arc:       arc,
		log:       log,
	}
}

// Ingest handles POST /v1/notifications. The wire shape is what the OS
// listener sends: {title, text, packageName}. The payload is enqueued on the
// feed and processed asynchronously; the response only acknowledges receipt.
func (h *NotificationsHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title       string `json:"title"`
		Text        string `json:"text"`
		PackageName string `json:"packageName"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Text == "" {
		middleware.WriteError(w, http.StatusBadRequest, "Text is required")
		return
	}

	d := &feed.Delivery{
		Payload: domain.NotificationPayload{
			Title:         req.Title,
			Text:          req.Text,
			SourcePackage: req.PackageName,
			ReceivedAt:    time.Now(),
		},
	}
	if err := h.publisher.Publish(r.Context(), d); err != nil {
		h.log.Error().Err(err).Msg("Failed to enqueue notification")
		middleware.WriteError(w, http.StatusServiceUnavailable, "Failed to enqueue notification")
		return
	}

	middleware.WriteJSON(w, http.StatusAccepted, map[string]string{
		"delivery_id": d.DeliveryID,
	})
}

// Last handles GET /v1/notifications/last, reading the raw archive slot.
func (h *NotificationsHandler) Last(w http.ResponseWriter, r *http.Request) {
	last, err := h.arc.Last(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to read last notification")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to read last notification")
		return
	}
	if last == nil {
		middleware.WriteError(w, http.StatusNotFound, "No notification archived yet")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, last)
}

// TransactionsHandler lists the signed-in user's captured transactions.
type TransactionsHandler struct {
	txs   store.TransactionStore
	users session.UserResolver
	log   zerolog.Logger
}

// NewTransactionsHandler creates a new transactions handler.
func NewTransactionsHandler(txs store.TransactionStore, users session.UserResolver, log zerolog.Logger) *TransactionsHandler {
	return &TransactionsHandler{
		txs:   txs,
		users: users,
		log:   log,
	}
}

// List handles GET /v1/transactions.
func (h *TransactionsHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, err := h.users.CurrentUser(r.Context())
	if err != nil {
		middleware.WriteError(w, http.StatusUnauthorized, "No signed-in user")
		return
	}

	txs, err := h.txs.ListByUser(r.Context(), userID)
	if err != nil {
		h.log.Error().Err(err).Str("user_id", userID).Msg("Failed to list transactions")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list transactions")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"transactions": txs,
		"count":        len(txs),
	})
}

// ParseHandler is the synchronous developer surface: it runs the classifier
// and the extractor directly and returns their raw output without touching
// the store.
type ParseHandler struct {
	log zerolog.Logger
}

// NewParseHandler creates a new parse handler.
func NewParseHandler(log zerolog.Logger) *ParseHandler {
	return &ParseHandler{log: log}
}

// Parse handles POST /v1/parse.
func (h *ParseHandler) Parse(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	financial := classify.IsFinancial(req.Text)
	draft := extract.Parse(req.Text, time.Now())

	resp := map[string]interface{}{
		"financial": financial,
		"parsed":    draft != nil,
	}
	if draft != nil {
		resp["draft"] = map[string]interface{}{
			"amount":              draft.Amount,
			"direction":           draft.Direction,
			"merchant_hint":       draft.MerchantHint,
			"payment_method_hint": draft.PaymentMethodHint,
			"occurred_at":         draft.OccurredAt,
		}
	}
	middleware.WriteJSON(w, http.StatusOK, resp)
}

// Health handles GET /healthz.
func Health(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
