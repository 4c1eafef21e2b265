package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"organizer/internal/core"
	"organizer/internal/ledger"
	"organizer/internal/log"
)

// LedgerService is the application surface the handlers drive.
type LedgerService interface {
	CreateTransaction(ctx context.Context, in ledger.CreateInput) (core.Transaction, error)
	GetTransaction(ctx context.Context, id string) (core.Transaction, error)
	UpdateTransaction(ctx context.Context, id string, in ledger.UpdateInput) (core.Transaction, error)
	DeleteTransaction(ctx context.Context, id string) error
	ListTransactions(ctx context.Context, period core.Period, kind string) ([]core.Transaction, error)
	GetSummary(ctx context.Context, period core.Period) (core.PeriodSummary, error)
}

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler serves the transaction API.
type Handler struct {
	svc      LedgerService
	sessions ledger.SessionResolver
	ready    Pinger
	now      func() time.Time
}

// NewHandler wires the handlers. sessions is consulted only when a request
// body cannot be decoded, so that anonymous callers still get 401 rather
// than a validation error.
func NewHandler(svc LedgerService, sessions ledger.SessionResolver, ready Pinger) *Handler {
	return &Handler{svc: svc, sessions: sessions, ready: ready, now: time.Now}
}

func (h *Handler) rejectBody(c *gin.Context, op string, err error) {
	if h.sessions != nil {
		if _, ok := h.sessions.ResolveSession(c.Request.Context()); !ok {
			err = core.ErrUnauthenticated
		}
	}
	writeError(c, op, err)
}

func (h *Handler) CreateTransaction(c *gin.Context) {
	var req createRequest
	if err := decodeJSON(c, &req); err != nil {
		h.rejectBody(c, log.OpCreate, err)
		return
	}
	tx, err := h.svc.CreateTransaction(c.Request.Context(), req.input())
	if err != nil {
		writeError(c, log.OpCreate, err)
		return
	}
	c.Header("Location", "/api/transactions/"+tx.ID)
	c.JSON(http.StatusCreated, newTransactionResponse(tx))
}

func (h *Handler) GetTransaction(c *gin.Context) {
	tx, err := h.svc.GetTransaction(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, log.OpRead, err)
		return
	}
	c.JSON(http.StatusOK, newTransactionResponse(tx))
}

func (h *Handler) UpdateTransaction(c *gin.Context) {
	var req updateRequest
	if err := decodeJSON(c, &req); err != nil {
		h.rejectBody(c, log.OpUpdate, err)
		return
	}
	tx, err := h.svc.UpdateTransaction(c.Request.Context(), c.Param("id"), req.input())
	if err != nil {
		writeError(c, log.OpUpdate, err)
		return
	}
	c.JSON(http.StatusOK, newTransactionResponse(tx))
}

func (h *Handler) DeleteTransaction(c *gin.Context) {
	if err := h.svc.DeleteTransaction(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, log.OpDelete, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) ListTransactions(c *gin.Context) {
	period := parsePeriod(c.Request.URL.Query(), h.now())
	txs, err := h.svc.ListTransactions(c.Request.Context(), period, c.Query("kind"))
	if err != nil {
		writeError(c, log.OpList, err)
		return
	}
	c.JSON(http.StatusOK, newListResponse(period, txs))
}

func (h *Handler) GetSummary(c *gin.Context) {
	period := parsePeriod(c.Request.URL.Query(), h.now())
	summary, err := h.svc.GetSummary(c.Request.Context(), period)
	if err != nil {
		writeError(c, log.OpSummary, err)
		return
	}
	c.JSON(http.StatusOK, newSummaryResponse(period, summary))
}

func (h *Handler) Health(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

func (h *Handler) Ready(c *gin.Context) {
	if h.ready != nil {
		if err := h.ready.Ping(c.Request.Context()); err != nil {
			log.FromContext(c.Request.Context()).WarnContext(c.Request.Context(), "Readiness check failed", log.FieldError, err)
			c.String(http.StatusServiceUnavailable, "not ready")
			return
		}
	}
	c.String(http.StatusOK, "ready")
}
