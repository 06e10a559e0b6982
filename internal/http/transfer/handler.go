package transfer

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/ordertransfer/internal/http/auth"
	"github.com/MrJamesThe3rd/ordertransfer/internal/http/respond"
	"github.com/MrJamesThe3rd/ordertransfer/internal/order"
	"github.com/MrJamesThe3rd/ordertransfer/internal/transfer"
)

// RequestsPage is where the destination lands after acting on a request.
const RequestsPage = "/api/v1/transfers"

type Handler struct {
	svc *transfer.Service
}

func NewHandler(svc *transfer.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Use(auth.Required)

	r.Get("/", h.list)
	r.Post("/{id}/accept", h.accept)
	r.Post("/{id}/decline", h.decline)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	requests, err := h.svc.Requests(r.Context(), auth.CallerFrom(r.Context()))
	if err != nil {
		respond.Internal(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, toRequestList(requests))
}

func (h *Handler) accept(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, h.svc.Accept)
}

func (h *Handler) decline(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, h.svc.Decline)
}

type action func(ctx context.Context, orderID int64, caller transfer.Caller) (*order.Order, error)

// act runs accept or decline. A request that is no longer awaiting transfer
// is answered like a success so repeated clicks stay harmless.
func (h *Handler) act(w http.ResponseWriter, r *http.Request, fn action) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		respond.Error(w, http.StatusBadRequest, respond.CodeInvalidID, "invalid id")
		return
	}

	_, err = fn(r.Context(), id, auth.CallerFrom(r.Context()))

	switch {
	case err == nil:
	case errors.Is(err, transfer.ErrInvalidState):
		slog.Info("ignoring transfer action on settled order", "order_id", id)
	case errors.Is(err, transfer.ErrUnauthorized):
		respond.Error(w, http.StatusForbidden, respond.CodeForbidden, err.Error())
		return
	case errors.Is(err, order.ErrNotFound), errors.Is(err, transfer.ErrNotTransferOrder):
		respond.Error(w, http.StatusNotFound, respond.CodeNotFound, "transfer request not found")
		return
	default:
		respond.Internal(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, redirectResponse{Redirect: RequestsPage})
}
