package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/ordertransfer/internal/account"
	"github.com/MrJamesThe3rd/ordertransfer/internal/edit"
	"github.com/MrJamesThe3rd/ordertransfer/internal/http/auth"
	"github.com/MrJamesThe3rd/ordertransfer/internal/http/respond"
	"github.com/MrJamesThe3rd/ordertransfer/internal/order"
	"github.com/MrJamesThe3rd/ordertransfer/internal/session"
	"github.com/MrJamesThe3rd/ordertransfer/internal/transfer"
)

// SessionHeader carries the shopper session id in both directions.
const SessionHeader = "X-Session-ID"

const (
	codeUnsupportedPaymentMethod = "unsupported_payment_method"
	codeGatewayDisabled          = "gateway_disabled"
	codeEmptyCart                = "empty_cart"
	codeInvalidItem              = "invalid_item"
	codeNotEditable              = "not_editable"
)

type Accounts interface {
	Get(ctx context.Context, id int64) (*account.Account, error)
}

type Handler struct {
	transfers *transfer.Service
	edits     *edit.Service
	sessions  session.Store
	accounts  Accounts
}

func NewHandler(transfers *transfer.Service, edits *edit.Service, sessions session.Store, accounts Accounts) *Handler {
	return &Handler{transfers: transfers, edits: edits, sessions: sessions, accounts: accounts}
}

func (h *Handler) Routes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.AllowContentType("application/json"))

		r.Post("/checkout", h.checkout)
		r.Post("/cart/items", h.addItem)
	})

	r.Get("/cart", h.cart)
	r.With(auth.Required).Post("/orders/{id}/edit", h.beginEdit)
}

// loadSession returns the session named by the request header, or a new one.
func (h *Handler) loadSession(r *http.Request) (*session.Session, error) {
	id, err := uuid.Parse(r.Header.Get(SessionHeader))
	if err != nil {
		return session.New(), nil
	}

	return h.sessions.Load(r.Context(), id)
}

func (h *Handler) saveSession(w http.ResponseWriter, r *http.Request, sess *session.Session) error {
	if err := h.sessions.Save(r.Context(), sess); err != nil {
		return err
	}

	w.Header().Set(SessionHeader, sess.ID.String())

	return nil
}

type checkoutRequest struct {
	PaymentMethod    string `json:"payment_method"`
	DestAccountEmail string `json:"dest_account_email"`
}

func (h *Handler) checkout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, respond.CodeInvalidRequestBody, err.Error())
		return
	}

	ctx := r.Context()

	sess, err := h.loadSession(r)
	if err != nil {
		respond.Internal(w, err)
		return
	}

	var (
		source    *account.Account
		accountID int64
	)

	if caller := auth.CallerFrom(ctx); caller.Authenticated() {
		source, err = h.accounts.Get(ctx, caller.AccountID)
		if err != nil {
			if errors.Is(err, account.ErrNotFound) {
				respond.Error(w, http.StatusUnauthorized, respond.CodeUnauthorized, "unknown account")
				return
			}

			respond.Internal(w, err)

			return
		}

		accountID = source.ID
	}

	if err := h.edits.ApplyCredit(ctx, sess, accountID); err != nil {
		h.rejectEdit(w, r, sess, err)
		return
	}

	res, err := h.transfers.Checkout(ctx, transfer.CheckoutParams{
		PaymentMethod: req.PaymentMethod,
		DestEmail:     req.DestAccountEmail,
		Source:        source,
		Session:       sess,
		Hooks:         []transfer.TxHook{h.edits.ReplaceHook(sess)},
	})
	if err != nil {
		if isEditError(err) {
			h.edits.Abandon(sess)
			h.rejectEdit(w, r, sess, err)

			return
		}

		writeCheckoutError(w, err)

		return
	}

	if err := h.edits.FinalizeEdit(ctx, res.Order.ID, sess); err != nil {
		slog.Error("failed to finalize order edit", "error", err, "order_id", res.Order.ID)
	}

	if err := h.saveSession(w, r, sess); err != nil {
		slog.Error("failed to save session after checkout", "error", err, "order_id", res.Order.ID)
	}

	respond.JSON(w, http.StatusCreated, checkoutResponse{
		Order:        toOrderResponse(res.Order),
		Redirect:     res.Redirect,
		Instructions: res.Instructions,
	})
}

func isEditError(err error) bool {
	return errors.Is(err, edit.ErrNotEditable) || errors.Is(err, edit.ErrForbidden)
}

// rejectEdit answers a checkout whose edit no longer holds. The session is
// saved without the edit so the next checkout is charged in full.
func (h *Handler) rejectEdit(w http.ResponseWriter, r *http.Request, sess *session.Session, err error) {
	if !isEditError(err) {
		respond.Internal(w, err)
		return
	}

	if err := h.saveSession(w, r, sess); err != nil {
		respond.Internal(w, err)
		return
	}

	if errors.Is(err, edit.ErrForbidden) {
		respond.Error(w, http.StatusForbidden, respond.CodeForbidden, err.Error())
		return
	}

	respond.Error(w, http.StatusConflict, codeNotEditable, err.Error())
}

func writeCheckoutError(w http.ResponseWriter, err error) {
	var verr *transfer.ValidationError

	switch {
	case errors.As(err, &verr):
		respond.Error(w, http.StatusUnprocessableEntity, verr.Code, verr.Message)
	case errors.Is(err, transfer.ErrUnsupportedPaymentMethod):
		respond.Error(w, http.StatusBadRequest, codeUnsupportedPaymentMethod, err.Error())
	case errors.Is(err, transfer.ErrGatewayDisabled):
		respond.Error(w, http.StatusConflict, codeGatewayDisabled, err.Error())
	case errors.Is(err, transfer.ErrEmptyCart):
		respond.Error(w, http.StatusConflict, codeEmptyCart, err.Error())
	default:
		respond.Internal(w, err)
	}
}

func (h *Handler) cart(w http.ResponseWriter, r *http.Request) {
	sess, err := h.loadSession(r)
	if err != nil {
		respond.Internal(w, err)
		return
	}

	w.Header().Set(SessionHeader, sess.ID.String())
	respond.JSON(w, http.StatusOK, toCartResponse(sess))
}

type addItemRequest struct {
	ProductID   int64             `json:"product_id"`
	VariationID *int64            `json:"variation_id,omitempty"`
	Name        string            `json:"name"`
	Quantity    int               `json:"quantity"`
	Attributes  map[string]string `json:"attributes,omitempty"`
	UnitPrice   decimal.Decimal   `json:"unit_price"`
}

func (h *Handler) addItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, respond.CodeInvalidRequestBody, err.Error())
		return
	}

	if req.ProductID <= 0 || req.Quantity <= 0 || req.UnitPrice.IsNegative() {
		respond.Error(w, http.StatusBadRequest, codeInvalidItem, "product_id and quantity must be positive")
		return
	}

	sess, err := h.loadSession(r)
	if err != nil {
		respond.Internal(w, err)
		return
	}

	sess.Cart.AddItem(session.CartItem{
		ProductID:   req.ProductID,
		VariationID: req.VariationID,
		Name:        req.Name,
		Quantity:    req.Quantity,
		Attributes:  req.Attributes,
		UnitPrice:   req.UnitPrice,
	})

	if err := h.saveSession(w, r, sess); err != nil {
		respond.Internal(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, toCartResponse(sess))
}

func (h *Handler) beginEdit(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		respond.Error(w, http.StatusBadRequest, respond.CodeInvalidID, "invalid id")
		return
	}

	sess, err := h.loadSession(r)
	if err != nil {
		respond.Internal(w, err)
		return
	}

	err = h.edits.BeginEdit(r.Context(), sess, id, auth.CallerFrom(r.Context()).AccountID)

	switch {
	case err == nil:
	case errors.Is(err, order.ErrNotFound):
		respond.Error(w, http.StatusNotFound, respond.CodeNotFound, "order not found")
		return
	case errors.Is(err, edit.ErrForbidden):
		respond.Error(w, http.StatusForbidden, respond.CodeForbidden, err.Error())
		return
	case errors.Is(err, edit.ErrNotEditable):
		respond.Error(w, http.StatusConflict, codeNotEditable, err.Error())
		return
	default:
		respond.Internal(w, err)
		return
	}

	if err := h.saveSession(w, r, sess); err != nil {
		respond.Internal(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, toCartResponse(sess))
}
