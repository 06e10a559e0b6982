package http_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/ordertransfer/internal/account"
	"github.com/MrJamesThe3rd/ordertransfer/internal/clock"
	"github.com/MrJamesThe3rd/ordertransfer/internal/edit"
	"github.com/MrJamesThe3rd/ordertransfer/internal/export"
	apihttp "github.com/MrJamesThe3rd/ordertransfer/internal/http"
	"github.com/MrJamesThe3rd/ordertransfer/internal/http/auth"
	"github.com/MrJamesThe3rd/ordertransfer/internal/http/checkout"
	exporthttp "github.com/MrJamesThe3rd/ordertransfer/internal/http/export"
	transferhttp "github.com/MrJamesThe3rd/ordertransfer/internal/http/transfer"
	"github.com/MrJamesThe3rd/ordertransfer/internal/memstore"
	"github.com/MrJamesThe3rd/ordertransfer/internal/order"
	"github.com/MrJamesThe3rd/ordertransfer/internal/transfer"
)

type api struct {
	t        *testing.T
	handler  http.Handler
	orders   *memstore.Orders
	accounts *memstore.Accounts
	tokens   map[string]string
}

func newAPI(t *testing.T) *api {
	t.Helper()

	clk := clock.NewFixed(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))
	orders := memstore.NewOrders(clk)
	accounts := memstore.NewAccounts(clk)
	sessions := memstore.NewSessions(clk)
	authenticator := auth.NewAuthenticator("test-secret")

	a := &api{t: t, orders: orders, accounts: accounts, tokens: map[string]string{}}

	for _, email := range []string{"alice@example.com", "bob@example.com"} {
		acc := &account.Account{Email: email}
		require.NoError(t, accounts.Create(context.Background(), acc))

		token, err := authenticator.Issue(acc)
		require.NoError(t, err)

		a.tokens[email] = token
	}

	transfers := transfer.NewService(orders, accounts, clk)
	edits := edit.NewService(orders)

	a.handler = apihttp.New(
		nil,
		authenticator,
		checkout.NewHandler(transfers, edits, sessions, accounts),
		transferhttp.NewHandler(transfers),
		exporthttp.NewHandler(export.NewService(orders)),
	)

	return a
}

func (a *api) do(method, path, as, sessionID, body string) *httptest.ResponseRecorder {
	a.t.Helper()

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	if as != "" {
		req.Header.Set("Authorization", "Bearer "+a.tokens[as])
	}

	if sessionID != "" {
		req.Header.Set(checkout.SessionHeader, sessionID)
	}

	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)

	return rec
}

// fillCart puts $50 of goods in a fresh session and returns its id.
func (a *api) fillCart() string {
	a.t.Helper()

	rec := a.do(http.MethodPost, "/api/v1/cart/items", "", "", `{"product_id":7,"name":"Mug","quantity":2,"unit_price":"25.00"}`)
	require.Equal(a.t, http.StatusOK, rec.Code, rec.Body.String())

	sid := rec.Header().Get(checkout.SessionHeader)
	require.NotEmpty(a.t, sid)

	return sid
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))

	return v
}

func TestRouter_TransferFlow(t *testing.T) {
	a := newAPI(t)
	sid := a.fillCart()

	rec := a.do(http.MethodPost, "/api/v1/checkout", "alice@example.com", sid,
		`{"payment_method":"order_transfer_gateway","dest_account_email":"bob@example.com"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	placed := decode[struct {
		Order struct {
			ID     int64  `json:"id"`
			Status string `json:"status"`
			Total  string `json:"total"`
		} `json:"order"`
		Redirect string `json:"redirect"`
	}](t, rec)

	assert.Equal(t, "on-hold", placed.Order.Status)
	assert.Equal(t, "50.00", placed.Order.Total)
	assert.Equal(t, "/checkout/order-received/1", placed.Redirect)

	cart := decode[struct {
		Items []any `json:"items"`
	}](t, a.do(http.MethodGet, "/api/v1/cart", "", sid, ""))
	assert.Empty(t, cart.Items)

	rec = a.do(http.MethodGet, "/api/v1/transfers", "bob@example.com", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	list := decode[[]struct {
		ID        int64  `json:"id"`
		Number    string `json:"number"`
		ItemCount int    `json:"item_count"`
		Actions   []struct {
			Key string `json:"key"`
			URL string `json:"url"`
		} `json:"actions"`
	}](t, rec)
	require.Len(t, list, 1)
	assert.Equal(t, "#1", list[0].Number)
	assert.Equal(t, 2, list[0].ItemCount)
	assert.Equal(t, "/api/v1/transfers/1/accept", list[0].Actions[0].URL)
	assert.Equal(t, "/api/v1/transfers/1/decline", list[0].Actions[1].URL)

	rec = a.do(http.MethodGet, "/api/v1/transfers", "alice@example.com", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = a.do(http.MethodPost, "/api/v1/transfers/1/decline", "alice@example.com", "", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = a.do(http.MethodPost, "/api/v1/transfers/1/accept", "", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = a.do(http.MethodPost, "/api/v1/transfers/1/accept", "bob@example.com", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"redirect":"/api/v1/transfers"}`, rec.Body.String())

	rec = a.do(http.MethodPost, "/api/v1/transfers/1/accept", "bob@example.com", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	stored, err := a.orders.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, order.StatusPending, stored.Status)
	assert.Empty(t, stored.PaymentMethod)

	rec = a.do(http.MethodPost, "/api/v1/transfers/99/accept", "bob@example.com", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = a.do(http.MethodPost, "/api/v1/transfers/abc/accept", "bob@example.com", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_CheckoutErrors(t *testing.T) {
	type testCase struct {
		name       string
		body       string
		fillCart   bool
		wantStatus int
		wantCode   string
	}

	tests := []testCase{
		{
			name:       "Missing email",
			body:       `{"payment_method":"order_transfer_gateway","dest_account_email":""}`,
			fillCart:   true,
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   "missing_email",
		},
		{
			name:       "Invalid email",
			body:       `{"payment_method":"order_transfer_gateway","dest_account_email":"bob"}`,
			fillCart:   true,
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   "invalid_email",
		},
		{
			name:       "Self transfer",
			body:       `{"payment_method":"order_transfer_gateway","dest_account_email":"alice@example.com"}`,
			fillCart:   true,
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   "self_transfer",
		},
		{
			name:       "Empty cart",
			body:       `{"payment_method":"order_transfer_gateway","dest_account_email":"bob@example.com"}`,
			wantStatus: http.StatusConflict,
			wantCode:   "empty_cart",
		},
		{
			name:       "Other gateway",
			body:       `{"payment_method":"cod","dest_account_email":"bob@example.com"}`,
			fillCart:   true,
			wantStatus: http.StatusBadRequest,
			wantCode:   "unsupported_payment_method",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newAPI(t)

			sid := ""
			if tt.fillCart {
				sid = a.fillCart()
			}

			rec := a.do(http.MethodPost, "/api/v1/checkout", "alice@example.com", sid, tt.body)
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())

			body := decode[struct {
				Code string `json:"code"`
			}](t, rec)
			assert.Equal(t, tt.wantCode, body.Code)
		})
	}
}

func TestRouter_EditOrder(t *testing.T) {
	a := newAPI(t)
	sid := a.fillCart()

	rec := a.do(http.MethodPost, "/api/v1/checkout", "alice@example.com", sid,
		`{"payment_method":"order_transfer_gateway","dest_account_email":"bob@example.com"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = a.do(http.MethodPost, "/api/v1/orders/1/edit", "alice@example.com", sid, "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = a.do(http.MethodPost, "/api/v1/transfers/1/decline", "bob@example.com", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = a.do(http.MethodPost, "/api/v1/orders/1/edit", "bob@example.com", sid, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = a.do(http.MethodPost, "/api/v1/orders/1/edit", "alice@example.com", sid, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = a.do(http.MethodPost, "/api/v1/checkout", "alice@example.com", sid,
		`{"payment_method":"order_transfer_gateway","dest_account_email":"bob@example.com"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	replacement := decode[struct {
		Order struct {
			ID    int64  `json:"id"`
			Total string `json:"total"`
		} `json:"order"`
	}](t, rec)
	assert.Equal(t, "0.00", replacement.Order.Total)

	old, err := a.orders.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, order.StatusCancelled, old.Status)

	placed, err := a.orders.Get(context.Background(), replacement.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, "1", placed.MetaValue(order.MetaEditOrder))
}

// declinedOrder places order 1 for alice and has bob decline it so it can be edited.
func (a *api) declinedOrder() {
	a.t.Helper()

	rec := a.do(http.MethodPost, "/api/v1/checkout", "alice@example.com", a.fillCart(),
		`{"payment_method":"order_transfer_gateway","dest_account_email":"bob@example.com"}`)
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = a.do(http.MethodPost, "/api/v1/transfers/1/decline", "bob@example.com", "", "")
	require.Equal(a.t, http.StatusOK, rec.Code, rec.Body.String())
}

func (a *api) editOrder(id string) string {
	a.t.Helper()

	sid := a.fillCart()

	rec := a.do(http.MethodPost, "/api/v1/orders/"+id+"/edit", "alice@example.com", sid, "")
	require.Equal(a.t, http.StatusOK, rec.Code, rec.Body.String())

	return sid
}

type cartView struct {
	EditOrderID *int64 `json:"edit_order_id"`
	Fees        []struct {
		Key string `json:"key"`
	} `json:"fees"`
}

func TestRouter_GuestCheckoutWithEditSession(t *testing.T) {
	a := newAPI(t)
	a.declinedOrder()

	sid := a.editOrder("1")

	rec := a.do(http.MethodPost, "/api/v1/checkout", "", sid,
		`{"payment_method":"order_transfer_gateway","dest_account_email":"bob@example.com"}`)
	require.Equal(t, http.StatusForbidden, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"forbidden"`)

	rec = a.do(http.MethodGet, "/api/v1/cart", "", sid, "")
	require.Equal(t, http.StatusOK, rec.Code)

	cart := decode[cartView](t, rec)
	assert.Nil(t, cart.EditOrderID)
	assert.Empty(t, cart.Fees)

	old, err := a.orders.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.NotEqual(t, order.StatusCancelled, old.Status)
	assert.Empty(t, old.MetaValue(order.MetaEditOrder))
}

func TestRouter_SecondEditSessionRejected(t *testing.T) {
	a := newAPI(t)
	a.declinedOrder()

	first := a.editOrder("1")
	second := a.editOrder("1")

	body := `{"payment_method":"order_transfer_gateway","dest_account_email":"bob@example.com"}`

	rec := a.do(http.MethodPost, "/api/v1/checkout", "alice@example.com", first, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = a.do(http.MethodPost, "/api/v1/checkout", "alice@example.com", second, body)
	require.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"not_editable"`)

	rec = a.do(http.MethodGet, "/api/v1/cart", "", second, "")
	require.Equal(t, http.StatusOK, rec.Code)

	cart := decode[cartView](t, rec)
	assert.Nil(t, cart.EditOrderID)
	assert.Empty(t, cart.Fees)

	replacements, err := a.orders.List(context.Background(), order.ListFilter{
		Meta: map[string]string{order.MetaEditOrder: "1"},
	})
	require.NoError(t, err)
	assert.Len(t, replacements, 1)
}

func TestRouter_ExportSentTransfers(t *testing.T) {
	a := newAPI(t)
	sid := a.fillCart()

	rec := a.do(http.MethodPost, "/api/v1/checkout", "alice@example.com", sid,
		`{"payment_method":"order_transfer_gateway","dest_account_email":"bob@example.com"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = a.do(http.MethodGet, "/api/v1/exports/transfers", "alice@example.com", "", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	sent := decode[struct {
		Transfers []struct {
			ID               int64  `json:"id"`
			TransferStatus   string `json:"transfer_status"`
			DestinationEmail string `json:"destination_email"`
			Total            string `json:"total"`
		} `json:"transfers"`
		EmailBody string `json:"email_body"`
	}](t, rec)
	require.Len(t, sent.Transfers, 1)
	assert.Equal(t, "awaiting_transfer", sent.Transfers[0].TransferStatus)
	assert.Equal(t, "bob@example.com", sent.Transfers[0].DestinationEmail)
	assert.Equal(t, "50.00", sent.Transfers[0].Total)
	assert.Contains(t, sent.EmailBody, "#1 | 50.00 | awaiting_transfer")

	rec = a.do(http.MethodGet, "/api/v1/exports/transfers", "bob@example.com", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"transfers":[],"email_body":""}`, rec.Body.String())

	rec = a.do(http.MethodGet, "/api/v1/exports/transfers.csv?status=accepted", "alice@example.com", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Equal(t, "order,date,order_status,transfer_status,destination,items,total\n", rec.Body.String())

	rec = a.do(http.MethodGet, "/api/v1/exports/transfers?status=lost", "alice@example.com", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = a.do(http.MethodGet, "/api/v1/exports/transfers", "", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_Health(t *testing.T) {
	a := newAPI(t)

	rec := a.do(http.MethodGet, "/health", "", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = a.do(http.MethodGet, "/metrics", "", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}
