package export

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/ordertransfer/internal/export"
	"github.com/MrJamesThe3rd/ordertransfer/internal/http/auth"
	"github.com/MrJamesThe3rd/ordertransfer/internal/http/respond"
	"github.com/MrJamesThe3rd/ordertransfer/internal/transfer"
)

type Handler struct {
	svc *export.Service
}

func NewHandler(svc *export.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Use(auth.Required)

	r.Get("/transfers", h.metadata)
	r.Get("/transfers.csv", h.download)
}

type itemResponse struct {
	ID               int64           `json:"id"`
	Date             time.Time       `json:"date"`
	OrderStatus      string          `json:"order_status"`
	TransferStatus   transfer.Status `json:"transfer_status"`
	DestinationEmail string          `json:"destination_email,omitempty"`
	Total            string          `json:"total"`
}

type exportMetadataResponse struct {
	Transfers []itemResponse `json:"transfers"`
	EmailBody string         `json:"email_body"`
}

func toItemResponse(item export.Item) itemResponse {
	resp := itemResponse{
		ID:             item.Order.ID,
		Date:           item.Order.CreatedAt,
		OrderStatus:    string(item.Order.Status),
		TransferStatus: item.Record.Status,
		Total:          item.Order.Total.StringFixed(2),
	}

	if item.Record.Destination != nil {
		resp.DestinationEmail = item.Record.Destination.Address()
	}

	return resp
}

func parseFilter(r *http.Request) (export.Filter, error) {
	raw := r.URL.Query().Get("status")
	if raw == "" {
		return export.Filter{}, nil
	}

	status := transfer.Status(raw)

	switch status {
	case transfer.StatusAwaitingTransfer, transfer.StatusAccepted, transfer.StatusDeclined, transfer.StatusExpired:
		return export.Filter{Status: &status}, nil
	default:
		return export.Filter{}, fmt.Errorf("unknown transfer status %q", raw)
	}
}

func (h *Handler) items(w http.ResponseWriter, r *http.Request) ([]export.Item, bool) {
	filter, err := parseFilter(r)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, respond.CodeInvalidFilter, err.Error())
		return nil, false
	}

	items, err := h.svc.Sent(r.Context(), auth.CallerFrom(r.Context()).AccountID, filter)
	if err != nil {
		respond.Internal(w, err)
		return nil, false
	}

	return items, true
}

func (h *Handler) metadata(w http.ResponseWriter, r *http.Request) {
	items, ok := h.items(w, r)
	if !ok {
		return
	}

	transfers := make([]itemResponse, 0, len(items))
	for _, item := range items {
		transfers = append(transfers, toItemResponse(item))
	}

	respond.JSON(w, http.StatusOK, exportMetadataResponse{
		Transfers: transfers,
		EmailBody: h.svc.GenerateSummary(items),
	})
}

func (h *Handler) download(w http.ResponseWriter, r *http.Request) {
	items, ok := h.items(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=\"transfers_%s.csv\"", time.Now().Format("20060102")))

	if err := h.svc.WriteCSV(w, items); err != nil {
		slog.Error("failed to write csv export", "error", err)
	}
}
