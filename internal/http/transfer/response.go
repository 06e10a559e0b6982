package transfer

import (
	"fmt"
	"time"

	"github.com/MrJamesThe3rd/ordertransfer/internal/order"
	"github.com/MrJamesThe3rd/ordertransfer/internal/transfer"
)

type redirectResponse struct {
	Redirect string `json:"redirect"`
}

type actionResponse struct {
	Key  string `json:"key"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

type requestResponse struct {
	ID          int64            `json:"id"`
	Number      string           `json:"number"`
	Date        time.Time        `json:"date"`
	Status      order.Status     `json:"status"`
	Total       string           `json:"total"`
	ItemCount   int              `json:"item_count"`
	Destination string           `json:"destination_email"`
	Actions     []actionResponse `json:"actions"`
}

var actionPaths = map[string]string{
	transfer.ActionAccept: "accept",
	transfer.ActionRefuse: "decline",
}

func toRequestResponse(req transfer.Request) requestResponse {
	o := req.Order

	resp := requestResponse{
		ID:        o.ID,
		Number:    fmt.Sprintf("#%d", o.ID),
		Date:      o.CreatedAt,
		Status:    o.Status,
		Total:     o.Total.StringFixed(2),
		ItemCount: o.ItemCount(),
		Actions:   make([]actionResponse, 0, len(req.Actions)),
	}

	if req.Record.Destination != nil {
		resp.Destination = req.Record.Destination.Address()
	}

	for _, a := range req.Actions {
		resp.Actions = append(resp.Actions, actionResponse{
			Key:  a.Key,
			Name: a.Name,
			URL:  fmt.Sprintf("%s/%d/%s", RequestsPage, o.ID, actionPaths[a.Key]),
		})
	}

	return resp
}

func toRequestList(requests []transfer.Request) []requestResponse {
	list := make([]requestResponse, 0, len(requests))
	for _, req := range requests {
		list = append(list, toRequestResponse(req))
	}

	return list
}
