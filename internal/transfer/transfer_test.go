package transfer_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/ordertransfer/internal/order"
	"github.com/MrJamesThe3rd/ordertransfer/internal/transfer"
)

func TestRecordFromOrder(t *testing.T) {
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	type testCase struct {
		name   string
		order  *order.Order
		want   transfer.Record
		wantOK bool
	}

	tests := []testCase{
		{
			name:   "Plain order",
			order:  &order.Order{ID: 1, Status: order.StatusPending, Meta: map[string]string{}},
			wantOK: false,
		},
		{
			name: "Explicit status with resolved destination",
			order: &order.Order{ID: 2, Status: order.StatusOnHold, CreatedAt: created, Meta: map[string]string{
				order.MetaSourceUserID:     "1",
				order.MetaDestUserID:       "2",
				order.MetaDestAccountEmail: "bob@example.com",
				order.MetaTransferAccepted: "no",
				order.MetaTransferStatus:   "awaiting_transfer",
			}},
			want: transfer.Record{
				OrderID:         2,
				SourceAccountID: new(int64(1)),
				Destination:     transfer.ResolvedAccount{AccountID: 2, Email: "bob@example.com"},
				Status:          transfer.StatusAwaitingTransfer,
				CreatedAt:       created,
			},
			wantOK: true,
		},
		{
			name: "Legacy on-hold row with email only is awaiting",
			order: &order.Order{ID: 3, Status: order.StatusOnHold, Meta: map[string]string{
				order.MetaSourceUserID:     "",
				order.MetaDestUserID:       "",
				order.MetaDestAccountEmail: "carol@example.com",
				order.MetaTransferAccepted: "",
			}},
			want: transfer.Record{
				OrderID:     3,
				Destination: transfer.UnresolvedEmail{Email: "carol@example.com"},
				Status:      transfer.StatusAwaitingTransfer,
			},
			wantOK: true,
		},
		{
			name: "Legacy accepted row",
			order: &order.Order{ID: 4, Status: order.StatusPending, Meta: map[string]string{
				order.MetaDestUserID:       "2",
				order.MetaDestAccountEmail: "bob@example.com",
				order.MetaTransferAccepted: "1",
			}},
			want: transfer.Record{
				OrderID:     4,
				Destination: transfer.ResolvedAccount{AccountID: 2, Email: "bob@example.com"},
				Status:      transfer.StatusAccepted,
			},
			wantOK: true,
		},
		{
			name: "Legacy cleared row is declined",
			order: &order.Order{ID: 5, Status: order.StatusPending, Meta: map[string]string{
				order.MetaTransferAccepted: "",
			}},
			want:   transfer.Record{OrderID: 5, Status: transfer.StatusDeclined},
			wantOK: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := transfer.RecordFromOrder(tt.order)

			require.Equal(t, tt.wantOK, ok)

			if ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestStatus_IsTerminal(t *testing.T) {
	assert.False(t, transfer.StatusAwaitingTransfer.IsTerminal())
	assert.True(t, transfer.StatusAccepted.IsTerminal())
	assert.True(t, transfer.StatusDeclined.IsTerminal())
	assert.True(t, transfer.StatusExpired.IsTerminal())
}

func TestSettings_EmailInstructions(t *testing.T) {
	settings := transfer.DefaultSettings()
	settings.Instructions = "Ask the recipient to confirm."

	onHold := &order.Order{Status: order.StatusOnHold, PaymentMethod: transfer.GatewayID, Total: decimal.NewFromInt(50)}

	type testCase struct {
		name        string
		settings    transfer.Settings
		order       *order.Order
		sentToAdmin bool
		want        string
	}

	tests := []testCase{
		{name: "Customer email", settings: settings, order: onHold, want: "Ask the recipient to confirm."},
		{name: "Admin email", settings: settings, order: onHold, sentToAdmin: true, want: ""},
		{name: "No instructions", settings: transfer.DefaultSettings(), order: onHold, want: ""},
		{
			name:     "Other gateway",
			settings: settings,
			order:    &order.Order{Status: order.StatusOnHold, PaymentMethod: "cod"},
			want:     "",
		},
		{
			name:     "No longer on hold",
			settings: settings,
			order:    &order.Order{Status: order.StatusPending, PaymentMethod: transfer.GatewayID},
			want:     "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.settings.EmailInstructions(tt.order, tt.sentToAdmin))
		})
	}
}
