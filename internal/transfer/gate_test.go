package transfer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/MrJamesThe3rd/ordertransfer/internal/transfer"
)

func TestPermits(t *testing.T) {
	bob := transfer.Caller{AccountID: 2, Email: "bob@example.com"}

	type testCase struct {
		name   string
		rec    transfer.Record
		caller transfer.Caller
		want   bool
	}

	awaitingFor := func(dest transfer.Destination) transfer.Record {
		return transfer.Record{Status: transfer.StatusAwaitingTransfer, Destination: dest}
	}

	tests := []testCase{
		{
			name:   "Resolved destination matches by id",
			rec:    awaitingFor(transfer.ResolvedAccount{AccountID: 2, Email: "bob@example.com"}),
			caller: bob,
			want:   true,
		},
		{
			name:   "Resolved destination ignores a matching email on another account",
			rec:    awaitingFor(transfer.ResolvedAccount{AccountID: 2, Email: "bob@example.com"}),
			caller: transfer.Caller{AccountID: 3, Email: "bob@example.com"},
			want:   false,
		},
		{
			name:   "Resolved destination still matches after the account email changed case",
			rec:    awaitingFor(transfer.ResolvedAccount{AccountID: 2, Email: "bob@example.com"}),
			caller: transfer.Caller{AccountID: 2, Email: "BOB@EXAMPLE.COM"},
			want:   true,
		},
		{
			name:   "Unresolved email matches case insensitively",
			rec:    awaitingFor(transfer.UnresolvedEmail{Email: "Carol@Example.com"}),
			caller: transfer.Caller{AccountID: 9, Email: "carol@example.COM"},
			want:   true,
		},
		{
			name:   "Unresolved email mismatch",
			rec:    awaitingFor(transfer.UnresolvedEmail{Email: "carol@example.com"}),
			caller: bob,
			want:   false,
		},
		{
			name:   "Anonymous caller",
			rec:    awaitingFor(transfer.UnresolvedEmail{Email: "carol@example.com"}),
			caller: transfer.Caller{Email: "carol@example.com"},
			want:   false,
		},
		{
			name:   "Not awaiting",
			rec:    transfer.Record{Status: transfer.StatusAccepted, Destination: transfer.ResolvedAccount{AccountID: 2}},
			caller: bob,
			want:   false,
		},
		{
			name:   "No destination",
			rec:    awaitingFor(nil),
			caller: bob,
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, transfer.Permits(tt.rec, tt.caller))
		})
	}
}
