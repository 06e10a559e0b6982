package transfer_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/ordertransfer/internal/account"
	"github.com/MrJamesThe3rd/ordertransfer/internal/transfer"
)

func TestResolver_Resolve(t *testing.T) {
	alice := &account.Account{ID: 1, Email: "alice@example.com"}

	type testCase struct {
		name      string
		raw       string
		source    *account.Account
		setupMock func(m *transfer.MockAccountDirectory)
		want      transfer.Destination
		wantErr   error
	}

	tests := []testCase{
		{
			name:    "Empty",
			raw:     "",
			source:  alice,
			wantErr: transfer.ErrMissingEmail,
		},
		{
			name:    "Whitespace only",
			raw:     "   ",
			source:  alice,
			wantErr: transfer.ErrMissingEmail,
		},
		{
			name:    "Invalid syntax",
			raw:     "bob-at-example.com",
			source:  alice,
			wantErr: transfer.ErrInvalidEmail,
		},
		{
			name:    "Self transfer",
			raw:     "alice@example.com",
			source:  alice,
			wantErr: transfer.ErrSelfTransfer,
		},
		{
			name:   "Self transfer check is case sensitive",
			raw:    "Alice@Example.com",
			source: alice,
			setupMock: func(m *transfer.MockAccountDirectory) {
				m.EXPECT().FindByEmail(gomock.Any(), "Alice@Example.com").Return(nil, account.ErrNotFound)
			},
			want: transfer.UnresolvedEmail{Email: "Alice@Example.com"},
		},
		{
			name:   "Registered account",
			raw:    " bob@example.com ",
			source: alice,
			setupMock: func(m *transfer.MockAccountDirectory) {
				m.EXPECT().FindByEmail(gomock.Any(), "bob@example.com").Return(&account.Account{ID: 2, Email: "bob@example.com"}, nil)
			},
			want: transfer.ResolvedAccount{AccountID: 2, Email: "bob@example.com"},
		},
		{
			name:   "Unknown email stays unresolved",
			raw:    "carol@example.com",
			source: alice,
			setupMock: func(m *transfer.MockAccountDirectory) {
				m.EXPECT().FindByEmail(gomock.Any(), "carol@example.com").Return(nil, account.ErrNotFound)
			},
			want: transfer.UnresolvedEmail{Email: "carol@example.com"},
		},
		{
			name:   "Guest skips self transfer rule",
			raw:    "alice@example.com",
			source: nil,
			setupMock: func(m *transfer.MockAccountDirectory) {
				m.EXPECT().FindByEmail(gomock.Any(), "alice@example.com").Return(alice, nil)
			},
			want: transfer.ResolvedAccount{AccountID: 1, Email: "alice@example.com"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			dir := transfer.NewMockAccountDirectory(ctrl)
			if tt.setupMock != nil {
				tt.setupMock(dir)
			}

			got, err := transfer.NewResolver(dir).Resolve(context.Background(), tt.raw, tt.source)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)

				var verr *transfer.ValidationError
				assert.True(t, errors.As(err, &verr))
				assert.Nil(t, got)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolver_Resolve_DirectoryError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	dir := transfer.NewMockAccountDirectory(ctrl)
	dir.EXPECT().FindByEmail(gomock.Any(), "bob@example.com").Return(nil, errors.New("db down"))

	_, err := transfer.NewResolver(dir).Resolve(context.Background(), "bob@example.com", nil)
	require.Error(t, err)

	var verr *transfer.ValidationError
	assert.False(t, errors.As(err, &verr))
}
