package service

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/aussiebroadwan/npd/internal/npd/store/drivers/sqlite"
	"github.com/aussiebroadwan/npd/pkg/cryptox"
	"github.com/aussiebroadwan/npd/pkg/npdsdk"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?_time_format=sqlite", filepath.Join(t.TempDir(), "npd.db"))
	s, err := sqlite.NewStore(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.ApplyMigrations())
	return s
}

func newTestSessions(t *testing.T) *SessionService {
	t.Helper()

	sealer, err := cryptox.NewSealer("correct horse battery staple")
	require.NoError(t, err)
	return &SessionService{Store: newTestStore(t), Sealer: sealer}
}

func TestSessionRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc := newTestSessions(t)

	_, err := svc.Load(ctx, "")
	require.ErrorIs(t, err, ErrNoSession)

	info := npdsdk.AuthInfo{
		INN:            "123456789012",
		Token:          "access-token",
		RefreshToken:   "refresh-token",
		TokenExpiresAt: time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC),
		DeviceID:       "device-id-abcdefghijklm",
	}
	require.NoError(t, svc.Save(ctx, info))

	got, err := svc.Load(ctx, "")
	require.NoError(t, err)
	require.Equal(t, info.INN, got.INN)
	require.Equal(t, info.Token, got.Token)
	require.Equal(t, info.RefreshToken, got.RefreshToken)
	require.Equal(t, info.DeviceID, got.DeviceID)
	require.True(t, info.TokenExpiresAt.Equal(got.TokenExpiresAt))

	byINN, err := svc.Load(ctx, info.INN)
	require.NoError(t, err)
	require.Equal(t, got.Token, byINN.Token)

	// Tokens are sealed at rest.
	raw, err := svc.Store.Sessions().GetSession(ctx, info.INN)
	require.NoError(t, err)
	require.NotContains(t, string(raw.SealedToken), "access-token")
	require.NotContains(t, string(raw.SealedRefreshToken), "refresh-token")

	require.NoError(t, svc.Forget(ctx, info.INN))
	_, err = svc.Load(ctx, info.INN)
	require.ErrorIs(t, err, ErrNoSession)
}

func TestSessionWrongPassphrase(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc := newTestSessions(t)
	require.NoError(t, svc.Save(ctx, npdsdk.AuthInfo{INN: "1", Token: "a", RefreshToken: "r", TokenExpiresAt: time.Now()}))

	other, err := cryptox.NewSealer("a different passphrase")
	require.NoError(t, err)

	_, err = (&SessionService{Store: svc.Store, Sealer: other}).Load(ctx, "1")
	require.Error(t, err)
}

func TestSessionSaveRequiresINN(t *testing.T) {
	t.Parallel()

	svc := newTestSessions(t)
	require.Error(t, svc.Save(context.Background(), npdsdk.AuthInfo{Token: "a", RefreshToken: "r"}))
}

func TestReceiptJournal(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc := &ReceiptService{Store: newTestStore(t)}

	res := &npdsdk.IncomeResult{
		ID:                  "receipt-1",
		ApprovedReceiptUUID: "receipt-1",
		JSONURL:             "https://example.test/json",
		PrintURL:            "https://example.test/print",
		TotalAmount:         "301.12",
		OperationTime:       time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	rec, err := svc.Record(ctx, "123456789012", res)
	require.NoError(t, err)
	require.False(t, rec.ID.IsZero())

	_, err = svc.Record(ctx, "123456789012", res)
	require.NoError(t, err, "duplicate receipts are ignored")

	list, err := svc.List(ctx, "123456789012", 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "301.12", list[0].TotalAmount)
	require.Equal(t, "https://example.test/print", list[0].PrintURL)
}
