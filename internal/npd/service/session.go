package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/aussiebroadwan/npd/internal/npd/domain"
	"github.com/aussiebroadwan/npd/internal/npd/store"
	"github.com/aussiebroadwan/npd/pkg/cryptox"
	"github.com/aussiebroadwan/npd/pkg/npdsdk"
)

// ErrNoSession is returned by Load when nothing has been saved yet.
var ErrNoSession = errors.New("no stored session")

// SessionService persists exported client sessions. Tokens are sealed before
// they reach the store.
type SessionService struct {
	Store  store.Store
	Sealer *cryptox.Sealer
}

// Load returns the stored session for inn, or the most recently saved one
// when inn is empty.
func (s *SessionService) Load(ctx context.Context, inn string) (npdsdk.AuthInfo, error) {
	var (
		sess domain.Session
		err  error
	)
	if inn == "" {
		sess, err = s.Store.Sessions().GetLatestSession(ctx)
	} else {
		sess, err = s.Store.Sessions().GetSession(ctx, inn)
	}
	if errors.Is(err, store.ErrNotFound) {
		return npdsdk.AuthInfo{}, ErrNoSession
	}
	if err != nil {
		return npdsdk.AuthInfo{}, err
	}

	token, err := s.Sealer.Open(sess.SealedToken)
	if err != nil {
		return npdsdk.AuthInfo{}, fmt.Errorf("failed to open stored access token: %w", err)
	}
	refresh, err := s.Sealer.Open(sess.SealedRefreshToken)
	if err != nil {
		return npdsdk.AuthInfo{}, fmt.Errorf("failed to open stored refresh token: %w", err)
	}

	return npdsdk.AuthInfo{
		INN:            sess.INN,
		Token:          string(token),
		RefreshToken:   string(refresh),
		TokenExpiresAt: sess.TokenExpiresAt,
		DeviceID:       sess.DeviceID,
	}, nil
}

// Save seals and stores info, replacing any previous session of the same
// taxpayer.
func (s *SessionService) Save(ctx context.Context, info npdsdk.AuthInfo) error {
	if info.INN == "" {
		return errors.New("session has no taxpayer id")
	}

	sealedToken, err := s.Sealer.Seal([]byte(info.Token))
	if err != nil {
		return fmt.Errorf("failed to seal access token: %w", err)
	}
	sealedRefresh, err := s.Sealer.Seal([]byte(info.RefreshToken))
	if err != nil {
		return fmt.Errorf("failed to seal refresh token: %w", err)
	}

	return s.Store.Sessions().SaveSession(ctx, domain.Session{
		INN:                info.INN,
		DeviceID:           info.DeviceID,
		SealedToken:        sealedToken,
		SealedRefreshToken: sealedRefresh,
		TokenExpiresAt:     info.TokenExpiresAt,
	})
}

// Forget drops the stored session of inn.
func (s *SessionService) Forget(ctx context.Context, inn string) error {
	return s.Store.Sessions().DeleteSession(ctx, inn)
}
