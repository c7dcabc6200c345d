package services

import (
	"roast-battle/auth"
	"roast-battle/errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestHostService_Login(t *testing.T) {
	hash, err := auth.HashPassphrase("let-the-roast-begin")
	require.NoError(t, err)
	svc := NewHostService(hash, auth.NewTokenIssuer("test-secret", time.Hour))

	t.Run("should issue a token for the right passphrase", func(t *testing.T) {
		req := require.New(t)
		token, err := svc.Login("let-the-roast-begin")
		req.NoError(err)
		req.NotEmpty(token.Token)
		req.True(token.ExpiresAt.After(time.Now()))

		claims, err := svc.Authorize(token.Token)
		req.NoError(err)
		req.Equal(auth.HostRole, claims.Role)
	})

	t.Run("should refuse a wrong passphrase", func(t *testing.T) {
		_, err := svc.Login("wrong-passphrase")
		require.ErrorIs(t, err, errors.ErrUnauthorized)
	})

	t.Run("should refuse a passphrase that is too short", func(t *testing.T) {
		_, err := svc.Login("short")
		require.ErrorIs(t, err, errors.ErrInvalidArgument)
	})

	t.Run("should refuse a forged token", func(t *testing.T) {
		_, err := svc.Authorize("not-a-jwt")
		require.ErrorIs(t, err, errors.ErrUnauthorized)
	})
}

func TestHostService_Disabled(t *testing.T) {
	req := require.New(t)
	svc := NewHostService("", nil)

	req.False(svc.Enabled())
	_, err := svc.Login("let-the-roast-begin")
	req.ErrorIs(err, errors.ErrInvalidState)

	claims, err := svc.Authorize("")
	req.NoError(err)
	req.Equal(auth.HostRole, claims.Role)
}
