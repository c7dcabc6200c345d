package services

import (
	"fmt"
	"roast-battle/auth"
	"roast-battle/errors"
	"time"
)

type IHostService interface {
	Login(passphrase string) (HostToken, error)
	Authorize(token string) (*auth.HostClaims, error)
	Enabled() bool
}

type HostToken struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// HostService guards the host screen with a single shared passphrase.
// Without a passphrase hash every host operation is open.
type HostService struct {
	passphraseHash string
	issuer         *auth.TokenIssuer
}

func NewHostService(passphraseHash string, issuer *auth.TokenIssuer) *HostService {
	return &HostService{passphraseHash: passphraseHash, issuer: issuer}
}

func (s *HostService) Enabled() bool {
	return s.passphraseHash != "" && s.issuer != nil
}

func (s *HostService) Login(passphrase string) (HostToken, error) {
	if !s.Enabled() {
		return HostToken{}, fmt.Errorf("%w: host login is disabled", errors.ErrInvalidState)
	}
	if err := auth.ValidateLogin(auth.LoginRequest{Passphrase: passphrase}); err != nil {
		return HostToken{}, fmt.Errorf("%w: %v", errors.ErrInvalidArgument, err)
	}

	match, err := auth.ComparePassphrase(passphrase, s.passphraseHash)
	if err != nil || !match {
		return HostToken{}, fmt.Errorf("%w: wrong passphrase", errors.ErrUnauthorized)
	}

	token, expiresAt, err := s.issuer.Issue(auth.HostRole)
	if err != nil {
		return HostToken{}, fmt.Errorf("token generation failed: %w", err)
	}
	return HostToken{Token: token, ExpiresAt: expiresAt}, nil
}

// Authorize checks a host token. It always succeeds when host login is disabled.
func (s *HostService) Authorize(token string) (*auth.HostClaims, error) {
	if !s.Enabled() {
		return &auth.HostClaims{Role: auth.HostRole}, nil
	}
	return s.issuer.Validate(token)
}
