// Package auth turns an externally issued ID token into the backend
// identity messages are attributed to. Sign-in is a two step exchange:
// the token is parsed and validated locally, then the profile is
// registered with the backend which answers with the canonical user id.
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"

	"chat-client/domain"
	"chat-client/errors"
	"chat-client/infrastructure/rest"
)

// Claims is the validated profile extracted from the ID token.
type Claims struct {
	UID      string `validate:"required"`
	Name     string `validate:"required"`
	Email    string `validate:"required,email"`
	PhotoURL string
}

type idTokenClaims struct {
	jwt.RegisteredClaims
	Name    string `json:"name"`
	Email   string `json:"email"`
	Picture string `json:"picture"`
}

// TokenParser verifies HMAC signed ID tokens and validates the profile
// claims they carry.
type TokenParser struct {
	secret   []byte
	validate *validator.Validate
}

func NewTokenParser(secret []byte) TokenParser {
	return TokenParser{secret: secret, validate: validator.New()}
}

func (p TokenParser) Parse(token string) (Claims, error) {
	if token == "" {
		return Claims{}, errors.ErrNoToken
	}

	var parsed idTokenClaims
	_, err := jwt.ParseWithClaims(token, &parsed, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return p.secret, nil
	})
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %v", errors.ErrInvalidIdentity, err)
	}

	claims := Claims{
		UID:      parsed.Subject,
		Name:     parsed.Name,
		Email:    parsed.Email,
		PhotoURL: parsed.Picture,
	}
	if err := p.validate.Struct(claims); err != nil {
		return Claims{}, fmt.Errorf("%w: %v", errors.ErrInvalidIdentity, err)
	}
	return claims, nil
}

type registrar interface {
	Register(ctx context.Context, reg rest.Registration) (domain.Identity, error)
}

// Provider serves the current identity snapshot to the engine. Before
// SignIn succeeds there is no identity and outbound messages are
// silently dropped.
type Provider struct {
	mu      sync.RWMutex
	parser  TokenParser
	users   registrar
	log     *slog.Logger
	current *domain.Identity
}

func NewProvider(parser TokenParser, users registrar, log *slog.Logger) *Provider {
	return &Provider{parser: parser, users: users, log: log}
}

// SignIn exchanges the ID token for a registered backend identity.
func (p *Provider) SignIn(ctx context.Context, token string) (domain.Identity, error) {
	claims, err := p.parser.Parse(token)
	if err != nil {
		p.log.Error("Rejecting sign-in token", "error", err)
		return domain.Identity{}, err
	}

	identity, err := p.users.Register(ctx, rest.Registration{
		Name:     claims.Name,
		Email:    claims.Email,
		PhotoURL: claims.PhotoURL,
		UID:      claims.UID,
	})
	if err != nil {
		p.log.Error("Registering user failed", "error", err)
		return domain.Identity{}, err
	}

	p.mu.Lock()
	p.current = &identity
	p.mu.Unlock()

	p.log.Info("Signed in", "user", identity.ID, "name", identity.DisplayName)
	return identity, nil
}

func (p *Provider) SignOut() {
	p.mu.Lock()
	p.current = nil
	p.mu.Unlock()
}

func (p *Provider) Current() (domain.Identity, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.current == nil {
		return domain.Identity{}, false
	}
	return *p.current, true
}
