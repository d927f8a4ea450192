package handlers

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/session"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"painel/internal/config"
	"painel/internal/logger"
	"painel/internal/middleware"
	"painel/internal/models"
)

const (
	sessionKeyOAuthState    = "oauth_state"
	sessionKeyOAuthVerifier = "oauth_verifier"
)

// AuthHandler signs operators in through an OIDC provider. Viewers never
// need to log in; only the cache and reload actions are guarded.
type AuthHandler struct {
	provider *oidc.Provider
	oauth    oauth2.Config
	verifier *oidc.IDTokenVerifier
	cfg      *config.Config
	log      *zap.Logger
}

// NewAuthHandler discovers the provider configured in cfg.
func NewAuthHandler(ctx context.Context, cfg *config.Config) (*AuthHandler, error) {
	provider, err := oidc.NewProvider(ctx, cfg.OIDCIssuer)
	if err != nil {
		return nil, fmt.Errorf("failed to discover OIDC provider: %w", err)
	}

	return &AuthHandler{
		provider: provider,
		oauth: oauth2.Config{
			ClientID:     cfg.OIDCClientID,
			ClientSecret: cfg.OIDCClientSecret,
			RedirectURL:  cfg.OIDCRedirectURL,
			Endpoint:     provider.Endpoint(),
			Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
		},
		verifier: provider.Verifier(&oidc.Config{ClientID: cfg.OIDCClientID}),
		cfg:      cfg,
		log:      logger.Named("auth"),
	}, nil
}

// Login redirects to the provider with a fresh state and PKCE verifier.
func (h *AuthHandler) Login(c fiber.Ctx) error {
	sess := session.FromContext(c)
	if sess == nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Sessão indisponível")
	}

	state, err := randomState()
	if err != nil {
		return err
	}
	pkce := oauth2.GenerateVerifier()
	sess.Set(sessionKeyOAuthState, state)
	sess.Set(sessionKeyOAuthVerifier, pkce)

	return c.Redirect().To(h.oauth.AuthCodeURL(state, oauth2.S256ChallengeOption(pkce)))
}

// Callback finishes the login and stores the operator in the session.
func (h *AuthHandler) Callback(c fiber.Ctx) error {
	sess := session.FromContext(c)
	if sess == nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Sessão indisponível")
	}

	state, _ := sess.Get(sessionKeyOAuthState).(string)
	pkce, _ := sess.Get(sessionKeyOAuthVerifier).(string)
	sess.Delete(sessionKeyOAuthState)
	sess.Delete(sessionKeyOAuthVerifier)
	if state == "" || state != c.Query("state") {
		return fiber.NewError(fiber.StatusBadRequest, "Estado de login inválido")
	}

	op, err := h.exchange(c.Context(), c.Query("code"), pkce)
	if err != nil {
		h.log.Warn("operator login failed", zap.Error(err))
		return fiber.NewError(fiber.StatusBadRequest, "Falha no login")
	}

	middleware.SetOperator(c, op)
	middleware.SetFlash(c, "Conectado como "+op.DisplayName())
	h.log.Info("operator signed in", zap.String("email", op.Email))

	target := "/"
	if saved, ok := sess.Get(middleware.SessionKeyRedirect).(string); ok {
		target = LocalPath(saved, "/")
		sess.Delete(middleware.SessionKeyRedirect)
	}
	return c.Redirect().To(target)
}

// exchange trades the code for tokens and reads the operator claims. Some
// providers only put the subject in the ID token, so userinfo fills the rest.
func (h *AuthHandler) exchange(ctx context.Context, code, pkce string) (*models.Operator, error) {
	token, err := h.oauth.Exchange(ctx, code, oauth2.VerifierOption(pkce))
	if err != nil {
		return nil, fmt.Errorf("code exchange: %w", err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok {
		return nil, errors.New("token response has no id_token")
	}
	idToken, err := h.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("verify id_token: %w", err)
	}

	var op models.Operator
	if err := idToken.Claims(&op); err != nil {
		return nil, fmt.Errorf("decode id_token claims: %w", err)
	}

	if info, err := h.provider.UserInfo(ctx, oauth2.StaticTokenSource(token)); err != nil {
		h.log.Warn("failed to fetch userinfo", zap.Error(err))
	} else if err := info.Claims(&op); err != nil {
		h.log.Warn("failed to decode userinfo", zap.Error(err))
	}

	if h.cfg.IsDev() {
		h.log.Debug("operator claims", zap.Any("operator", op))
	}
	if op.Sub == "" {
		return nil, errors.New("missing subject claim")
	}
	return &op, nil
}

// Logout signs the operator out, keeping viewer preferences.
func (h *AuthHandler) Logout(c fiber.Ctx) error {
	middleware.ClearOperator(c)
	return c.Redirect().To("/")
}

func randomState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
