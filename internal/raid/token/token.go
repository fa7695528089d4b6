// Package token issues and verifies exploration event continuation tokens.
//
// Tokens are short-lived ed25519 JWTs binding a player, the event they are
// resolving, and a one-shot nonce. Signing material is injected through the
// environment; there is no built-in key and startup fails without one.
package token

import (
	"crypto/ed25519"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	apperrors "github.com/louisbranch/extraction.zone/internal/platform/errors"
)

// DefaultTTL bounds how long a pending event choice stays valid.
const DefaultTTL = 10 * time.Minute

// tokenEnv holds raw env values before post-parse validation.
type tokenEnv struct {
	Issuer     string `env:"EXTRACTION_ZONE_EVENT_TOKEN_ISSUER"`
	Audience   string `env:"EXTRACTION_ZONE_EVENT_TOKEN_AUDIENCE"`
	PrivateKey string `env:"EXTRACTION_ZONE_EVENT_TOKEN_PRIVATE_KEY"`
}

// Config defines how event tokens are signed and verified.
type Config struct {
	Issuer   string
	Audience string
	Private  ed25519.PrivateKey
	Public   ed25519.PublicKey
	TTL      time.Duration
	Now      func() time.Time
}

// Claims captures a validated event token.
type Claims struct {
	PlayerKey string
	EventID   string
	Nonce     string
	ExpiresAt time.Time
}

// eventClaims is the internal claims type used for JWT parsing.
type eventClaims struct {
	jwt.RegisteredClaims
	PlayerKey string `json:"player_key"`
	EventID   string `json:"event_id"`
	Nonce     string `json:"nonce"`
}

// LoadConfigFromEnv reads event token configuration. Every field is
// required; a deployment without signing material must not come up.
func LoadConfigFromEnv(now func() time.Time) (Config, error) {
	var raw tokenEnv
	if err := env.Parse(&raw); err != nil {
		return Config{}, fmt.Errorf("parse event token env: %w", err)
	}
	issuer := strings.TrimSpace(raw.Issuer)
	audience := strings.TrimSpace(raw.Audience)
	privateKey := strings.TrimSpace(raw.PrivateKey)
	if issuer == "" {
		return Config{}, fmt.Errorf("EXTRACTION_ZONE_EVENT_TOKEN_ISSUER is required")
	}
	if audience == "" {
		return Config{}, fmt.Errorf("EXTRACTION_ZONE_EVENT_TOKEN_AUDIENCE is required")
	}
	if privateKey == "" {
		return Config{}, fmt.Errorf("EXTRACTION_ZONE_EVENT_TOKEN_PRIVATE_KEY is required")
	}
	keyBytes, err := decodeBase64(privateKey)
	if err != nil {
		return Config{}, fmt.Errorf("decode event token private key: %w", err)
	}
	if len(keyBytes) != ed25519.PrivateKeySize {
		return Config{}, fmt.Errorf("event token private key must be %d bytes", ed25519.PrivateKeySize)
	}
	if now == nil {
		now = time.Now
	}
	private := ed25519.PrivateKey(keyBytes)
	return Config{
		Issuer:   issuer,
		Audience: audience,
		Private:  private,
		Public:   private.Public().(ed25519.PublicKey),
		TTL:      DefaultTTL,
		Now:      now,
	}, nil
}

// Issue signs a continuation token for a player's pending event.
func Issue(cfg Config, playerKey, eventID string) (string, Claims, error) {
	playerKey = strings.TrimSpace(playerKey)
	eventID = strings.TrimSpace(eventID)
	if playerKey == "" || eventID == "" {
		return "", Claims{}, errors.New("player key and event id are required")
	}
	if len(cfg.Private) != ed25519.PrivateKeySize {
		return "", Claims{}, errors.New("event token signer is not configured")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	now := cfg.Now().UTC()
	claims := Claims{
		PlayerKey: playerKey,
		EventID:   eventID,
		Nonce:     uuid.NewString(),
		ExpiresAt: now.Add(ttl),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodEdDSA, eventClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			Audience:  jwt.ClaimStrings{cfg.Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(claims.ExpiresAt),
			ID:        claims.Nonce,
		},
		PlayerKey: playerKey,
		EventID:   eventID,
		Nonce:     claims.Nonce,
	}).SignedString(cfg.Private)
	if err != nil {
		return "", Claims{}, fmt.Errorf("sign event token: %w", err)
	}
	return signed, claims, nil
}

// Verify checks a continuation token's signature and claims for a player.
// Binding the token to the active event is the caller's job; Verify only
// guarantees the token is authentic, unexpired, and owned by the player.
func Verify(cfg Config, tokenString, playerKey string) (Claims, error) {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return Claims{}, apperrors.New(apperrors.CodeEventTokenInvalid, "event token is required")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Issuer == "" || cfg.Audience == "" || len(cfg.Public) != ed25519.PublicKeySize {
		return Claims{}, errors.New("event token verifier is not configured")
	}

	var parsed eventClaims
	_, err := jwt.ParseWithClaims(tokenString, &parsed, func(token *jwt.Token) (any, error) {
		return cfg.Public, nil
	},
		jwt.WithValidMethods([]string{"EdDSA"}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return Claims{}, mapJWTError(err)
	}

	if parsed.Issuer == "" || parsed.Issuer != cfg.Issuer {
		return Claims{}, apperrors.WithMetadata(apperrors.CodeEventTokenInvalid,
			"event token issuer mismatch", map[string]string{"field": "issuer"})
	}
	if !audienceContains(parsed.Audience, cfg.Audience) {
		return Claims{}, apperrors.WithMetadata(apperrors.CodeEventTokenInvalid,
			"event token audience mismatch", map[string]string{"field": "audience"})
	}
	if parsed.ExpiresAt == nil {
		return Claims{}, apperrors.New(apperrors.CodeEventTokenInvalid, "event token exp is required")
	}

	now := cfg.Now().UTC()
	exp := parsed.ExpiresAt.Time.UTC()
	if !exp.After(now) {
		return Claims{}, apperrors.New(apperrors.CodeEventTokenExpired, "event token is expired")
	}

	if strings.TrimSpace(parsed.PlayerKey) == "" || parsed.PlayerKey != playerKey {
		return Claims{}, apperrors.WithMetadata(apperrors.CodeEventTokenMismatch,
			"event token player mismatch", map[string]string{"field": "player_key"})
	}
	if strings.TrimSpace(parsed.EventID) == "" {
		return Claims{}, apperrors.New(apperrors.CodeEventTokenInvalid, "event token event id is required")
	}

	return Claims{
		PlayerKey: parsed.PlayerKey,
		EventID:   parsed.EventID,
		Nonce:     parsed.Nonce,
		ExpiresAt: exp,
	}, nil
}

// mapJWTError translates jwt library errors to application errors.
func mapJWTError(err error) error {
	if errors.Is(err, jwt.ErrTokenSignatureInvalid) || errors.Is(err, jwt.ErrEd25519Verification) {
		return apperrors.New(apperrors.CodeEventTokenInvalid, "event token signature is invalid")
	}
	if errors.Is(err, jwt.ErrTokenUnverifiable) {
		return apperrors.New(apperrors.CodeEventTokenInvalid, "event token alg is invalid")
	}
	return apperrors.New(apperrors.CodeEventTokenInvalid, "event token is invalid")
}

// audienceContains reports whether the audience list contains the value.
func audienceContains(aud jwt.ClaimStrings, value string) bool {
	for _, item := range aud {
		if item == value {
			return true
		}
	}
	return false
}

func decodeBase64(value string) ([]byte, error) {
	if value == "" {
		return nil, errors.New("empty base64 value")
	}
	decoded, err := base64.RawStdEncoding.DecodeString(value)
	if err == nil {
		return decoded, nil
	}
	return base64.StdEncoding.DecodeString(value)
}
