package services

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"healthwatch/internal/config"
)

const tokenIssuer = "healthwatch"

// AuthService issues and validates the JWTs that guard the tick stream.
type AuthService struct {
	secretKey   []byte
	tokenExpiry time.Duration
	now         func() time.Time
}

// CustomClaims represents the JWT claims structure
type CustomClaims struct {
	ServerName string `json:"server_name"`
	jwt.RegisteredClaims
}

// NewAuthService uses secretKey when set. Otherwise the key is loaded from
// keyFile (default ~/.healthwatch-secret-key), generating and persisting a
// new one on first use so tokens survive restarts.
func NewAuthService(secretKey, keyFile string, tokenExpiry time.Duration, logger zerolog.Logger) (*AuthService, error) {
	secretKey = strings.TrimSpace(secretKey)
	if secretKey == "" {
		var err error
		secretKey, err = loadOrCreateSecret(keyFile, logger)
		if err != nil {
			return nil, err
		}
	}

	if len(secretKey) < config.MinSecretLength {
		return nil, fmt.Errorf("secret key is %d bytes, need at least %d", len(secretKey), config.MinSecretLength)
	}

	if tokenExpiry <= 0 {
		tokenExpiry = 90 * 24 * time.Hour
	}

	return &AuthService{
		secretKey:   []byte(secretKey),
		tokenExpiry: tokenExpiry,
		now:         time.Now,
	}, nil
}

// DefaultSecretKeyFile is where a generated key is persisted.
func DefaultSecretKeyFile() string {
	homeDir, err := os.UserHomeDir()
	if err != nil || homeDir == "" {
		homeDir = os.TempDir()
	}
	return filepath.Join(homeDir, ".healthwatch-secret-key")
}

func loadOrCreateSecret(keyFile string, logger zerolog.Logger) (string, error) {
	if keyFile == "" {
		keyFile = DefaultSecretKeyFile()
	}

	if data, err := os.ReadFile(keyFile); err == nil && len(strings.TrimSpace(string(data))) > 0 {
		logger.Debug().Str("file", keyFile).Msg("loaded persisted secret key")
		return strings.TrimSpace(string(data)), nil
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("read secret key %s: %w", keyFile, err)
	}

	randomBytes := make([]byte, 32)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", fmt.Errorf("generate secret key: %w", err)
	}

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "healthwatch-agent"
	}
	secretKey := fmt.Sprintf("healthwatch-%s-%s", hostname, hex.EncodeToString(randomBytes))

	if err := os.WriteFile(keyFile, []byte(secretKey), 0o600); err != nil {
		logger.Warn().Err(err).Str("file", keyFile).Msg("could not persist secret key, tokens will not survive a restart")
	} else {
		logger.Info().Str("file", keyFile).Msg("generated and persisted secret key")
	}
	return secretKey, nil
}

// GenerateToken creates a new JWT token with server details
func (a *AuthService) GenerateToken(serverName string) (string, error) {
	now := a.now()

	claims := CustomClaims{
		ServerName: serverName,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(a.tokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.secretKey)
}

// ValidateToken verifies and parses a JWT token
func (a *AuthService) ValidateToken(tokenString string) (*CustomClaims, error) {
	claims := &CustomClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.secretKey, nil
	}, jwt.WithIssuer(tokenIssuer), jwt.WithTimeFunc(a.now))
	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	return claims, nil
}

// TokenExpiry returns how long issued tokens stay valid
func (a *AuthService) TokenExpiry() time.Duration {
	return a.tokenExpiry
}
