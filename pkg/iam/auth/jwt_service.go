package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Abraxas-365/hireflow/pkg/config"
	"github.com/Abraxas-365/hireflow/pkg/kernel"
)

const (
	tokenUseAccess  = "access"
	tokenUseRefresh = "refresh"
)

// JWTService implementación del TokenService usando JWT
type JWTService struct {
	secretKey       []byte
	accessTokenTTL  time.Duration
	refreshTokenTTL time.Duration
	issuer          string
	audience        []string
	now             func() time.Time
}

// NewJWTServiceFromConfig crea una nueva instancia del servicio JWT
func NewJWTServiceFromConfig(cfg *config.JWTConfig) *JWTService {
	return &JWTService{
		secretKey:       []byte(cfg.SecretKey),
		accessTokenTTL:  cfg.AccessTokenTTL,
		refreshTokenTTL: cfg.RefreshTokenTTL,
		issuer:          cfg.Issuer,
		audience:        cfg.Audience,
		now:             time.Now,
	}
}

// JWTClaims personalizados para JWT
type JWTClaims struct {
	UserID   kernel.UserID `json:"user_id"`
	Email    string        `json:"email,omitempty"`
	Name     string        `json:"name,omitempty"`
	Role     kernel.Role   `json:"role,omitempty"`
	Scopes   []string      `json:"scopes,omitempty"`
	TokenUse string        `json:"token_use"`
	jwt.RegisteredClaims
}

func (j *JWTService) AccessTokenTTL() time.Duration  { return j.accessTokenTTL }
func (j *JWTService) RefreshTokenTTL() time.Duration { return j.refreshTokenTTL }

// GenerateAccessToken genera un token de acceso con rol y scopes
func (j *JWTService) GenerateAccessToken(ac *kernel.AuthContext) (string, error) {
	scopes := ac.Scopes
	if scopes == nil {
		scopes = []string{}
	}

	return j.sign(JWTClaims{
		UserID:           ac.UserID,
		Email:            ac.Email,
		Name:             ac.Name,
		Role:             ac.Role,
		Scopes:           scopes,
		TokenUse:         tokenUseAccess,
		RegisteredClaims: j.registered(ac.UserID, j.accessTokenTTL),
	})
}

// GenerateRefreshToken genera un token de refresh sin permisos embebidos
func (j *JWTService) GenerateRefreshToken(userID kernel.UserID) (string, error) {
	return j.sign(JWTClaims{
		UserID:           userID,
		TokenUse:         tokenUseRefresh,
		RegisteredClaims: j.registered(userID, j.refreshTokenTTL),
	})
}

// ValidateAccessToken valida y decodifica un token de acceso
func (j *JWTService) ValidateAccessToken(tokenString string) (*TokenClaims, error) {
	claims, err := j.parse(tokenString, tokenUseAccess)
	if err != nil {
		return nil, ErrTokenValidationFailed().WithDetail("error", err.Error())
	}

	return &TokenClaims{
		UserID:    claims.UserID,
		Email:     claims.Email,
		Name:      claims.Name,
		Role:      claims.Role,
		Scopes:    claims.Scopes,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// ValidateRefreshToken devuelve el usuario dueño de un refresh token válido
func (j *JWTService) ValidateRefreshToken(tokenString string) (kernel.UserID, error) {
	claims, err := j.parse(tokenString, tokenUseRefresh)
	if err != nil {
		return "", ErrInvalidRefreshToken().WithDetail("error", err.Error())
	}
	return claims.UserID, nil
}

func (j *JWTService) registered(userID kernel.UserID, ttl time.Duration) jwt.RegisteredClaims {
	now := j.now()
	return jwt.RegisteredClaims{
		Issuer:    j.issuer,
		Subject:   userID.String(),
		Audience:  j.audience,
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		NotBefore: jwt.NewNumericDate(now),
		IssuedAt:  jwt.NewNumericDate(now),
	}
}

func (j *JWTService) sign(claims JWTClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString(j.secretKey)
	if err != nil {
		return "", ErrTokenGenerationFailed().WithDetail("error", err.Error())
	}

	return tokenString, nil
}

func (j *JWTService) parse(tokenString, use string) (*JWTClaims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(j.now),
	}
	if j.issuer != "" {
		opts = append(opts, jwt.WithIssuer(j.issuer))
	}
	if len(j.audience) > 0 {
		opts = append(opts, jwt.WithAudience(j.audience[0]))
	}

	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (any, error) {
		return j.secretKey, nil
	}, opts...)
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid claims")
	}
	if claims.TokenUse != use {
		return nil, fmt.Errorf("expected %s token, got %q", use, claims.TokenUse)
	}

	return claims, nil
}
