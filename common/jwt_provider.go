package common

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type JwtProviderConfig interface {
	AccessTokenExpiresIn() time.Duration
	AccessTokenSecret() string
	TokenIssuer() string
}

// AccessClaims is the payload of an access token. Sub carries the user id.
type AccessClaims struct {
	Sub string `json:"sub"`
	jwt.RegisteredClaims
}

type JWTProvider struct {
	cfg JwtProviderConfig
}

func NewJWTProvider(cfg JwtProviderConfig) *JWTProvider {
	return &JWTProvider{cfg: cfg}
}

// Generate signs an HS256 access token for userID.
func (j *JWTProvider) Generate(userID string) (string, error) {
	if userID == "" {
		return "", errors.New("user id is required")
	}
	now := time.Now()
	claims := AccessClaims{
		Sub: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    j.cfg.TokenIssuer(),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.cfg.AccessTokenExpiresIn())),
			IssuedAt:  jwt.NewNumericDate(now),
			Subject:   userID,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(j.cfg.AccessTokenSecret()))
}

func (j *JWTProvider) Verify(tokenStr string) (*AccessClaims, error) {
	if tokenStr == "" {
		return nil, errors.New("missing token")
	}

	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if issuer := j.cfg.TokenIssuer(); issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}

	token, err := jwt.ParseWithClaims(tokenStr, &AccessClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(j.cfg.AccessTokenSecret()), nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*AccessClaims)
	if !ok || !token.Valid || claims.Sub == "" {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}
