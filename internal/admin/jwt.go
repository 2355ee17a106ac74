package admin

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken is returned when token validation fails
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken is returned when token is expired
	ErrExpiredToken = errors.New("token expired")
	// ErrInvalidClaims is returned when claims are invalid
	ErrInvalidClaims = errors.New("invalid claims")
)

// RoleAdmin is the only role accepted on admin routes
const RoleAdmin = "admin"

// DefaultIssuer is the iss claim of tokens minted by this service
const DefaultIssuer = "selfielens"

// Claims represents the JWT claims of a dashboard operator
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// JWTService signs and validates admin tokens with HS256
type JWTService struct {
	secretKey []byte
	issuer    string
	expiresIn time.Duration
}

// NewJWTService creates a new JWT service
func NewJWTService(secretKey, issuer string, expiresIn time.Duration) *JWTService {
	return &JWTService{
		secretKey: []byte(secretKey),
		issuer:    issuer,
		expiresIn: expiresIn,
	}
}

// GenerateToken mints a token for subject with role
func (s *JWTService) GenerateToken(subject, role string) (string, error) {
	now := time.Now()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiresIn)),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secretKey)
}

// ValidateToken validates and parses a JWT token
func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secretKey, nil
	}, jwt.WithIssuer(s.issuer))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidClaims
	}

	return claims, nil
}
