package utils

import (
	"strings"
	"time"
	"tutorium/backend/config"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// TokenPair is the access/refresh pair returned by auth endpoints.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// TokenClaims is the verified payload of a token.
type TokenClaims struct {
	UserID uint
	Role   string
	Type   string
}

func GenerateTokenPair(userID uint, role string, cfg *config.Config) (TokenPair, error) {
	access, err := signToken(userID, role, TokenTypeAccess, cfg.AccessTokenTTL, cfg)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := signToken(userID, role, TokenTypeRefresh, cfg.RefreshTokenTTL, cfg)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func signToken(userID uint, role, tokenType string, ttl time.Duration, cfg *config.Config) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"role":    role,
		"type":    tokenType,
		"exp":     time.Now().Add(ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(cfg.JWTSecret))
}

// VerifyToken parses tokenString and checks both the signature and the type
// discriminator. A refresh token never passes an access check and vice versa.
func VerifyToken(tokenString, wantType string, cfg *config.Config) (*TokenClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid signing method")
		}
		return []byte(cfg.JWTSecret), nil
	})
	if err != nil {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid token claims")
	}

	tokenType, _ := claims["type"].(string)
	if tokenType != wantType {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "Wrong token type")
	}

	userIDFloat, ok := claims["user_id"].(float64)
	if !ok {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid user ID in token")
	}
	role, _ := claims["role"].(string)

	return &TokenClaims{
		UserID: uint(userIDFloat),
		Role:   role,
		Type:   tokenType,
	}, nil
}

// ExtractUserIDFromToken reads the bearer access token from the Authorization
// header. Controllers call this directly on every authenticated route.
func ExtractUserIDFromToken(c *fiber.Ctx, cfg *config.Config) (uint, error) {
	claims, err := ExtractClaimsFromRequest(c, cfg)
	if err != nil {
		return 0, err
	}
	return claims.UserID, nil
}

func ExtractClaimsFromRequest(c *fiber.Ctx, cfg *config.Config) (*TokenClaims, error) {
	tokenString := c.Get("Authorization")
	if tokenString == "" {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "Missing authorization token")
	}
	tokenString = strings.TrimPrefix(tokenString, "Bearer ")

	return VerifyToken(tokenString, TokenTypeAccess, cfg)
}
