package utils

import (
	"time"

	"vod-catalog/infrastructure/logger"

	"github.com/golang-jwt/jwt"
)

func GetCurrentTime() time.Time {
	return time.Now().UTC()
}

func GenerateToken(payload map[string]interface{}, secretKey string) (string, error) {
	var claims jwt.MapClaims = payload
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(secretKey))
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Error while generate token")
		return "", err
	}
	return tokenString, nil
}

// GenerateAdminToken signs a token accepted by the admin endpoints for ttl.
func GenerateAdminToken(userName, secretKey string, ttl time.Duration) (string, error) {
	now := GetCurrentTime()
	return GenerateToken(map[string]interface{}{
		"username": userName,
		"role":     "admin",
		"iat":      now.Unix(),
		"exp":      now.Add(ttl).Unix(),
	}, secretKey)
}
