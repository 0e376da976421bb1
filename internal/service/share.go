package service

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/viper"
)

// Share mints and redeems share-link tokens: short-lived HS256 JWTs that
// name a single file. The token only carries the file ID; expiry and
// tombstone checks still happen on redeem like on any other download.
type Share struct {
	secret []byte
	ttl    time.Duration
}

func NewShare() *Share {
	return &Share{
		secret: []byte(viper.GetString("share.secret")),
		ttl:    time.Duration(viper.GetInt("share.token_minutes")) * time.Minute,
	}
}

// Mint returns a signed token granting download of fileID until the token
// expires.
func (s *Share) Mint(fileID string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"file_id": fileID,
		"exp":     time.Now().Add(s.ttl).Unix(),
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign share token, %w", err)
	}

	return signed, nil
}

// Redeem validates a token and returns the file ID it grants. Forged,
// malformed and expired tokens all come back as ErrAuth.
func (s *Share) Redeem(tokenStr string) (string, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method: %s", t.Method.Alg())
		}

		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return "", ErrAuth
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrAuth
	}

	fileID, ok := claims["file_id"].(string)
	if !ok || fileID == "" {
		return "", ErrAuth
	}

	return fileID, nil
}
