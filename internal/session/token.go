package session

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"battleship/internal/game"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid reconnect token")

// TokenIssuer выпускает подписанные токены переподключения, привязанные к
// партии и стороне. Снимают неоднозначность при совпадении имен
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

type reconnectClaims struct {
	GameID string `json:"gid"`
	Side   int    `json:"side"`
	jwt.RegisteredClaims
}

// NewTokenIssuer: пустой secret - генерируется случайный на время жизни процесса
func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	key := []byte(secret)
	if len(key) == 0 {
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			panic(fmt.Sprintf("token secret: %v", err))
		}
		key = []byte(hex.EncodeToString(buf))
	}
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &TokenIssuer{secret: key, ttl: ttl}
}

func (t *TokenIssuer) Issue(gameID string, side game.Side) (string, error) {
	now := time.Now()
	claims := reconnectClaims{
		GameID: gameID,
		Side:   int(side),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
			Subject:   gameID + ":" + side.String(),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

func (t *TokenIssuer) Parse(token string) (string, game.Side, error) {
	var claims reconnectClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(tok *jwt.Token) (any, error) {
		return t.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid {
		return "", game.NoSide, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	side := game.Side(claims.Side)
	if claims.GameID == "" || (side != game.Side1 && side != game.Side2) {
		return "", game.NoSide, ErrInvalidToken
	}
	return claims.GameID, side, nil
}
