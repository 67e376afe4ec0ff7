// Package jwt issues and checks the HS256 tokens the realtime layer trusts:
// a connect token identifying the user, and per-conversation subscribe
// tokens scoping channel access.
package jwt

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/quietline/chat-service/internal/model"
)

const tokenTTL = 30 * time.Minute

type Generator struct {
	secret []byte
}

func New(secret string) *Generator {
	return &Generator{secret: []byte(secret)}
}

func (g *Generator) registeredClaims(userID string) (jwt.RegisteredClaims, int64) {
	now := time.Now()
	expiresAt := now.Add(tokenTTL)
	return jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}, expiresAt.Unix()
}

func (g *Generator) sign(claims jwt.Claims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(g.secret)
}

func (g *Generator) keyFunc(token *jwt.Token) (interface{}, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
	}
	return g.secret, nil
}

func (g *Generator) GenerateConnectToken(userID string) (string, int64, error) {
	registered, expiresAt := g.registeredClaims(userID)

	tokenString, err := g.sign(model.CentrifugoConnectClaims{RegisteredClaims: registered})
	if err != nil {
		return "", 0, fmt.Errorf("failed to sign connect token: %w", err)
	}

	return tokenString, expiresAt, nil
}

func (g *Generator) GenerateSubscribeToken(userID, conversationID string) (string, int64, error) {
	registered, expiresAt := g.registeredClaims(userID)

	tokenString, err := g.sign(model.CentrifugoSubscribeClaims{
		RegisteredClaims: registered,
		Channel:          conversationID,
		UserID:           userID,
		ConversationID:   conversationID,
	})
	if err != nil {
		return "", 0, fmt.Errorf("failed to sign subscribe token: %w", err)
	}

	return tokenString, expiresAt, nil
}

func (g *Generator) ValidateConnectToken(tokenString string) (*model.CentrifugoConnectClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &model.CentrifugoConnectClaims{}, g.keyFunc)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connect token: %w", err)
	}

	claims, ok := token.Claims.(*model.CentrifugoConnectClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid connect token")
	}

	return claims, nil
}

func (g *Generator) ValidateSubscribeToken(tokenString string) (*model.CentrifugoSubscribeClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &model.CentrifugoSubscribeClaims{}, g.keyFunc)
	if err != nil {
		return nil, fmt.Errorf("failed to parse subscribe token: %w", err)
	}

	claims, ok := token.Claims.(*model.CentrifugoSubscribeClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid subscribe token")
	}

	return claims, nil
}
