package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/photizon/photizon/internal/model"
)

// TokenType はJWTの用途種別を表す。
type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// Claims はPhotizonのJWTクレームを表す。
type Claims struct {
	UserID    int64      `json:"user_id"`
	Role      model.Role `json:"role"`
	SessionID string     `json:"session_id"`
	TokenType TokenType  `json:"token_type"`
	jwt.RegisteredClaims
}

// TokenPair はアクセストークンとリフレッシュトークンの組を表す。
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// TokenManager はHS256署名のJWTの発行と検証を行う。
type TokenManager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewTokenManager はTokenManagerを生成する。
func NewTokenManager(secret string, accessTTL, refreshTTL time.Duration) *TokenManager {
	return &TokenManager{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// GeneratePair はユーザーに対するアクセス/リフレッシュトークンの組を発行する。
// sessionIDは同一ログインセッションの2トークンを紐付ける識別子。
func (m *TokenManager) GeneratePair(user *model.User, sessionID string) (*TokenPair, error) {
	now := time.Now()

	access, err := m.sign(user, sessionID, TokenTypeAccess, now, now.Add(m.accessTTL))
	if err != nil {
		return nil, fmt.Errorf("アクセストークンの署名に失敗しました: %w", err)
	}

	refresh, err := m.sign(user, sessionID, TokenTypeRefresh, now, now.Add(m.refreshTTL))
	if err != nil {
		return nil, fmt.Errorf("リフレッシュトークンの署名に失敗しました: %w", err)
	}

	return &TokenPair{Access: access, Refresh: refresh}, nil
}

func (m *TokenManager) sign(user *model.User, sessionID string, tokenType TokenType, now, expiresAt time.Time) (string, error) {
	claims := &Claims{
		UserID:    user.ID,
		Role:      user.Role,
		SessionID: sessionID,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// Verify はトークンを検証し、クレームを返す。
// 署名方式の偽装（alg=none等）を拒否するため、HMAC以外の方式は受け付けない。
func (m *TokenManager) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("トークンの検証に失敗しました: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("不正なトークンです")
	}
	return claims, nil
}

// VerifyAccess はアクセストークンのみを受け付ける検証を行う。
func (m *TokenManager) VerifyAccess(tokenString string) (*Claims, error) {
	claims, err := m.Verify(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != TokenTypeAccess {
		return nil, fmt.Errorf("アクセストークンではありません")
	}
	return claims, nil
}

// VerifyRefresh はリフレッシュトークンのみを受け付ける検証を行う。
func (m *TokenManager) VerifyRefresh(tokenString string) (*Claims, error) {
	claims, err := m.Verify(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != TokenTypeRefresh {
		return nil, fmt.Errorf("リフレッシュトークンではありません")
	}
	return claims, nil
}
