package utils

import (
	"context"
)

type contextKey string

const (
	EmailKey contextKey = "email"
	TokenKey contextKey = "token"
)

// GetEmailFromContext returns the verified caller email set by the auth middleware.
func GetEmailFromContext(ctx context.Context) (string, bool) {
	email, ok := ctx.Value(EmailKey).(string)
	if !ok || email == "" {
		return "", false
	}
	return email, true
}

func SetEmailContext(ctx context.Context, email string) context.Context {
	return context.WithValue(ctx, EmailKey, email)
}

func GetTokenFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(TokenKey).(string)
	return token, ok
}

func SetTokenContext(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, TokenKey, token)
}
