package backendfake

import (
	"context"
	"net/http"
)

type ctxKey struct{}

func withUsername(ctx context.Context, username string) context.Context {
	return context.WithValue(ctx, ctxKey{}, username)
}

func usernameFrom(r *http.Request) string {
	username, _ := r.Context().Value(ctxKey{}).(string)
	return username
}
