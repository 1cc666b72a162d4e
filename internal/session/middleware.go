package session

import (
	"context"
	"net/http"
	"strings"

	"github.com/noah-isme/toko-storefront/internal/common"
)

// HeaderName carries the session id on requests and responses.
const HeaderName = "X-Session-ID"

type ctxKey struct{}

type entry struct {
	sess    *Session
	created bool
}

// WithSession stores sess on the context as a session that already existed.
func WithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, entry{sess: sess})
}

func withNewSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, entry{sess: sess, created: true})
}

// FromContext extracts the session placed by Middleware.
func FromContext(ctx context.Context) (*Session, bool) {
	if ctx == nil {
		return nil, false
	}
	e, ok := ctx.Value(ctxKey{}).(entry)
	return e.sess, ok && e.sess != nil
}

// EstablishedID returns the session id when the request named a session that
// existed before it arrived. Sessions minted for the request report false.
func EstablishedID(r *http.Request) (string, bool) {
	e, ok := r.Context().Value(ctxKey{}).(entry)
	if !ok || e.sess == nil || e.created {
		return "", false
	}
	return e.sess.ID, true
}

// Middleware resolves the session named by the request header, minting one when
// absent or unknown, and echoes its id on the response. When CreateGuard refuses
// a new session the request is answered with 429.
func (s *Store) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(HeaderName))
		if sess, ok := s.Get(id); ok {
			w.Header().Set(HeaderName, sess.ID)
			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), sess)))
			return
		}
		if s.CreateGuard != nil && !s.CreateGuard(r) {
			common.JSONError(w, http.StatusTooManyRequests, "RATE_LIMITED", "too many new sessions, try again later", nil)
			return
		}
		sess, created := s.Acquire(id)
		w.Header().Set(HeaderName, sess.ID)
		ctx := WithSession(r.Context(), sess)
		if created {
			ctx = withNewSession(r.Context(), sess)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
