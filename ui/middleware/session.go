package middleware

import (
	"context"
	"log"
	"net/http"
	"regexp"

	"gopivot/domain/core"
)

// SessionCookie names the cookie carrying the browser session id.
const SessionCookie = "PIVOTSESSION"

type sessionKey struct{}

var sessionPattern = regexp.MustCompile(`^[A-Za-z0-9-]{1,64}$`)

// EnsureSession makes sure every request carries a session id, issuing a
// cookie for clients that have none. The id is only used to group usage
// log events.
func EnsureSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := ""
		if c, err := r.Cookie(SessionCookie); err == nil && sessionPattern.MatchString(c.Value) {
			id = c.Value
		}
		if id == "" {
			id = core.NewID().String()
			http.SetCookie(w, &http.Cookie{
				Name:     SessionCookie,
				Value:    id,
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
			log.Printf("[EnsureSession] Issued session %s to %s", id, r.RemoteAddr)
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey{}, id)))
	})
}

// SessionID returns the session id stored by EnsureSession.
func SessionID(ctx context.Context) string {
	id, _ := ctx.Value(sessionKey{}).(string)
	return id
}
