package middleware

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/sessions"
)

const (
	// SessionName is the cookie holding the guest session.
	SessionName     = "storefront_session"
	sessionIDField  = "sid"
	guestSessionKey = "guest_session_id"
)

// NewCookieStore returns a signed cookie store for guest sessions.
func NewCookieStore(secret []byte, maxAgeSeconds int, secure bool) *sessions.CookieStore {
	store := sessions.NewCookieStore(secret)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   maxAgeSeconds,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

// GuestSession makes sure every request carries a guest session id, issuing a cookie when missing.
func GuestSession(store sessions.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, err := store.Get(c.Request, SessionName)
		if err != nil {
			// undecodable cookie (rotated secret, tampering): start over
			log.Printf("[session] discarding cookie: %v", err)
		}
		sid, _ := sess.Values[sessionIDField].(string)
		if sid == "" {
			sid = uuid.NewString()
			sess.Values[sessionIDField] = sid
			if err := sess.Save(c.Request, c.Writer); err != nil {
				log.Printf("[session] save failed: %v", err)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "session_failed"})
				return
			}
		}
		c.Set(guestSessionKey, sid)
		c.Next()
	}
}

// GuestSessionID returns the id set by GuestSession.
func GuestSessionID(c *gin.Context) string {
	return c.GetString(guestSessionKey)
}
