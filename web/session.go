package web

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/segmentio/ksuid"

	"inkblog/auth"
)

const (
	sessionCookie = "inkblog_session"
	visitorCookie = "inkblog_vid"
	visitorKey    = "web.visitor"
	sessionKey    = "web.session"
)

// session is what the cookie carries. UserID is not stored: it is read back
// from the token so a session always names the user its token belongs to.
type session struct {
	UserID   string `json:"-"`
	Username string `json:"username"`
	Token    string `json:"token"`
}

func encodeSession(s session) (string, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func decodeSession(v string) (*session, bool) {
	b, err := base64.RawURLEncoding.DecodeString(v)
	if err != nil {
		return nil, false
	}
	var s session
	if err := json.Unmarshal(b, &s); err != nil || s.Token == "" {
		return nil, false
	}
	if s.UserID, err = auth.UnverifiedUserID(s.Token); err != nil {
		return nil, false
	}
	return &s, true
}

// identify loads the session cookie, if any, and gives every browser a
// visitor id the in-flight guard is keyed on.
func (s *Server) identify() gin.HandlerFunc {
	return func(c *gin.Context) {
		vid, err := c.Cookie(visitorCookie)
		if err != nil || vid == "" {
			vid = ksuid.New().String()
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(visitorCookie, vid, 0, "/", "", s.SecureCookies, true)
		}
		c.Set(visitorKey, vid)

		if raw, err := c.Cookie(sessionCookie); err == nil {
			if sess, ok := decodeSession(raw); ok {
				c.Set(sessionKey, sess)
			}
		}
		c.Next()
	}
}

func currentSession(c *gin.Context) *session {
	v, ok := c.Get(sessionKey)
	if !ok {
		return nil
	}
	sess, _ := v.(*session)
	return sess
}

func (s *Server) setSession(c *gin.Context, sess session) error {
	v, err := encodeSession(sess)
	if err != nil {
		return err
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookie, v, int(s.SessionTTL.Seconds()), "/", "", s.SecureCookies, true)
	return nil
}

func (s *Server) clearSession(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookie, "", -1, "/", "", s.SecureCookies, true)
}

// requireSession sends anonymous visitors to the sign-in page.
func requireSession(c *gin.Context) {
	if currentSession(c) == nil {
		c.Redirect(http.StatusSeeOther, "/signin")
		c.Abort()
		return
	}
	c.Next()
}

// guard allows one outstanding submission per visitor and form.
type guard struct {
	mu   sync.Mutex
	busy map[string]struct{}
}

func newGuard() *guard { return &guard{busy: map[string]struct{}{}} }

func (g *guard) acquire(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.busy[key]; ok {
		return false
	}
	g.busy[key] = struct{}{}
	return true
}

func (g *guard) release(key string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.busy, key)
}
