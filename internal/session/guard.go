package session

import (
	"net/http"

	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/ginext"

	"tedxcmr/internal/dto"
)

const contextKey = "session"

type CookieConfig struct {
	Name   string
	Secure bool
}

// Guard owns the admin flag lifecycle: set by Authenticate, read by
// IsAuthenticated, dropped by Clear or expiry.
type Guard struct {
	store    *Store
	verifier Verifier
	cookie   CookieConfig
	log      *zerolog.Logger
}

func NewGuard(store *Store, verifier Verifier, cookie CookieConfig, log *zerolog.Logger) *Guard {
	return &Guard{
		store:    store,
		verifier: verifier,
		cookie:   cookie,
		log:      log,
	}
}

// Authenticate marks sess as admin when the verifier accepts the pair. The
// session gets a new id on success so an id issued before login is never
// promoted.
func (g *Guard) Authenticate(sess *Session, username, password string) bool {
	if sess == nil || !g.verifier.Verify(username, password) {
		return false
	}
	g.store.Delete(sess.ID)
	fresh := g.store.New()
	*sess = *fresh
	sess.Admin = true
	g.store.Save(sess)
	return true
}

func (g *Guard) IsAuthenticated(sess *Session) bool {
	return sess != nil && sess.Admin && g.store.now().Before(sess.ExpiresAt)
}

// Clear is idempotent.
func (g *Guard) Clear(sess *Session) {
	if sess == nil {
		return
	}
	sess.Admin = false
	g.store.Delete(sess.ID)
}

// Middleware attaches the caller's session, or a fresh anonymous one, to the
// request context.
func (g *Guard) Middleware() ginext.HandlerFunc {
	return func(c *ginext.Context) {
		var sess *Session
		if id, err := c.Cookie(g.cookie.Name); err == nil && id != "" {
			sess, _ = g.store.Get(id)
		}
		if sess == nil {
			sess = g.store.New()
		}
		c.Set(contextKey, sess)
		c.Next()
	}
}

// RequireAdmin aborts with 401 before the handler runs, so a rejected call has
// no side effect.
func (g *Guard) RequireAdmin() ginext.HandlerFunc {
	return func(c *ginext.Context) {
		if !g.IsAuthenticated(FromContext(c)) {
			g.log.Warn().
				Str("path", c.FullPath()).
				Str("ip", c.ClientIP()).
				Msg("admin access denied")
			dto.UnauthorizedError(c)
			return
		}
		c.Next()
	}
}

func (g *Guard) WriteCookie(c *ginext.Context, sess *Session) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(g.cookie.Name, sess.ID, int(g.store.TTL().Seconds()), "/", "", g.cookie.Secure, true)
}

func (g *Guard) ExpireCookie(c *ginext.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(g.cookie.Name, "", -1, "/", "", g.cookie.Secure, true)
}

func FromContext(c *ginext.Context) *Session {
	v, ok := c.Get(contextKey)
	if !ok {
		return nil
	}
	sess, _ := v.(*Session)
	return sess
}
