package core

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"log"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
)

const sessionName = "authflow_session"

const (
	sessionTokenValue = "sid"
	csrfTokenValue    = "csrf_token"
	csrfFormField     = "csrf_token"
	csrfHeader        = "X-CSRF-Token"
	ctxSession        = "session"
	ctxUsername       = "username"
)

// SessionMiddleware ensures a session exists and applies consistent cookie options.
// The cookie only ever carries the opaque server-issued token; identity is resolved
// server-side by RequireSession.
func SessionMiddleware(cfg Config, store sessions.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, err := store.Get(c.Request, sessionName)
		if err != nil {
			if session == nil {
				abortWithError(c, http.StatusInternalServerError, codeInternal, "session error")
				return
			}
			// A cookie that fails signature verification comes back as a fresh, empty session.
			log.Printf("[session] discarding invalid session cookie ip=%s err=%v", c.ClientIP(), err)
		}

		applySessionOptions(cfg, session)
		// Save to ensure options are persisted even for anonymous users.
		if err := session.Save(c.Request, c.Writer); err != nil {
			abortWithError(c, http.StatusInternalServerError, codeInternal, "failed to persist session")
			return
		}

		c.Set(ctxSession, session)
		c.Next()
	}
}

// RequireSession resolves the session token to a username through the server-side
// store. Requests without a live session are redirected to /login.
func RequireSession(sessionsStore SessionStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := sessionFrom(c)
		token, _ := sess.Values[sessionTokenValue].(string)
		if token == "" {
			c.Redirect(http.StatusSeeOther, "/login")
			c.Abort()
			return
		}
		ws, err := sessionsStore.Lookup(c.Request.Context(), token)
		if err != nil {
			if !errors.Is(err, ErrSessionNotFound) {
				log.Printf("[session] lookup error ip=%s err=%v", c.ClientIP(), err)
			}
			c.Redirect(http.StatusSeeOther, "/login")
			c.Abort()
			return
		}
		c.Set(ctxUsername, ws.Username)
		c.Next()
	}
}

// OriginRefererMiddleware validates Origin/Referer against allowed list and sets CORS headers.
func OriginRefererMiddleware(cfg Config) gin.HandlerFunc {
	allowed := map[string]struct{}{}
	for _, o := range cfg.AllowedOrigins {
		allowed[strings.ToLower(o)] = struct{}{}
	}

	isAllowed := func(origin string) bool {
		if origin == "" {
			// Same-origin navigation (no Origin header) is allowed.
			return true
		}
		if len(allowed) == 0 {
			return false
		}
		origin = strings.ToLower(origin)
		_, ok := allowed[origin]
		return ok
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		referer := c.GetHeader("Referer")
		if origin == "" && referer != "" {
			if u, err := url.Parse(referer); err == nil {
				origin = u.Scheme + "://" + u.Host
			}
		}

		// Preflight handling
		if c.Request.Method == http.MethodOptions && origin != "" {
			if !isAllowed(origin) {
				abortWithError(c, http.StatusForbidden, codeForbidden, "origin not allowed")
				return
			}
			setCORSHeaders(c, origin)
			c.Status(http.StatusNoContent)
			c.Abort()
			return
		}

		if !isAllowed(origin) {
			abortWithError(c, http.StatusForbidden, codeForbidden, "origin not allowed")
			return
		}
		if origin != "" {
			setCORSHeaders(c, origin)
		}
		c.Next()
	}
}

func setCORSHeaders(c *gin.Context, origin string) {
	c.Header("Access-Control-Allow-Origin", origin)
	c.Header("Vary", "Origin")
	c.Header("Access-Control-Allow-Credentials", "true")
	c.Header("Access-Control-Allow-Headers", "Content-Type, X-CSRF-Token, X-API-Key")
	c.Header("Access-Control-Allow-Methods", "GET, POST")
}

// CSRFMiddleware issues and validates a per-session CSRF token.
// Forms submit it as the csrf_token field, scripted clients as the X-CSRF-Token header.
func CSRFMiddleware(cfg Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessionFrom(c)
		if session == nil {
			abortWithError(c, http.StatusInternalServerError, codeInternal, "session error")
			return
		}

		token, _ := session.Values[csrfTokenValue].(string)
		if token == "" {
			var err error
			token, err = generateCSRFToken()
			if err != nil {
				abortWithError(c, http.StatusInternalServerError, codeInternal, "failed to issue csrf token")
				return
			}
			session.Values[csrfTokenValue] = token
			applySessionOptions(cfg, session)
			if err := session.Save(c.Request, c.Writer); err != nil {
				abortWithError(c, http.StatusInternalServerError, codeInternal, "failed to persist session")
				return
			}
		}

		if !isSafeMethod(c.Request.Method) {
			submitted := c.GetHeader(csrfHeader)
			if submitted == "" {
				submitted = c.PostForm(csrfFormField)
			}
			if submitted == "" || subtle.ConstantTimeCompare([]byte(submitted), []byte(token)) != 1 {
				log.Printf("[csrf] rejected %s %s ip=%s", c.Request.Method, c.Request.URL.Path, c.ClientIP())
				abortWithError(c, http.StatusForbidden, codeForbidden, "invalid csrf token")
				return
			}
		}

		// Expose token so frontend can read and reuse.
		c.Writer.Header().Set(csrfHeader, token)
		c.Set(csrfTokenValue, token)
		c.Next()
	}
}

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return true
	default:
		return false
	}
}

func generateCSRFToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func sessionFrom(c *gin.Context) *sessions.Session {
	sessionAny, _ := c.Get(ctxSession)
	sess, _ := sessionAny.(*sessions.Session)
	return sess
}

func applySessionOptions(cfg Config, session *sessions.Session) {
	if session.Options == nil {
		session.Options = &sessions.Options{}
	}
	session.Options.Path = "/"
	session.Options.MaxAge = int(cfg.SessionTTL.Seconds())
	session.Options.HttpOnly = true
	session.Options.Secure = cfg.CookieSecure
	session.Options.SameSite = sameSiteFromString(cfg.CookieSameSite)
}

func sameSiteFromString(v string) http.SameSite {
	switch strings.ToLower(v) {
	case "lax":
		return http.SameSiteLaxMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteStrictMode
	}
}
