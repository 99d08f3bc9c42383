package core

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

// User-facing messages. They never distinguish an unknown user from a wrong password.
const (
	msgInvalidCredentials = "Invalid credentials"
	msgLoginFailed        = "Error during login"
	msgUserExists         = "Username already exists"
	msgSignupInvalid      = "Username and password are required"
	msgSignupFailed       = "Error during signup"
)

// RouterDeps are the collaborators NewRouter wires into handlers.
type RouterDeps struct {
	Auth        AuthService
	Sessions    SessionStore
	CookieStore sessions.Store
	Redis       redis.Cmdable        // rate limiting and health; nil disables both
	DB          Pinger               // health; may be nil
	Registry    *prometheus.Registry // nil creates a private registry
}

type handlers struct {
	cfg      Config
	auth     AuthService
	sessions SessionStore
	metrics  *Metrics
}

// credentialsForm binds only scalar strings. A JSON object or array in either
// field fails binding instead of reaching the lookup.
type credentialsForm struct {
	Username string `form:"username" json:"username"`
	Password string `form:"password" json:"password"`
}

// NewRouter constructs the Gin engine with routes wired.
func NewRouter(cfg Config, deps RouterDeps) (*gin.Engine, error) {
	startedAt := time.Now()
	r := gin.Default()
	// Client IPs key the rate limiter; forwarded headers count only from listed proxies.
	if err := r.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return nil, err
	}

	tmpl, err := LoadTemplates()
	if err != nil {
		return nil, err
	}
	r.SetHTMLTemplate(tmpl)

	reg := deps.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	h := &handlers{
		cfg:      cfg,
		auth:     deps.Auth,
		sessions: deps.Sessions,
		metrics:  NewMetrics(reg),
	}

	// Probes are registered before the session middleware so they never set cookies.
	r.GET("/healthz", func(c *gin.Context) {
		st := CollectHealth(c.Request.Context(), deps.DB, deps.Redis, startedAt)
		status := http.StatusOK
		if st.Status != "ok" {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, st)
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	// Global middleware: origin/CORS -> session -> CSRF
	r.Use(OriginRefererMiddleware(cfg))
	r.Use(SessionMiddleware(cfg, deps.CookieStore))
	r.Use(CSRFMiddleware(cfg))

	limiter := func(c *gin.Context) { c.Next() }
	if deps.Redis != nil {
		limiter = RateLimitMiddleware(deps.Redis, DefaultRateLimitConfig(cfg.RateLimitPerMinute))
	}

	r.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusFound, "/login")
	})

	r.GET("/signup", func(c *gin.Context) {
		h.render(c, http.StatusOK, "signup.html", "Sign up", "", "")
	})
	r.POST("/signup", limiter, h.signup)

	r.GET("/login", func(c *gin.Context) {
		h.render(c, http.StatusOK, "login.html", "Log in", "", "")
	})
	r.POST("/login", limiter, h.login)

	r.POST("/logout", h.logout)

	profile := r.Group("/profile")
	profile.Use(h.countProfileViews, APIKeyRequired(cfg.ProfileAPIKey), RequireSession(deps.Sessions))
	profile.GET("", h.profile)

	return r, nil
}

func (h *handlers) signup(c *gin.Context) {
	var req credentialsForm
	if err := c.ShouldBind(&req); err != nil {
		log.Printf("[signup] rejected malformed body ip=%s err=%v", c.ClientIP(), err)
		h.metrics.SignupsTotal.WithLabelValues(outcomeInvalid).Inc()
		h.render(c, http.StatusBadRequest, "signup.html", "Sign up", "", msgSignupInvalid)
		return
	}

	_, err := h.auth.Register(c.Request.Context(), req.Username, req.Password)
	switch {
	case err == nil:
		h.metrics.SignupsTotal.WithLabelValues(outcomeSuccess).Inc()
		c.Redirect(http.StatusSeeOther, "/login")
	case errors.Is(err, ErrUserExists):
		h.metrics.SignupsTotal.WithLabelValues(outcomeExists).Inc()
		h.render(c, http.StatusConflict, "signup.html", "Sign up", req.Username, msgUserExists)
	case errors.Is(err, ErrInvalidInput):
		h.metrics.SignupsTotal.WithLabelValues(outcomeInvalid).Inc()
		h.render(c, http.StatusBadRequest, "signup.html", "Sign up", req.Username, msgSignupInvalid)
	default:
		h.metrics.SignupsTotal.WithLabelValues(outcomeError).Inc()
		h.render(c, http.StatusInternalServerError, "signup.html", "Sign up", req.Username, msgSignupFailed)
	}
}

func (h *handlers) login(c *gin.Context) {
	var req credentialsForm
	if err := c.ShouldBind(&req); err != nil {
		log.Printf("[login] rejected malformed body ip=%s err=%v", c.ClientIP(), err)
		h.metrics.LoginsTotal.WithLabelValues(outcomeInvalid).Inc()
		h.render(c, http.StatusUnauthorized, "login.html", "Log in", "", msgInvalidCredentials)
		return
	}

	ctx := c.Request.Context()
	user, err := h.auth.Authenticate(ctx, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			h.metrics.LoginsTotal.WithLabelValues(outcomeInvalid).Inc()
			h.render(c, http.StatusUnauthorized, "login.html", "Log in", req.Username, msgInvalidCredentials)
			return
		}
		h.metrics.LoginsTotal.WithLabelValues(outcomeError).Inc()
		h.render(c, http.StatusInternalServerError, "login.html", "Log in", req.Username, msgLoginFailed)
		return
	}

	sess := sessionFrom(c)
	if old, _ := sess.Values[sessionTokenValue].(string); old != "" {
		if err := h.sessions.Destroy(ctx, old); err != nil {
			log.Printf("[login] failed to destroy previous session username=%q err=%v", user.Username, err)
		}
	}

	token, err := h.sessions.Create(ctx, user.Username)
	if err != nil {
		log.Printf("[login] session create error username=%q err=%v", user.Username, err)
		h.metrics.LoginsTotal.WithLabelValues(outcomeError).Inc()
		h.render(c, http.StatusInternalServerError, "login.html", "Log in", req.Username, msgLoginFailed)
		return
	}

	// reset session values (rotation): the new cookie carries only the new token
	sess.Values = map[interface{}]interface{}{}
	sess.Values[sessionTokenValue] = token
	applySessionOptions(h.cfg, sess)
	if err := sess.Save(c.Request, c.Writer); err != nil {
		_ = h.sessions.Destroy(ctx, token)
		h.metrics.LoginsTotal.WithLabelValues(outcomeError).Inc()
		h.render(c, http.StatusInternalServerError, "login.html", "Log in", req.Username, msgLoginFailed)
		return
	}

	h.metrics.LoginsTotal.WithLabelValues(outcomeSuccess).Inc()
	c.Redirect(http.StatusSeeOther, "/profile")
}

func (h *handlers) logout(c *gin.Context) {
	sess := sessionFrom(c)
	if token, _ := sess.Values[sessionTokenValue].(string); token != "" {
		if err := h.sessions.Destroy(c.Request.Context(), token); err != nil {
			log.Printf("[logout] failed to destroy session err=%v", err)
		}
	}
	sess.Values = map[interface{}]interface{}{}
	applySessionOptions(h.cfg, sess)
	sess.Options.MaxAge = -1 // Must be set AFTER applySessionOptions to properly delete cookie
	if err := sess.Save(c.Request, c.Writer); err != nil {
		respondError(c, http.StatusInternalServerError, codeInternal, "failed to clear session")
		return
	}
	c.Redirect(http.StatusSeeOther, "/login")
}

func (h *handlers) profile(c *gin.Context) {
	username := c.GetString(ctxUsername)
	h.render(c, http.StatusOK, "profile.html", "Profile", username, "")
}

// countProfileViews wraps the /profile chain and records how it ended, including
// API-key rejections and requests redirected for lack of a session.
func (h *handlers) countProfileViews(c *gin.Context) {
	c.Next()
	outcome := outcomeSuccess
	switch status := c.Writer.Status(); {
	case status == http.StatusForbidden:
		outcome = outcomeForbidden
	case status == http.StatusSeeOther:
		outcome = outcomeNoSession
	case status >= http.StatusBadRequest:
		outcome = outcomeError
	}
	h.metrics.ProfileViews.WithLabelValues(outcome).Inc()
}

func (h *handlers) render(c *gin.Context, status int, page, title, username, errMsg string) {
	c.HTML(status, page, PageData{
		Title:        title,
		Username:     username,
		ErrorMessage: errMsg,
		CSRFToken:    c.GetString(csrfTokenValue),
	})
}
