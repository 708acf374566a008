package handler

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"github.com/iliyamo/fly-starter/internal/config"
	"github.com/iliyamo/fly-starter/internal/middleware"
	"github.com/iliyamo/fly-starter/internal/queue"
	"github.com/iliyamo/fly-starter/internal/utils"
	"github.com/iliyamo/fly-starter/internal/version"
)

// AdminRole is the role claim carried by admin access tokens.
const AdminRole = "admin"

// Pinger reports whether a backing service is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// AuditPublisher receives admin login events.
type AuditPublisher interface {
	PublishAdminLogin(ctx context.Context, ev queue.AdminLoginEvent) error
}

// AdminHandler serves the operator surface mounted under admin/.
type AdminHandler struct {
	Cfg config.Settings
	// Services maps a name to its health probe. A nil probe is reported
	// as disabled.
	Services  map[string]Pinger
	Audit     AuditPublisher      // optional
	RateLimit echo.MiddlewareFunc // optional, applied to every admin route
}

func NewAdminHandler(cfg config.Settings, services map[string]Pinger, audit AuditPublisher, rl echo.MiddlewareFunc) *AdminHandler {
	return &AdminHandler{Cfg: cfg, Services: services, Audit: audit, RateLimit: rl}
}

// Mount registers the admin routes on g. On the overview the limiter runs
// after JWTAuth, so identity-keyed strategies see the admin subject.
func (h *AdminHandler) Mount(g *echo.Group) {
	var loginMW []echo.MiddlewareFunc
	indexMW := []echo.MiddlewareFunc{middleware.JWTAuth(h.Cfg.SecretKey), middleware.RequireRole(AdminRole)}
	if h.RateLimit != nil {
		loginMW = append(loginMW, h.RateLimit)
		indexMW = append(indexMW, h.RateLimit)
	}
	g.POST("/login/", h.Login, loginMW...)
	g.GET("/", h.Index, indexMW...)
}

// ----- DTOs -----

type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}

type overviewResp struct {
	User           any               `json:"user"`
	AppVersion     string            `json:"app_version"`
	EchoVersion    string            `json:"echo_version"`
	Env            string            `json:"env"`
	Debug          bool              `json:"debug"`
	AllowedHosts   []string          `json:"allowed_hosts"`
	DatabaseEngine string            `json:"database_engine"`
	Services       map[string]string `json:"services"`
}

// Login: verify the configured admin credentials and return an access token.
// Every attempt is audited, including rejected and disabled ones.
func (h *AdminHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		h.audit(c, "", false)
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		h.audit(c, req.Username, false)
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username/password required"})
	}
	if h.Cfg.Admin.PasswordHash == "" {
		h.audit(c, req.Username, false)
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "admin login disabled"})
	}

	// Both checks always run so a wrong username costs as much as a wrong password.
	userOK := subtle.ConstantTimeCompare([]byte(req.Username), []byte(h.Cfg.Admin.User)) == 1
	passOK := utils.VerifyPassword(h.Cfg.Admin.PasswordHash, req.Password)
	ok := userOK && passOK
	h.audit(c, req.Username, ok)
	if !ok {
		log.WithFields(log.Fields{"user": req.Username, "remote_ip": c.RealIP()}).Warn("admin login failed")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	access, err := utils.NewAccessToken(h.Cfg.SecretKey, h.Cfg.Admin.User, AdminRole, h.Cfg.Admin.AccessTTLMin)
	if err != nil {
		log.WithError(err).Error("issue admin access token")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue access failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"access": tokenPart{Token: access.Token, Expires: access.Exp},
	})
}

// Index: runtime overview for operators (protected).
func (h *AdminHandler) Index(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	services := make(map[string]string, len(h.Services))
	for name, p := range h.Services {
		services[name] = probe(ctx, p)
	}
	hosts := h.Cfg.AllowedHosts
	if hosts == nil {
		hosts = []string{}
	}
	return c.JSON(http.StatusOK, overviewResp{
		User:           c.Get(middleware.ContextUser),
		AppVersion:     version.Version,
		EchoVersion:    echo.Version,
		Env:            h.Cfg.Env,
		Debug:          h.Cfg.Debug,
		AllowedHosts:   hosts,
		DatabaseEngine: h.Cfg.DefaultDB().Engine,
		Services:       services,
	})
}

func probe(ctx context.Context, p Pinger) string {
	if p == nil {
		return "disabled"
	}
	if err := p.Ping(ctx); err != nil {
		return "down: " + err.Error()
	}
	return "ok"
}

// audit publishes in the background; the broker must never hold up a login.
func (h *AdminHandler) audit(c echo.Context, username string, success bool) {
	if h.Audit == nil {
		return
	}
	ev := queue.AdminLoginEvent{
		Username: username,
		Success:  success,
		RemoteIP: c.RealIP(),
		At:       time.Now().UTC(),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = h.Audit.PublishAdminLogin(ctx, ev)
	}()
}
