// Package web is the HTTP presentation layer: server-rendered pages and a JSON
// API, both driving the note service.
package web

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/amirk1998/notes-web/internal/identity"
	"github.com/amirk1998/notes-web/internal/ratelimit"
	"github.com/amirk1998/notes-web/internal/service"
)

const sessionCookie = "notes_session"

// Pinger reports store health.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Options struct {
	Notes         *service.NoteService
	Accounts      *service.AccountService
	Tokens        *identity.TokenIssuer
	Limiter       *ratelimit.RateLimiter
	// Versions must be the invalidator the note service was built with;
	// nil disables conditional GETs.
	Versions      *ViewVersions
	Store         Pinger
	SecureCookies bool
}

type Server struct {
	notes         *service.NoteService
	accounts      *service.AccountService
	tokens        *identity.TokenIssuer
	limiter       *ratelimit.RateLimiter
	versions      *ViewVersions
	store         Pinger
	secureCookies bool
	engine        *gin.Engine
}

// NewServer builds the gin engine with every route registered.
func NewServer(opts Options) (*Server, error) {
	pages, err := newPageRenderer()
	if err != nil {
		return nil, err
	}

	s := &Server{
		notes:         opts.Notes,
		accounts:      opts.Accounts,
		tokens:        opts.Tokens,
		limiter:       opts.Limiter,
		versions:      opts.Versions,
		store:         opts.Store,
		secureCookies: opts.SecureCookies,
	}

	r := gin.New()
	r.HTMLRender = pages
	r.Use(gin.Recovery(), accessLog(), s.authenticate(), s.rateLimit())
	s.routes(r)
	s.engine = r
	return s, nil
}

func (s *Server) routes(r *gin.Engine) {
	r.GET("/healthz", s.healthz)

	// Pages
	r.GET("/", s.listPage)
	r.GET("/notes/new", s.newNotePage)
	r.POST("/notes", s.createNote)
	r.GET("/notes/:id", s.notePage)
	r.POST("/notes/:id", s.updateNote)
	r.GET("/notes/:id/delete", s.confirmDeletePage)
	r.POST("/notes/:id/delete", s.deleteNote)

	// Accounts
	r.GET("/login", s.loginPage)
	r.POST("/login", s.login)
	r.GET("/register", s.registerPage)
	r.POST("/register", s.register)
	r.POST("/logout", s.logout)

	api := r.Group("/api/notes")
	{
		api.GET("", s.apiList)
		api.POST("", s.apiCreate)
		api.GET("/:id", s.apiGet)
		api.PUT("/:id", s.apiUpdate)
		api.DELETE("/:id", s.apiDelete)
	}

	r.NoRoute(func(c *gin.Context) {
		s.renderStatus(c, http.StatusNotFound)
	})
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if s.store == nil {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
		return
	}
	if err := s.store.PingContext(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
