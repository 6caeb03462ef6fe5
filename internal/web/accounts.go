package web

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/amirk1998/notes-web/internal/models"
	"github.com/amirk1998/notes-web/pkg/errors"
)

func (s *Server) setSession(c *gin.Context, token string, expiresAt time.Time) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookie, token, int(time.Until(expiresAt).Seconds()), "/", "", s.secureCookies, true)
}

func (s *Server) clearSession(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookie, "", -1, "/", "", s.secureCookies, true)
}

func (s *Server) loginPage(c *gin.Context) {
	if currentUser(c) != "" {
		c.Redirect(http.StatusSeeOther, "/")
		return
	}
	s.page(c, http.StatusOK, "login.html", pageData{})
}

func (s *Server) login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		s.badForm(c)
		return
	}

	res := s.accounts.Login(c.Request.Context(), req)
	if !res.OK() {
		s.page(c, errors.HTTPStatus(res.Kind()), "login.html", pageData{
			Error:    res.ErrorMessage(),
			Username: req.Username,
		})
		return
	}

	s.setSession(c, res.Value().SessionToken, res.Value().ExpiresAt)
	c.Redirect(http.StatusSeeOther, "/")
}

func (s *Server) registerPage(c *gin.Context) {
	s.page(c, http.StatusOK, "register.html", pageData{})
}

func (s *Server) register(c *gin.Context) {
	var req models.CreateUserRequest
	if err := c.ShouldBind(&req); err != nil {
		s.badForm(c)
		return
	}

	ctx := c.Request.Context()
	res := s.accounts.Register(ctx, req)
	if !res.OK() {
		s.page(c, errors.HTTPStatus(res.Kind()), "register.html", pageData{
			Error:    res.ErrorMessage(),
			Username: req.Username,
		})
		return
	}

	session := s.accounts.Login(ctx, models.LoginRequest{Username: req.Username, Password: req.Password})
	if !session.OK() {
		c.Redirect(http.StatusSeeOther, "/login")
		return
	}
	s.setSession(c, session.Value().SessionToken, session.Value().ExpiresAt)
	c.Redirect(http.StatusSeeOther, "/")
}

func (s *Server) logout(c *gin.Context) {
	s.clearSession(c)
	c.Redirect(http.StatusSeeOther, "/login")
}
