package web

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/amirk1998/notes-web/internal/models"
	"github.com/amirk1998/notes-web/pkg/errors"
)

type noteForm struct {
	Title   string
	Content string
}

type pageData struct {
	LoggedIn bool
	Error    string
	Status   string
	Username string
	Notes    []*models.Note
	Note     *models.Note
	Form     noteForm
}

func (s *Server) page(c *gin.Context, status int, name string, data pageData) {
	data.LoggedIn = currentUser(c) != ""
	c.HTML(status, name, data)
}

func (s *Server) renderStatus(c *gin.Context, status int) {
	s.page(c, status, "error.html", pageData{Status: http.StatusText(status)})
}

// failPage renders a failed note operation. Anonymous callers are sent to
// the login page.
func (s *Server) failPage(c *gin.Context, kind errors.Kind, message string) {
	if kind == errors.KindUnauthorized {
		c.Redirect(http.StatusSeeOther, "/login")
		return
	}
	status := errors.HTTPStatus(kind)
	s.page(c, status, "error.html", pageData{Status: http.StatusText(status), Error: message})
}

// etag returns the caller's current entity tag for path, or "" when there is
// no caller or no version tracking.
func (s *Server) etag(c *gin.Context, path, variant string) string {
	owner := currentUser(c)
	if owner == "" || s.versions == nil {
		return ""
	}
	return s.versions.ETag(owner, path, variant)
}

// notModified writes 304 when the request already holds tag.
func notModified(c *gin.Context, tag string) bool {
	if tag == "" || c.GetHeader("If-None-Match") != tag {
		return false
	}
	c.Header("ETag", tag)
	c.Status(http.StatusNotModified)
	return true
}

// fresh answers a conditional GET for a view that always exists for a signed
// in caller. It returns the entity tag to send with a successful response,
// and true when 304 was already written.
func (s *Server) fresh(c *gin.Context, path, variant string) (string, bool) {
	tag := s.etag(c, path, variant)
	return tag, notModified(c, tag)
}

func (s *Server) badForm(c *gin.Context) {
	s.page(c, http.StatusBadRequest, "error.html", pageData{
		Status: http.StatusText(http.StatusBadRequest),
		Error:  msgInvalidBody,
	})
}

func setETag(c *gin.Context, tag string) {
	if tag != "" {
		c.Header("ETag", tag)
		c.Header("Cache-Control", "private, no-cache")
	}
}

func (s *Server) listPage(c *gin.Context) {
	tag, done := s.fresh(c, "/", "html")
	if done {
		return
	}

	res := s.notes.List(c.Request.Context())
	if !res.OK() {
		s.failPage(c, res.Kind(), res.ErrorMessage())
		return
	}

	setETag(c, tag)
	s.page(c, http.StatusOK, "list.html", pageData{Notes: res.Value()})
}

func (s *Server) newNotePage(c *gin.Context) {
	if currentUser(c) == "" {
		c.Redirect(http.StatusSeeOther, "/login")
		return
	}
	s.page(c, http.StatusOK, "new.html", pageData{})
}

func (s *Server) createNote(c *gin.Context) {
	var req models.CreateNoteRequest
	if err := c.ShouldBind(&req); err != nil {
		s.badForm(c)
		return
	}

	res := s.notes.Create(c.Request.Context(), req)
	if !res.OK() {
		if res.Kind() == errors.KindValidation {
			s.page(c, http.StatusUnprocessableEntity, "new.html", pageData{
				Error: res.ErrorMessage(),
				Form:  noteForm{Title: req.Title, Content: req.Content},
			})
			return
		}
		s.failPage(c, res.Kind(), res.ErrorMessage())
		return
	}

	c.Redirect(http.StatusSeeOther, "/notes/"+res.Value().ID)
}

func (s *Server) notePage(c *gin.Context) {
	id := c.Param("id")
	tag := s.etag(c, "/notes/"+id, "html")

	res := s.notes.GetByID(c.Request.Context(), id)
	if !res.OK() {
		s.failPage(c, res.Kind(), res.ErrorMessage())
		return
	}
	if notModified(c, tag) {
		return
	}

	note := res.Value()
	setETag(c, tag)
	s.page(c, http.StatusOK, "detail.html", pageData{
		Note: note,
		Form: noteForm{Title: note.Title, Content: note.Content},
	})
}

func (s *Server) updateNote(c *gin.Context) {
	id := c.Param("id")
	var req models.UpdateNoteRequest
	if err := c.ShouldBind(&req); err != nil {
		s.badForm(c)
		return
	}

	ctx := c.Request.Context()
	res := s.notes.Update(ctx, id, req)
	if res.OK() {
		c.Redirect(http.StatusSeeOther, "/notes/"+id)
		return
	}
	if res.Kind() != errors.KindValidation {
		s.failPage(c, res.Kind(), res.ErrorMessage())
		return
	}

	current := s.notes.GetByID(ctx, id)
	if !current.OK() {
		s.failPage(c, current.Kind(), current.ErrorMessage())
		return
	}
	s.page(c, http.StatusUnprocessableEntity, "detail.html", pageData{
		Error: res.ErrorMessage(),
		Note:  current.Value(),
		Form:  noteForm{Title: req.Title, Content: req.Content},
	})
}

func (s *Server) confirmDeletePage(c *gin.Context) {
	res := s.notes.GetByID(c.Request.Context(), c.Param("id"))
	if !res.OK() {
		s.failPage(c, res.Kind(), res.ErrorMessage())
		return
	}
	s.page(c, http.StatusOK, "delete.html", pageData{Note: res.Value()})
}

func (s *Server) deleteNote(c *gin.Context) {
	res := s.notes.Delete(c.Request.Context(), c.Param("id"))
	if !res.OK() {
		s.failPage(c, res.Kind(), res.ErrorMessage())
		return
	}
	c.Redirect(http.StatusSeeOther, "/")
}
