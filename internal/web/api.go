package web

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/amirk1998/notes-web/internal/models"
	"github.com/amirk1998/notes-web/internal/service"
	"github.com/amirk1998/notes-web/pkg/errors"
)

const msgInvalidBody = "Invalid request body"

// writeResult sends the envelope with okStatus on success, or the status that
// matches the failure kind.
func writeResult[T any](c *gin.Context, okStatus int, res service.Result[T]) {
	status := okStatus
	if !res.OK() {
		status = errors.HTTPStatus(res.Kind())
	}
	c.JSON(status, res)
}

func badBody(c *gin.Context) {
	c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": msgInvalidBody})
}

func (s *Server) apiList(c *gin.Context) {
	tag, done := s.fresh(c, "/", "json")
	if done {
		return
	}

	res := s.notes.List(c.Request.Context())
	if res.OK() {
		setETag(c, tag)
	}
	writeResult(c, http.StatusOK, res)
}

func (s *Server) apiCreate(c *gin.Context) {
	var req models.CreateNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c)
		return
	}
	writeResult(c, http.StatusCreated, s.notes.Create(c.Request.Context(), req))
}

func (s *Server) apiGet(c *gin.Context) {
	writeResult(c, http.StatusOK, s.notes.GetByID(c.Request.Context(), c.Param("id")))
}

func (s *Server) apiUpdate(c *gin.Context) {
	var req models.UpdateNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c)
		return
	}
	writeResult(c, http.StatusOK, s.notes.Update(c.Request.Context(), c.Param("id"), req))
}

func (s *Server) apiDelete(c *gin.Context) {
	writeResult(c, http.StatusOK, s.notes.Delete(c.Request.Context(), c.Param("id")))
}
