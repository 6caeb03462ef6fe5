package models

// Note timestamps are milliseconds since the Unix epoch.
type Note struct {
	ID        string `json:"id"`
	OwnerID   string `json:"-"` // Never exposed outside the owner's own requests
	Title     string `json:"title"`
	Content   string `json:"content"`
	CreatedAt int64  `json:"createdAt"`
	UpdatedAt int64  `json:"updatedAt"`
}

// Edited reports whether the note changed after creation.
func (n *Note) Edited() bool {
	return n.UpdatedAt > n.CreatedAt
}

type CreateNoteRequest struct {
	Title   string `json:"title" form:"title"`
	Content string `json:"content" form:"content"`
}

type UpdateNoteRequest struct {
	Title   string `json:"title" form:"title"`
	Content string `json:"content" form:"content"`
}
