package models

import "time"

// Post is the single persisted entity of the board. A row with ParentID 0 is a
// thread root; any other ParentID marks the row as a reply to the root whose
// ID matches. The table keeps its historical name "files".
type Post struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	PostID      string    `gorm:"size:16;not null" json:"post_id"` // public opaque token, uniqueness probabilistic only
	ParentID    uint      `gorm:"index;default:0" json:"parent_id"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	Message     string    `gorm:"type:text;not null" json:"message"`
	FilePath    string    `gorm:"size:1024" json:"file_path,omitempty"` // stored attachment name, empty when none
	LastReplyAt time.Time `gorm:"index" json:"last_reply_at"`
}

// TableName keeps the legacy table name used by earlier versions of the board.
func (Post) TableName() string {
	return "files"
}

// IsRoot reports whether the post starts a thread.
func (p Post) IsRoot() bool {
	return p.ParentID == 0
}
