package repository

import (
	"sync"
	"time"

	"gorm.io/gorm"

	"nanoboard/models"
)

// PostRepository is the only gateway to the persisted board state. A single
// mutex serializes every operation across all requests, so at most one store
// operation is in flight at a time. The lock is released on every exit path.
type PostRepository struct {
	db *gorm.DB
	mu sync.Mutex
}

// NewPostRepository creates a repository over the given database handle.
func NewPostRepository(db *gorm.DB) *PostRepository {
	return &PostRepository{db: db}
}

// Insert appends a new post row and returns its assigned id. The row's
// LastReplyAt starts at the insertion time. When parentID is nonzero the
// parent row's LastReplyAt is bumped to the same time in the same
// transaction, so the pair either fully lands or not at all. A parentID that
// matches no row is tolerated: the bump simply updates nothing.
func (r *PostRepository) Insert(postID string, parentID uint, title, message, filePath string) (uint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	post := models.Post{
		PostID:      postID,
		ParentID:    parentID,
		Title:       title,
		Message:     message,
		FilePath:    filePath,
		LastReplyAt: now,
	}

	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&post).Error; err != nil {
			return err
		}
		if parentID != 0 {
			if err := tx.Model(&models.Post{}).
				Where("id = ?", parentID).
				Update("last_reply_at", now).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return post.ID, nil
}

// Thread returns the root post and all of its replies, ascending by id, so
// the root (when it exists) comes first and replies follow in arrival order.
func (r *PostRepository) Thread(rootID uint) ([]models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var posts []models.Post
	err := r.db.
		Where("id = ? OR parent_id = ?", rootID, rootID).
		Order("id ASC").
		Find(&posts).Error
	return posts, err
}

// TopLevelPage returns one page of thread roots, most recently bumped first.
// Roots bumped in the same instant fall back to newest-id-first.
func (r *PostRepository) TopLevelPage(limit, offset int) ([]models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var posts []models.Post
	err := r.db.
		Where("parent_id = 0").
		Order("last_reply_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	return posts, err
}

// ReplyCount returns the number of replies to the given post, zero when there
// are none.
func (r *PostRepository) ReplyCount(id uint) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var count int64
	err := r.db.Model(&models.Post{}).
		Where("parent_id = ?", id).
		Count(&count).Error
	return count, err
}

// CountPosts returns the total number of rows, roots and replies included.
func (r *PostRepository) CountPosts() (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var count int64
	err := r.db.Model(&models.Post{}).Count(&count).Error
	return count, err
}

// CountThreads returns the number of thread roots.
func (r *PostRepository) CountThreads() (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var count int64
	err := r.db.Model(&models.Post{}).
		Where("parent_id = 0").
		Count(&count).Error
	return count, err
}
