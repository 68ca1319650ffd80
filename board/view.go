// Package board assembles the structured page data rendered by the HTML
// collaborator. Nothing here touches the store directly except through the
// post repository, and nothing here emits markup.
package board

import (
	"fmt"
	"strconv"

	"github.com/cespare/xxhash/v2"

	"nanoboard/models"
	"nanoboard/repository"
	"nanoboard/storage"
)

// MediaKind classifies how a stored attachment should be presented.
type MediaKind int

const (
	// MediaNone means the post has no renderable attachment.
	MediaNone MediaKind = iota
	// MediaImage renders as an <img> tag.
	MediaImage
	// MediaVideo renders as a <video> tag.
	MediaVideo
)

// PostView is one post prepared for display.
type PostView struct {
	ID         uint
	Token      string
	Label      string // "Original Post", "Reply 1", ... (thread view only)
	Title      string
	Message    string
	Truncated  bool // Message was cut at the preview ceiling
	Media      MediaKind
	MediaURL   string
	ReplyCount int64
	Color      string // stable #rrggbb derived from Token
}

// IsImage reports whether the post renders an image attachment.
func (v PostView) IsImage() bool { return v.Media == MediaImage }

// IsVideo reports whether the post renders a video attachment.
func (v PostView) IsVideo() bool { return v.Media == MediaVideo }

// IndexPage is one page of the top-level listing.
type IndexPage struct {
	Page     int
	PrevPage int
	HasPrev  bool
	NextPage int
	Posts    []PostView
}

// ThreadPage is a single thread: the original post first, replies after.
type ThreadPage struct {
	RootID uint
	Posts  []PostView
}

// Builder turns repository rows into page structures.
type Builder struct {
	repo       *repository.PostRepository
	pageSize   int
	previewLen int
}

// NewBuilder creates a Builder with the given page size and message preview
// ceiling (in characters).
func NewBuilder(repo *repository.PostRepository, pageSize, previewLen int) *Builder {
	return &Builder{repo: repo, pageSize: pageSize, previewLen: previewLen}
}

// ParsePage turns a raw ?page= value into a 1-based page number. Missing,
// non-numeric, and sub-1 values all mean page 1.
func ParsePage(raw string) int {
	page, err := strconv.Atoi(raw)
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// IndexPage builds the top-level listing for the given page number. Each root
// is annotated with its reply count, truncated to the preview ceiling, and
// given its display color.
func (b *Builder) IndexPage(page int) (IndexPage, error) {
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * b.pageSize

	roots, err := b.repo.TopLevelPage(b.pageSize, offset)
	if err != nil {
		return IndexPage{}, err
	}

	views := make([]PostView, 0, len(roots))
	for _, post := range roots {
		count, err := b.repo.ReplyCount(post.ID)
		if err != nil {
			return IndexPage{}, err
		}
		v := b.postView(post)
		v.ReplyCount = count
		views = append(views, v)
	}

	out := IndexPage{
		Page:     page,
		NextPage: page + 1,
		Posts:    views,
	}
	if page > 1 {
		out.HasPrev = true
		out.PrevPage = page - 1
	}
	return out, nil
}

// ThreadPage builds the view of one thread. The first fetched row is labeled
// as the original post; the rest are numbered replies in fetch order. Thread
// messages are never truncated.
func (b *Builder) ThreadPage(rootID uint) (ThreadPage, error) {
	posts, err := b.repo.Thread(rootID)
	if err != nil {
		return ThreadPage{}, err
	}

	views := make([]PostView, 0, len(posts))
	for i, post := range posts {
		v := b.postViewFull(post)
		if i == 0 {
			v.Label = "Original Post"
		} else {
			v.Label = fmt.Sprintf("Reply %d", i)
		}
		views = append(views, v)
	}
	return ThreadPage{RootID: rootID, Posts: views}, nil
}

// postView prepares a post for the listing, applying message truncation.
func (b *Builder) postView(post models.Post) PostView {
	v := b.postViewFull(post)
	if truncated, ok := truncateRunes(v.Message, b.previewLen); ok {
		v.Message = truncated
		v.Truncated = true
	}
	return v
}

// postViewFull prepares a post without truncation.
func (b *Builder) postViewFull(post models.Post) PostView {
	v := PostView{
		ID:      post.ID,
		Token:   post.PostID,
		Title:   post.Title,
		Message: post.Message,
		Color:   TokenColor(post.PostID),
	}
	if post.FilePath != "" {
		ext := storage.Extension(post.FilePath)
		switch {
		case storage.IsImageExtension(ext):
			v.Media = MediaImage
			v.MediaURL = "/static/" + post.FilePath
		case storage.IsMediaExtension(ext):
			v.Media = MediaVideo
			v.MediaURL = "/static/" + post.FilePath
		}
	}
	return v
}

// TokenColor maps a post token to a stable display color. Same token, same
// color; collisions between different tokens are fine.
func TokenColor(token string) string {
	sum := xxhash.Sum64String(token)
	return fmt.Sprintf("#%06x", sum&0xffffff)
}

// truncateRunes cuts s to at most max runes. The second result reports
// whether anything was cut.
func truncateRunes(s string, max int) (string, bool) {
	if max <= 0 {
		return s, false
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s, false
	}
	return string(runes[:max]), true
}
