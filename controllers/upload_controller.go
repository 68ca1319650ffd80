package controllers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"nanoboard/repository"
	"nanoboard/storage"
	"nanoboard/utils"
)

// parentIDMaxLen bounds the parent_id part; no decimal uint fits in more bytes.
const parentIDMaxLen = 32

// UploadController ingests multipart submissions and commits new posts.
type UploadController struct {
	repo          *repository.PostRepository
	store         *storage.AttachmentStore
	titleMaxLen   int
	messageMaxLen int
}

// NewUploadController creates an UploadController with the given field ceilings.
func NewUploadController(repo *repository.PostRepository, store *storage.AttachmentStore, titleMaxLen, messageMaxLen int) *UploadController {
	return &UploadController{
		repo:          repo,
		store:         store,
		titleMaxLen:   titleMaxLen,
		messageMaxLen: messageMaxLen,
	}
}

// submission accumulates a single request's fields as its parts stream in.
type submission struct {
	title    string
	message  string
	parentID uint
	filePath string
}

// Upload decodes one multipart submission. Parts arrive in arbitrary order;
// unknown part names are drained and ignored. Attachment bytes are fully
// persisted before the database row is inserted, so a row never references a
// path that failed to write. Validation runs after all parts are consumed.
func (u *UploadController) Upload(ctx *gin.Context) {
	reader, err := ctx.Request.MultipartReader()
	if err != nil {
		ctx.String(http.StatusBadRequest, "Expected a multipart form.")
		return
	}

	var sub submission
	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			u.abortStreamError(ctx, err)
			return
		}

		switch part.FormName() {
		case "title":
			sub.title, err = readField(part, u.titleMaxLen)
		case "message":
			sub.message, err = readField(part, u.messageMaxLen)
		case "parent_id":
			var raw string
			raw, err = readField(part, parentIDMaxLen)
			// A value past the cap cannot be a valid id; it defaults to 0
			// like any other unparsable input, never a truncated parse.
			if err == nil && len(raw) <= parentIDMaxLen {
				sub.parentID = parseParentID(raw)
			}
		case "file":
			if part.FileName() == "" {
				_, err = io.Copy(io.Discard, part)
				break
			}
			var result storage.SaveResult
			result, err = u.store.Save(part.FileName(), part)
			if err == nil {
				switch result.Status {
				case storage.StatusStored:
					sub.filePath = result.Path
				case storage.StatusTooLarge:
					part.Close()
					ctx.String(http.StatusRequestEntityTooLarge, "File is too large.")
					return
				case storage.StatusSkipped:
					// disallowed extension, post proceeds without attachment
					_, err = io.Copy(io.Discard, part)
				}
			}
		default:
			_, err = io.Copy(io.Discard, part)
		}
		part.Close()
		if err != nil {
			u.abortStreamError(ctx, err)
			return
		}
	}

	if strings.TrimSpace(sub.title) == "" || strings.TrimSpace(sub.message) == "" {
		ctx.String(http.StatusBadRequest, "Title and message are mandatory.")
		return
	}
	if len(sub.title) > u.titleMaxLen || len(sub.message) > u.messageMaxLen {
		ctx.String(http.StatusBadRequest, "Title or message is too long.")
		return
	}

	token := utils.NewToken(utils.TokenLength)

	// The validated text is stored verbatim; escaping is the renderer's job.
	id, err := u.repo.Insert(token, sub.parentID, sub.title, sub.message, sub.filePath)
	if err != nil {
		utils.Sugar.Errorf("insert post failed: %v", err)
		ctx.String(http.StatusInternalServerError, "Failed to save post.")
		return
	}
	utils.Sugar.Infow("post created", "id", id, "token", token, "parent_id", sub.parentID, "has_file", sub.filePath != "")

	if sub.parentID == 0 {
		ctx.Redirect(http.StatusSeeOther, "/")
	} else {
		ctx.Redirect(http.StatusSeeOther, fmt.Sprintf("/post/%d", sub.parentID))
	}
}

// abortStreamError maps a mid-stream failure to a response: the request-body
// ceiling answers 413, anything else is an I/O fault on our side.
func (u *UploadController) abortStreamError(ctx *gin.Context, err error) {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		ctx.String(http.StatusRequestEntityTooLarge, "Upload is too large.")
		return
	}
	utils.Sugar.Errorf("upload stream failed: %v", err)
	ctx.String(http.StatusInternalServerError, "Failed to read upload.")
}

// readField consumes a text part. The reader is capped one byte past the
// field's ceiling: enough for the length check to trip, without buffering an
// arbitrarily large value.
func readField(r io.Reader, maxLen int) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, int64(maxLen)+1))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// parseParentID parses the parent reference, defaulting to 0 (new thread) on
// anything unparsable. The referenced id is deliberately not checked for
// existence.
func parseParentID(raw string) uint {
	id, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 32)
	if err != nil {
		return 0
	}
	return uint(id)
}
