package routes

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"nanoboard/config"
	"nanoboard/models"
	"nanoboard/utils"
)

func setupTestRouter(t *testing.T) (*gin.Engine, *gorm.DB, config.AppConfig) {
	t.Helper()
	tmp := t.TempDir()
	t.Setenv("DATABASE_PATH", filepath.Join(tmp, "board.db"))
	t.Setenv("STORAGE_ROOT", filepath.Join(tmp, "static"))
	t.Setenv("GIN_MODE", "test")
	t.Setenv("LOG_LEVEL", "error")

	config.Reset()
	cfg := config.Load()
	t.Cleanup(config.Reset)

	require.NoError(t, utils.InitLogger(cfg))

	db, err := gorm.Open(sqlite.Open(cfg.DatabasePath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Post{}))

	router, err := SetupRouter(db)
	require.NoError(t, err)
	return router, db, cfg
}

type filePart struct {
	name    string
	content []byte
}

func multipartBody(t *testing.T, fields map[string]string, file *filePart) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if file != nil {
		fw, err := w.CreateFormFile("file", file.name)
		require.NoError(t, err)
		_, err = fw.Write(file.content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func postUpload(t *testing.T, router *gin.Engine, fields map[string]string, file *filePart) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartBody(t, fields, file)
	req := httptest.NewRequest("POST", "/upload", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func get(router *gin.Engine, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", path, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestBoardScenario(t *testing.T) {
	router, db, cfg := setupTestRouter(t)

	catBytes := []byte{0x89, 'P', 'N', 'G', 1, 2, 3, 4, 5, 6}

	// New thread with an attachment redirects home.
	w := postUpload(t, router,
		map[string]string{"title": "Hello", "message": "World", "parent_id": "0"},
		&filePart{name: "cat.png", content: catBytes})
	require.Equal(t, http.StatusSeeOther, w.Code, w.Body.String())
	assert.Equal(t, "/", w.Header().Get("Location"))

	// The thread shows up on the index with an image tag.
	w = get(router, "/")
	require.Equal(t, http.StatusOK, w.Code)
	html := w.Body.String()
	assert.Contains(t, html, "Hello")
	assert.Contains(t, html, "-cat.png")
	assert.Contains(t, html, "<img src=\"/static/")

	var root models.Post
	require.NoError(t, db.Where("parent_id = 0").First(&root).Error)
	assert.Len(t, root.PostID, 6)
	require.NotEmpty(t, root.FilePath)

	// Attachment round-trip: the stored file serves back byte-identical.
	w = get(router, "/static/"+root.FilePath)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, catBytes, w.Body.Bytes())

	stored, err := os.ReadFile(filepath.Join(cfg.StorageRoot, root.FilePath))
	require.NoError(t, err)
	assert.Equal(t, catBytes, stored)

	// Reply redirects back into the thread.
	w = postUpload(t, router,
		map[string]string{"title": "Re", "message": "Hi", "parent_id": fmt.Sprint(root.ID)}, nil)
	require.Equal(t, http.StatusSeeOther, w.Code, w.Body.String())
	assert.Equal(t, fmt.Sprintf("/post/%d", root.ID), w.Header().Get("Location"))

	// The thread view lists the original post and one numbered reply.
	w = get(router, fmt.Sprintf("/post/%d", root.ID))
	require.Equal(t, http.StatusOK, w.Code)
	html = w.Body.String()
	assert.Contains(t, html, "Original Post")
	assert.Contains(t, html, "Reply 1")
	assert.Contains(t, html, "Hi")
}

func TestUploadValidation(t *testing.T) {
	router, _, _ := setupTestRouter(t)

	t.Run("empty fields are rejected", func(t *testing.T) {
		w := postUpload(t, router, map[string]string{"title": "   ", "message": ""}, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "mandatory")
	})

	t.Run("oversized title is rejected even with a valid message", func(t *testing.T) {
		w := postUpload(t, router, map[string]string{
			"title":   strings.Repeat("a", 21),
			"message": "fine",
		}, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "too long")

		// Rejection is repeatable.
		w = postUpload(t, router, map[string]string{
			"title":   strings.Repeat("a", 21),
			"message": "fine",
		}, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("over-long parent_id defaults to a new thread", func(t *testing.T) {
		w := postUpload(t, router, map[string]string{
			"title":     "Long",
			"message":   "id",
			"parent_id": strings.Repeat("9", 40),
		}, nil)
		require.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, "/", w.Header().Get("Location"))
	})

	t.Run("unparsable parent_id defaults to a new thread", func(t *testing.T) {
		w := postUpload(t, router, map[string]string{
			"title":     "Parse",
			"message":   "me",
			"parent_id": "not-a-number",
		}, nil)
		require.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, "/", w.Header().Get("Location"))
	})

	t.Run("unknown parts are ignored", func(t *testing.T) {
		w := postUpload(t, router, map[string]string{
			"title":   "Extra",
			"message": "fields",
			"bogus":   "whatever",
		}, nil)
		assert.Equal(t, http.StatusSeeOther, w.Code)
	})

	t.Run("disallowed attachment type still creates the post", func(t *testing.T) {
		router, db, _ := setupTestRouter(t)
		w := postUpload(t, router,
			map[string]string{"title": "NoFile", "message": "script attached"},
			&filePart{name: "evil.exe", content: []byte("binary")})
		require.Equal(t, http.StatusSeeOther, w.Code)

		var post models.Post
		require.NoError(t, db.Where("title = ?", "NoFile").First(&post).Error)
		assert.Empty(t, post.FilePath)
	})
}

func TestOversizedUpload(t *testing.T) {
	t.Setenv("MAX_UPLOAD_BYTES", "64")
	router, db, _ := setupTestRouter(t)

	w := postUpload(t, router,
		map[string]string{"title": "Big", "message": "too big"},
		&filePart{name: "huge.webm", content: make([]byte, 256)})
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	var count int64
	require.NoError(t, db.Model(&models.Post{}).Count(&count).Error)
	assert.Zero(t, count, "no row for a failed request")
}

func TestIndexPagination(t *testing.T) {
	router, _, _ := setupTestRouter(t)

	for i := 0; i < 45; i++ {
		w := postUpload(t, router, map[string]string{
			"title":   fmt.Sprintf("T%d", i),
			"message": "thread",
		}, nil)
		require.Equal(t, http.StatusSeeOther, w.Code)
	}

	pageOne := get(router, "/")
	require.Equal(t, http.StatusOK, pageOne.Code)
	assert.Equal(t, 30, strings.Count(pageOne.Body.String(), "reply-button"))

	pageTwo := get(router, "/?page=2")
	require.Equal(t, http.StatusOK, pageTwo.Code)
	assert.Equal(t, 15, strings.Count(pageTwo.Body.String(), "reply-button"))

	// Garbage page input behaves like page 1.
	garbage := get(router, "/?page=garbage")
	require.Equal(t, http.StatusOK, garbage.Code)
	assert.Equal(t, 30, strings.Count(garbage.Body.String(), "reply-button"))
}

func TestThreadRouting(t *testing.T) {
	router, _, _ := setupTestRouter(t)

	w := get(router, "/post/not-a-number")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// A thread id with no rows renders an empty thread, not an error.
	w = get(router, "/post/424242")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestStatsAndHealth(t *testing.T) {
	router, _, _ := setupTestRouter(t)

	w := get(router, "/health")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)

	require.Equal(t, http.StatusSeeOther, postUpload(t, router,
		map[string]string{"title": "One", "message": "thread"}, nil).Code)

	w = get(router, "/api/stats")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `"posts":1`)
	assert.Contains(t, body, `"threads":1`)
	assert.Contains(t, body, `"replies":0`)
}

func TestMessageTextRoundTrip(t *testing.T) {
	router, db, _ := setupTestRouter(t)

	message := `1 < 2 and 3 > 2, "quotes" & 'apostrophes'`
	w := postUpload(t, router, map[string]string{"title": "Markup", "message": message}, nil)
	require.Equal(t, http.StatusSeeOther, w.Code)

	var post models.Post
	require.NoError(t, db.Where("title = ?", "Markup").First(&post).Error)
	assert.Equal(t, message, post.Message, "stored text is exactly what was submitted")

	html := get(router, "/").Body.String()
	assert.Contains(t, html, "1 &lt; 2 and 3 &gt; 2")
	assert.NotContains(t, html, "&amp;lt;", "text must be escaped exactly once")

	// Tag-shaped input stays inert in the rendered page.
	w = postUpload(t, router, map[string]string{
		"title":   "xss",
		"message": "hi <script>alert(1)</script> there",
	}, nil)
	require.Equal(t, http.StatusSeeOther, w.Code)
	html = get(router, "/").Body.String()
	assert.NotContains(t, html, "<script>alert")
	assert.Contains(t, html, "&lt;script&gt;")
}

func TestTagOnlyTitleStaysNonEmpty(t *testing.T) {
	router, db, _ := setupTestRouter(t)

	w := postUpload(t, router, map[string]string{"title": "<b></b>", "message": "hello"}, nil)
	require.Equal(t, http.StatusSeeOther, w.Code)

	var post models.Post
	require.NoError(t, db.Where("message = ?", "hello").First(&post).Error)
	assert.Equal(t, "<b></b>", post.Title)
	assert.NotEmpty(t, strings.TrimSpace(post.Title))
}
