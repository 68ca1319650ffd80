package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"nanoboard/board"
	"nanoboard/render"
	"nanoboard/utils"
)

// BoardController serves the read side: the paginated top-level listing and
// single-thread views.
type BoardController struct {
	builder  *board.Builder
	renderer render.Renderer
}

// NewBoardController creates a BoardController.
func NewBoardController(builder *board.Builder, renderer render.Renderer) *BoardController {
	return &BoardController{builder: builder, renderer: renderer}
}

// Index renders one page of thread roots. Missing or invalid ?page= means
// page 1.
func (b *BoardController) Index(ctx *gin.Context) {
	page, err := b.builder.IndexPage(board.ParsePage(ctx.Query("page")))
	if err != nil {
		utils.Sugar.Errorf("build index page failed: %v", err)
		ctx.String(http.StatusInternalServerError, "Failed to load board.")
		return
	}

	ctx.Header("Content-Type", "text/html; charset=utf-8")
	ctx.Status(http.StatusOK)
	if err := b.renderer.Index(ctx.Writer, page); err != nil {
		utils.Sugar.Errorf("render index failed: %v", err)
	}
}

// ViewThread renders a thread: the original post followed by its replies.
func (b *BoardController) ViewThread(ctx *gin.Context) {
	rootID, err := strconv.ParseUint(ctx.Param("id"), 10, 32)
	if err != nil {
		ctx.String(http.StatusBadRequest, "Invalid post id.")
		return
	}

	page, err := b.builder.ThreadPage(uint(rootID))
	if err != nil {
		utils.Sugar.Errorf("build thread page failed: %v", err)
		ctx.String(http.StatusInternalServerError, "Failed to load thread.")
		return
	}

	ctx.Header("Content-Type", "text/html; charset=utf-8")
	ctx.Status(http.StatusOK)
	if err := b.renderer.Thread(ctx.Writer, page); err != nil {
		utils.Sugar.Errorf("render thread failed: %v", err)
	}
}
