package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"nanoboard/repository"
	"nanoboard/utils"
)

// StatsController exposes board-wide counters as JSON.
type StatsController struct {
	repo *repository.PostRepository
}

// NewStatsController creates a StatsController.
func NewStatsController(repo *repository.PostRepository) *StatsController {
	return &StatsController{repo: repo}
}

// GetStats returns total post, thread, and reply counts.
func (s *StatsController) GetStats(ctx *gin.Context) {
	posts, err := s.repo.CountPosts()
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50010, "failed to count posts")
		return
	}
	threads, err := s.repo.CountThreads()
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50011, "failed to count threads")
		return
	}
	utils.Success(ctx, gin.H{
		"posts":   posts,
		"threads": threads,
		"replies": posts - threads,
	})
}
