package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"studycards/internal/domain"
	"studycards/internal/service"
)

// FlashcardHandler expone el CRUD de flashcards del usuario autenticado.
type FlashcardHandler struct {
	logger *zap.Logger
	cards  *service.FlashcardService
}

func NewFlashcardHandler(logger *zap.Logger, cards *service.FlashcardService) *FlashcardHandler {
	return &FlashcardHandler{
		logger: logger,
		cards:  cards,
	}
}

// List maneja GET /flashcards?filter_category=&sort_by=.
func (h *FlashcardHandler) List(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	category := c.DefaultQuery("filter_category", "all")
	sort := domain.SortKey(strings.ToLower(strings.TrimSpace(c.DefaultQuery("sort_by", string(domain.SortNewest)))))

	cards := h.cards.List(c.Request.Context(), claims.UserID, category, sort)
	c.JSON(http.StatusOK, gin.H{"flashcards": cards, "count": len(cards)})
}

// Create maneja POST /flashcards.
func (h *FlashcardHandler) Create(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	var req struct {
		StudyText string `json:"study_text"`
		Question  string `json:"question"`
		Answer    string `json:"answer"`
		Category  string `json:"category"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid create flashcard request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	card, err := h.cards.Create(c.Request.Context(), claims.UserID, service.CreateFlashcardInput{
		StudyText: req.StudyText,
		Question:  req.Question,
		Answer:    req.Answer,
		Category:  req.Category,
	})
	if err != nil {
		if errors.Is(err, service.ErrInvalidFlashcard) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "study_text or question and answer required"})
			return
		}
		respondInternal(c, h.logger, "could not create flashcard", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"flashcard": card})
}

// Get maneja GET /flashcards/:id.
func (h *FlashcardHandler) Get(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	id, ok := paramID(c)
	if !ok {
		return
	}
	card, err := h.cards.Get(c.Request.Context(), claims.UserID, id)
	if err != nil {
		h.respondCardError(c, "could not load flashcard", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"flashcard": card})
}

// Update maneja PUT /flashcards/:id.
func (h *FlashcardHandler) Update(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	id, ok := paramID(c)
	if !ok {
		return
	}
	var req struct {
		Question string `json:"question"`
		Answer   string `json:"answer"`
		Category string `json:"category"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid update flashcard request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	card, err := h.cards.Update(c.Request.Context(), claims.UserID, id, service.UpdateFlashcardInput{
		Question: req.Question,
		Answer:   req.Answer,
		Category: req.Category,
	})
	if err != nil {
		h.respondCardError(c, "could not update flashcard", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"flashcard": card})
}

// Delete maneja DELETE /flashcards/:id.
func (h *FlashcardHandler) Delete(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	id, ok := paramID(c)
	if !ok {
		return
	}
	if err := h.cards.Delete(c.Request.Context(), claims.UserID, id); err != nil {
		h.respondCardError(c, "could not delete flashcard", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// AdjustMastery maneja POST /flashcards/:id/mastery. Una tarjeta ajena o inexistente
// responde igual que una propia sin cambios.
func (h *FlashcardHandler) AdjustMastery(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	id, ok := paramID(c)
	if !ok {
		return
	}
	var req struct {
		Mastery string `json:"mastery" binding:"required,oneof=increase decrease"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "mastery must be increase or decrease"})
		return
	}

	dir := domain.MasteryDirection(req.Mastery)
	result, err := h.cards.AdjustMastery(c.Request.Context(), claims.UserID, id, dir)
	if err != nil {
		respondInternal(c, h.logger, "could not update mastery", err)
		return
	}

	resp := gin.H{"status": "ok"}
	if result.Flashcard != nil {
		resp["flashcard"] = result.Flashcard
	}
	if result.Changed {
		resp["message"] = masteryMessage(dir)
	}
	c.JSON(http.StatusOK, resp)
}

func (h *FlashcardHandler) respondCardError(c *gin.Context, msg string, err error) {
	if errors.Is(err, service.ErrFlashcardNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "flashcard not found"})
		return
	}
	respondInternal(c, h.logger, msg, err)
}

func masteryMessage(dir domain.MasteryDirection) string {
	if dir == domain.MasteryIncrease {
		return "Great job! Mastery level increased."
	}
	return "Keep practicing! Mastery level decreased."
}
