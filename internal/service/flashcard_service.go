package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"studycards/internal/domain"
	"studycards/internal/repository"
)

var (
	ErrFlashcardNotFound = errors.New("flashcard not found")
	ErrInvalidFlashcard  = errors.New("invalid flashcard")
)

// FlashcardService aplica ownership y reglas de dominio sobre las flashcards.
type FlashcardService struct {
	logger    *zap.Logger
	cards     repository.FlashcardRepository
	generator CardGenerator
}

func NewFlashcardService(logger *zap.Logger, cards repository.FlashcardRepository, generator CardGenerator) *FlashcardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if generator == nil {
		generator = NewPlaceholderGenerator()
	}
	return &FlashcardService{
		logger:    logger,
		cards:     cards,
		generator: generator,
	}
}

type CreateFlashcardInput struct {
	StudyText string
	Question  string
	Answer    string
	Category  string
}

// Create guarda una flashcard. Sin pregunta/respuesta se generan desde StudyText.
func (s *FlashcardService) Create(ctx context.Context, userID int64, input CreateFlashcardInput) (domain.Flashcard, error) {
	question := strings.TrimSpace(input.Question)
	answer := strings.TrimSpace(input.Answer)
	studyText := strings.TrimSpace(input.StudyText)

	if question == "" || answer == "" {
		if studyText == "" {
			return domain.Flashcard{}, ErrInvalidFlashcard
		}
		q, a, err := s.generator.Generate(ctx, studyText)
		if err != nil {
			return domain.Flashcard{}, err
		}
		question, answer = q, a
	}

	card := domain.Flashcard{
		Question:     question,
		Answer:       answer,
		UserID:       userID,
		Category:     normalizeCategory(input.Category),
		MasteryLevel: domain.MinMastery,
	}
	if err := s.cards.Create(ctx, &card); err != nil {
		s.logger.Error("create flashcard failed", zap.Int64("user_id", userID), zap.Error(err))
		return domain.Flashcard{}, err
	}
	return card, nil
}

// List devuelve las flashcards del usuario. Un fallo del backend se registra y se ve como lista vacia.
func (s *FlashcardService) List(ctx context.Context, userID int64, category string, sort domain.SortKey) []domain.Flashcard {
	category = strings.TrimSpace(category)
	if strings.EqualFold(category, "all") {
		category = ""
	}
	cards, err := s.cards.ListByUser(ctx, userID, repository.ListOptions{Category: category, Sort: sort})
	if err != nil {
		s.logger.Warn("list flashcards failed", zap.Int64("user_id", userID), zap.Error(err))
		return []domain.Flashcard{}
	}
	if cards == nil {
		return []domain.Flashcard{}
	}
	return cards
}

func (s *FlashcardService) Get(ctx context.Context, userID, id int64) (domain.Flashcard, error) {
	card, err := s.cards.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Flashcard{}, ErrFlashcardNotFound
		}
		return domain.Flashcard{}, err
	}
	if card.UserID != userID {
		return domain.Flashcard{}, ErrFlashcardNotFound
	}
	return card, nil
}

type UpdateFlashcardInput struct {
	Question string
	Answer   string
	Category string
}

func (s *FlashcardService) Update(ctx context.Context, userID, id int64, input UpdateFlashcardInput) (domain.Flashcard, error) {
	card, err := s.Get(ctx, userID, id)
	if err != nil {
		return domain.Flashcard{}, err
	}
	if q := strings.TrimSpace(input.Question); q != "" {
		card.Question = q
	}
	if a := strings.TrimSpace(input.Answer); a != "" {
		card.Answer = a
	}
	if strings.TrimSpace(input.Category) != "" {
		card.Category = normalizeCategory(input.Category)
	}
	if err := s.cards.Update(ctx, card); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Flashcard{}, ErrFlashcardNotFound
		}
		return domain.Flashcard{}, err
	}
	return card, nil
}

func (s *FlashcardService) Delete(ctx context.Context, userID, id int64) error {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return err
	}
	if err := s.cards.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrFlashcardNotFound
		}
		return err
	}
	return nil
}

// MasteryResult es nil-Flashcard cuando la tarjeta no existe o es de otro usuario.
type MasteryResult struct {
	Flashcard *domain.Flashcard
	Changed   bool
}

// AdjustMastery aplica +1/-1 acotado. Una flashcard ajena o inexistente se ignora en silencio.
func (s *FlashcardService) AdjustMastery(ctx context.Context, userID, id int64, dir domain.MasteryDirection) (MasteryResult, error) {
	if !dir.Valid() {
		return MasteryResult{}, ErrInvalidFlashcard
	}
	card, err := s.cards.GetByID(ctx, id)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			s.logger.Warn("load flashcard failed", zap.Int64("flashcard_id", id), zap.Error(err))
		}
		return MasteryResult{}, nil
	}
	if card.UserID != userID {
		return MasteryResult{}, nil
	}
	if !card.AdjustMastery(dir) {
		return MasteryResult{Flashcard: &card}, nil
	}
	if err := s.cards.Update(ctx, card); err != nil {
		s.logger.Error("update mastery failed", zap.Int64("flashcard_id", id), zap.Error(err))
		return MasteryResult{}, err
	}
	return MasteryResult{Flashcard: &card, Changed: true}, nil
}

// Count devuelve 0 si el backend no responde.
func (s *FlashcardService) Count(ctx context.Context, userID int64) int {
	n, err := s.cards.CountByUser(ctx, userID)
	if err != nil {
		s.logger.Warn("count flashcards failed", zap.Int64("user_id", userID), zap.Error(err))
		return 0
	}
	return n
}

func normalizeCategory(category string) string {
	category = strings.TrimSpace(category)
	if category == "" {
		return domain.DefaultCategory
	}
	return category
}
