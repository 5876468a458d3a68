package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"studycards/internal/llm"
)

const (
	PlaceholderQuestion = "Sample Question from AI"
	PlaceholderAnswer   = "Sample Answer from AI"

	maxStudyTextRunes = 4000
)

// CardGenerator arma una pregunta/respuesta a partir de texto de estudio.
type CardGenerator interface {
	Generate(ctx context.Context, studyText string) (question, answer string, err error)
}

type placeholderGenerator struct{}

// NewPlaceholderGenerator devuelve siempre el par de ejemplo.
func NewPlaceholderGenerator() CardGenerator {
	return placeholderGenerator{}
}

func (placeholderGenerator) Generate(context.Context, string) (string, string, error) {
	return PlaceholderQuestion, PlaceholderAnswer, nil
}

// LLMCardGenerator pide la tarjeta a un LLM y cae al par de ejemplo si falla.
type LLMCardGenerator struct {
	client llm.LLMClient
	logger *zap.Logger
}

func NewLLMCardGenerator(client llm.LLMClient, logger *zap.Logger) *LLMCardGenerator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LLMCardGenerator{client: client, logger: logger}
}

type generatedCard struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

func (g *LLMCardGenerator) Generate(ctx context.Context, studyText string) (string, string, error) {
	studyText = strings.TrimSpace(studyText)
	if g.client == nil || studyText == "" {
		return PlaceholderQuestion, PlaceholderAnswer, nil
	}

	raw, err := g.client.Generate(ctx, buildCardPrompt(studyText))
	if err != nil {
		g.logger.Warn("card generation failed", zap.Error(err))
		return PlaceholderQuestion, PlaceholderAnswer, nil
	}

	var card generatedCard
	if err := decodeLLMJSON(raw, &card); err != nil {
		g.logger.Warn("card generation reply unparsable", zap.Error(err), zap.String("raw", raw))
		return PlaceholderQuestion, PlaceholderAnswer, nil
	}
	card.Question = strings.TrimSpace(card.Question)
	card.Answer = strings.TrimSpace(card.Answer)
	if card.Question == "" || card.Answer == "" {
		g.logger.Warn("card generation reply incomplete", zap.String("raw", raw))
		return PlaceholderQuestion, PlaceholderAnswer, nil
	}
	return card.Question, card.Answer, nil
}

func buildCardPrompt(studyText string) string {
	runes := []rune(studyText)
	if len(runes) > maxStudyTextRunes {
		studyText = string(runes[:maxStudyTextRunes])
	}
	return fmt.Sprintf("STUDY TEXT:\n%s", studyText)
}

const cardSystemPrompt = `You write study flashcards.
Read the study text and produce ONE flashcard that checks the most important idea.
Reply with a JSON object only: {"question": "...", "answer": "..."}
Keep the answer under 3 sentences.`

// CardLLMOptions configura el cliente LLM usado por LLMCardGenerator.
func CardLLMOptions(timeout time.Duration) llm.Options {
	temperature := 0.3
	return llm.Options{
		SystemPrompt: cardSystemPrompt,
		Temperature:  &temperature,
		MaxTokens:    300,
		Timeout:      timeout,
	}
}
