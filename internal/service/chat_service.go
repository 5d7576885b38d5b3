package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/eduportal/oferta-api/internal/models"
	appErrors "github.com/eduportal/oferta-api/pkg/errors"
)

// chatCompleter is the minimal slice of the OpenAI client the chatbot
// needs, so tests can substitute a fake backend.
type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

type catalogSearcher interface {
	Search(ctx context.Context, filters models.SearchFilters) (*models.SearchResult, bool, error)
}

// ChatRequest is the payload for one chatbot turn.
type ChatRequest struct {
	Message   string `json:"message" validate:"required,min=2,max=500"`
	SessionID string `json:"session_id,omitempty"`
}

// ChatResponse carries the model's answer and the offerings used as
// grounding context.
type ChatResponse struct {
	SessionID string            `json:"session_id"`
	Answer    string            `json:"answer"`
	Sources   []models.Offering `json:"sources"`
}

// defaultChatModel matches the OPENAI_MODEL config default.
const defaultChatModel = "gpt-4o-mini"

// ChatServiceConfig tunes the chatbot.
type ChatServiceConfig struct {
	Model          string
	ContextResults int
	MaxTokens      int
}

// ChatService answers questions about the catalog: it retrieves matching
// offerings, folds them into the prompt as the only source of truth, and
// makes one chat-completion round trip.
type ChatService struct {
	completer chatCompleter
	searcher  catalogSearcher
	validator *validator.Validate
	logger    *zap.Logger
	cfg       ChatServiceConfig
}

// NewChatService constructs the chatbot. A nil completer disables it.
func NewChatService(completer chatCompleter, searcher catalogSearcher, validate *validator.Validate, logger *zap.Logger, cfg ChatServiceConfig) *ChatService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ContextResults <= 0 {
		cfg.ContextResults = 8
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 600
	}
	if cfg.Model == "" {
		cfg.Model = defaultChatModel
	}
	return &ChatService{completer: completer, searcher: searcher, validator: validate, logger: logger, cfg: cfg}
}

// Enabled reports whether a chat backend is configured.
func (s *ChatService) Enabled() bool {
	return s != nil && s.completer != nil
}

const chatSystemPrompt = `Eres un asesor académico del portal de oferta educativa.
Responde únicamente con base en los programas listados en el contexto.
Si el contexto no contiene información suficiente, dilo claramente y sugiere ajustar la búsqueda.
Responde en español, de forma breve y concreta.`

// Ask runs one chatbot turn.
func (s *ChatService) Ask(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if !s.Enabled() {
		return nil, appErrors.Clone(appErrors.ErrUnavailable, "chat is not configured")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid chat payload")
	}

	result, _, err := s.searcher.Search(ctx, models.SearchFilters{
		Query: req.Message,
		Page:  1,
		Limit: s.cfg.ContextResults,
	})
	if err != nil {
		return nil, err
	}

	completion, err := s.completer.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     s.cfg.Model,
		MaxTokens: s.cfg.MaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: chatSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildChatPrompt(req.Message, result.Offerings)},
		},
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "chat completion failed")
	}
	if len(completion.Choices) == 0 {
		return nil, appErrors.Clone(appErrors.ErrInternal, "chat backend returned no choices")
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	return &ChatResponse{
		SessionID: sessionID,
		Answer:    strings.TrimSpace(completion.Choices[0].Message.Content),
		Sources:   result.Offerings,
	}, nil
}

func buildChatPrompt(question string, offerings []models.Offering) string {
	var b strings.Builder
	b.WriteString("Contexto (programas académicos):\n")
	if len(offerings) == 0 {
		b.WriteString("(sin resultados para esta consulta)\n")
	}
	for i, offering := range offerings {
		fmt.Fprintf(&b, "%d. %s | %s | modalidad: %s | nivel: %s | área: %s | duración: %d semestres",
			i+1, offering.Name, offering.Institution, offering.Modality, offering.Level, offering.Area, offering.DurationSemesters)
		if offering.TuitionPerTerm > 0 {
			fmt.Fprintf(&b, " | valor semestre: %.0f", offering.TuitionPerTerm)
		}
		b.WriteString("\n")
	}
	b.WriteString("\nPregunta: ")
	b.WriteString(question)
	return b.String()
}
