package service

import (
	"context"
	"errors"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eduportal/oferta-api/internal/models"
	appErrors "github.com/eduportal/oferta-api/pkg/errors"
)

type fakeCompleter struct {
	lastRequest openai.ChatCompletionRequest
	answer      string
	err         error
}

func (f *fakeCompleter) CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.lastRequest = request
	if f.err != nil {
		return openai.ChatCompletionResponse{}, f.err
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: f.answer}},
		},
	}, nil
}

type fakeSearcher struct {
	lastFilters models.SearchFilters
	result      *models.SearchResult
	err         error
}

func (f *fakeSearcher) Search(ctx context.Context, filters models.SearchFilters) (*models.SearchResult, bool, error) {
	f.lastFilters = filters
	if f.err != nil {
		return nil, false, f.err
	}
	return f.result, false, nil
}

func TestChatAskGroundsAnswerInCatalog(t *testing.T) {
	completer := &fakeCompleter{answer: "  La carrera de Medicina dura 12 semestres. "}
	searcher := &fakeSearcher{result: &models.SearchResult{
		Offerings: []models.Offering{
			{ID: "1", Name: "Medicina", Institution: "Universidad Nacional", Modality: "Presencial", Level: "Pregrado", Area: "Salud", DurationSemesters: 12},
		},
	}}
	svc := NewChatService(completer, searcher, nil, nil, ChatServiceConfig{Model: "test-model", ContextResults: 5})

	resp, err := svc.Ask(context.Background(), ChatRequest{Message: "¿Cuánto dura medicina?"})
	require.NoError(t, err)

	assert.Equal(t, "La carrera de Medicina dura 12 semestres.", resp.Answer)
	assert.NotEmpty(t, resp.SessionID)
	require.Len(t, resp.Sources, 1)

	assert.Equal(t, 5, searcher.lastFilters.Limit)
	assert.Equal(t, "¿Cuánto dura medicina?", searcher.lastFilters.Query)

	require.Len(t, completer.lastRequest.Messages, 2)
	assert.Equal(t, "test-model", completer.lastRequest.Model)
	assert.Contains(t, completer.lastRequest.Messages[1].Content, "Medicina | Universidad Nacional")
	assert.Contains(t, completer.lastRequest.Messages[1].Content, "¿Cuánto dura medicina?")
}

func TestChatDefaultsModel(t *testing.T) {
	completer := &fakeCompleter{answer: "ok"}
	searcher := &fakeSearcher{result: &models.SearchResult{Offerings: []models.Offering{}}}
	svc := NewChatService(completer, searcher, nil, nil, ChatServiceConfig{})

	_, err := svc.Ask(context.Background(), ChatRequest{Message: "hola mundo"})
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o-mini", completer.lastRequest.Model)
}

func TestChatAskKeepsSessionID(t *testing.T) {
	completer := &fakeCompleter{answer: "ok"}
	searcher := &fakeSearcher{result: &models.SearchResult{Offerings: []models.Offering{}}}
	svc := NewChatService(completer, searcher, nil, nil, ChatServiceConfig{})

	resp, err := svc.Ask(context.Background(), ChatRequest{Message: "hola mundo", SessionID: "s-1"})
	require.NoError(t, err)
	assert.Equal(t, "s-1", resp.SessionID)
	assert.Contains(t, completer.lastRequest.Messages[1].Content, "sin resultados")
}

func TestChatAskValidatesPayload(t *testing.T) {
	svc := NewChatService(&fakeCompleter{answer: "ok"}, &fakeSearcher{}, nil, nil, ChatServiceConfig{})

	_, err := svc.Ask(context.Background(), ChatRequest{Message: ""})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestChatAskDisabled(t *testing.T) {
	svc := NewChatService(nil, &fakeSearcher{}, nil, nil, ChatServiceConfig{})

	_, err := svc.Ask(context.Background(), ChatRequest{Message: "hola mundo"})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrUnavailable.Code, appErr.Code)
}

func TestChatAskPropagatesSearchError(t *testing.T) {
	searcher := &fakeSearcher{err: appErrors.DataSource(errors.New("down"))}
	svc := NewChatService(&fakeCompleter{answer: "ok"}, searcher, nil, nil, ChatServiceConfig{})

	_, err := svc.Ask(context.Background(), ChatRequest{Message: "hola mundo"})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrDataSource.Code, appErr.Code)
}

func TestChatAskCompletionFailure(t *testing.T) {
	completer := &fakeCompleter{err: errors.New("rate limited")}
	searcher := &fakeSearcher{result: &models.SearchResult{}}
	svc := NewChatService(completer, searcher, nil, nil, ChatServiceConfig{})

	_, err := svc.Ask(context.Background(), ChatRequest{Message: "hola mundo"})
	require.Error(t, err)
}
