package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/eduportal/oferta-api/internal/service"
	appErrors "github.com/eduportal/oferta-api/pkg/errors"
)

type chatServiceMock struct {
	enabled  bool
	response *service.ChatResponse
	err      error
	lastReq  service.ChatRequest
}

func (m *chatServiceMock) Enabled() bool { return m.enabled }

func (m *chatServiceMock) Ask(ctx context.Context, req service.ChatRequest) (*service.ChatResponse, error) {
	m.lastReq = req
	return m.response, m.err
}

func performChat(t *testing.T, mock *chatServiceMock, body string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	handler := NewChatHandler(mock)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/chat", bytes.NewBufferString(body))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Ask(c)
	return rec
}

func TestChatHandlerSuccess(t *testing.T) {
	mock := &chatServiceMock{
		enabled:  true,
		response: &service.ChatResponse{SessionID: "sess-1", Answer: "La carrera dura 10 semestres."},
	}

	rec := performChat(t, mock, `{"message":"¿Cuánto dura ingeniería?","session_id":"sess-1"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "¿Cuánto dura ingeniería?", mock.lastReq.Message)
	assert.Equal(t, "sess-1", mock.lastReq.SessionID)

	var envelope struct {
		Data service.ChatResponse `json:"data"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &envelope)
	assert.Equal(t, "La carrera dura 10 semestres.", envelope.Data.Answer)
}

func TestChatHandlerDisabled(t *testing.T) {
	rec := performChat(t, &chatServiceMock{enabled: false}, `{"message":"hola"}`)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestChatHandlerMalformedBody(t *testing.T) {
	rec := performChat(t, &chatServiceMock{enabled: true}, `{"message":`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChatHandlerServiceError(t *testing.T) {
	mock := &chatServiceMock{
		enabled: true,
		err:     appErrors.Clone(appErrors.ErrValidation, "invalid chat payload"),
	}

	rec := performChat(t, mock, `{"message":"x"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
