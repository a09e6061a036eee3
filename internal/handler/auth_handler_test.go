package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"stockapi/internal/auth"
	"stockapi/internal/middleware"
	"stockapi/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestAuthHandler_Welcome(t *testing.T) {
	h := NewAuthHandler(new(MockAuthService), zerolog.Nop())
	req := httptest.NewRequest(http.MethodGet, "/v1/welcome", nil)
	w := httptest.NewRecorder()

	h.Welcome(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, WelcomeMessage, w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Type"), "text/plain")
}

func TestAuthHandler_Register(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		setupMock      func(svc *MockAuthService)
		expectedStatus int
		expectedCode   string
	}{
		{
			name: "Success",
			body: `{"name":"Ann","email":"ann@example.com","password":"secret123"}`,
			setupMock: func(svc *MockAuthService) {
				svc.On("Register", mock.Anything, &model.CreateUserRequest{
					Name: "Ann", Email: "ann@example.com", Password: "secret123",
				}).Return(&model.User{ID: 1, Name: "Ann", Email: "ann@example.com"}, nil)
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name: "Duplicate email",
			body: `{"name":"Ann","email":"ann@example.com","password":"secret123"}`,
			setupMock: func(svc *MockAuthService) {
				svc.On("Register", mock.Anything, mock.Anything).
					Return(nil, model.NewConflictError("email", "The email has already been taken."))
			},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedCode:   model.ErrCodeValidation,
		},
		{
			name:           "Malformed JSON",
			body:           `{"name":`,
			setupMock:      func(svc *MockAuthService) {},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedCode:   model.ErrCodeInvalidJSON,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockAuthService)
			tt.setupMock(svc)

			h := NewAuthHandler(svc, zerolog.Nop())
			req := httptest.NewRequest(http.MethodPost, "/v1/register", strings.NewReader(tt.body))
			w := httptest.NewRecorder()

			h.Register(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedCode != "" {
				assert.Equal(t, tt.expectedCode, decodeError(t, w.Body).Error)
			} else {
				assert.JSONEq(t, `{"message":"User registered successfully"}`, w.Body.String())
				assert.NotContains(t, w.Body.String(), "password")
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestAuthHandler_Register_DuplicateEmailField(t *testing.T) {
	svc := new(MockAuthService)
	svc.On("Register", mock.Anything, mock.Anything).
		Return(nil, model.NewConflictError("email", "The email has already been taken."))

	h := NewAuthHandler(svc, zerolog.Nop())
	req := httptest.NewRequest(http.MethodPost, "/v1/register",
		strings.NewReader(`{"name":"Ann","email":"ann@example.com","password":"secret123"}`))
	w := httptest.NewRecorder()

	h.Register(w, req)

	resp := decodeError(t, w.Body)
	assert.Equal(t, []string{"The email has already been taken."}, resp.Errors["email"])
}

func TestAuthHandler_Login(t *testing.T) {
	expires := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name           string
		body           string
		setupMock      func(svc *MockAuthService)
		expectedStatus int
		expectedCode   string
	}{
		{
			name: "Success",
			body: `{"email":"ann@example.com","password":"secret123"}`,
			setupMock: func(svc *MockAuthService) {
				svc.On("Login", mock.Anything, &model.LoginRequest{Email: "ann@example.com", Password: "secret123"}).
					Return(&model.LoginResponse{
						Message:   "Login successful",
						Token:     "signed.jwt.token",
						TokenType: "Bearer",
						ExpiresAt: expires,
					}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "Wrong password",
			body: `{"email":"ann@example.com","password":"nope"}`,
			setupMock: func(svc *MockAuthService) {
				svc.On("Login", mock.Anything, mock.Anything).Return(nil, model.ErrInvalidCredentials)
			},
			expectedStatus: http.StatusUnauthorized,
			expectedCode:   model.ErrCodeInvalidCredentials,
		},
		{
			name:           "Malformed JSON",
			body:           `not json`,
			setupMock:      func(svc *MockAuthService) {},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedCode:   model.ErrCodeInvalidJSON,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockAuthService)
			tt.setupMock(svc)

			h := NewAuthHandler(svc, zerolog.Nop())
			req := httptest.NewRequest(http.MethodPost, "/v1/login", strings.NewReader(tt.body))
			w := httptest.NewRecorder()

			h.Login(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedCode != "" {
				assert.Equal(t, tt.expectedCode, decodeError(t, w.Body).Error)
				return
			}

			var resp model.LoginResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, "Login successful", resp.Message)
			assert.Equal(t, "signed.jwt.token", resp.Token)
			assert.Equal(t, "Bearer", resp.TokenType)
			assert.True(t, expires.Equal(resp.ExpiresAt))
			svc.AssertExpectations(t)
		})
	}
}

func TestAuthHandler_Logout(t *testing.T) {
	user := &model.User{ID: 7, Email: "ann@example.com"}
	claims := &auth.Claims{Email: user.Email}

	t.Run("Revokes the current token", func(t *testing.T) {
		svc := new(MockAuthService)
		svc.On("Logout", mock.Anything, claims).Return(nil)

		h := NewAuthHandler(svc, zerolog.Nop())
		req := httptest.NewRequest(http.MethodPost, "/v1/logout", nil)
		req = req.WithContext(middleware.WithUser(req.Context(), user, claims))
		w := httptest.NewRecorder()

		h.Logout(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("Unauthenticated request", func(t *testing.T) {
		svc := new(MockAuthService)

		h := NewAuthHandler(svc, zerolog.Nop())
		req := httptest.NewRequest(http.MethodPost, "/v1/logout", nil)
		w := httptest.NewRecorder()

		h.Logout(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		svc.AssertNotCalled(t, "Logout", mock.Anything, mock.Anything)
	})
}

func TestAuthHandler_Me(t *testing.T) {
	user := &model.User{ID: 7, Name: "Ann", Email: "ann@example.com", PasswordHash: "$2a$10$hash"}

	h := NewAuthHandler(new(MockAuthService), zerolog.Nop())
	req := httptest.NewRequest(http.MethodGet, "/v1/user", nil)
	req = req.WithContext(middleware.WithUser(req.Context(), user, &auth.Claims{}))
	w := httptest.NewRecorder()

	h.Me(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"email":"ann@example.com"`)
	assert.NotContains(t, w.Body.String(), "$2a$10$hash")
}
