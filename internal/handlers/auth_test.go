package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"taskflow/server/internal/apperrors"
	"taskflow/server/internal/handlers"
	"taskflow/server/internal/models"
	"taskflow/server/internal/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type MockAuthService struct {
	users      map[string]string // email -> password
	nextUserID uint
	userGone   bool
}

func newMockAuthService() *MockAuthService {
	return &MockAuthService{users: map[string]string{}, nextUserID: 1}
}

func (m *MockAuthService) RegisterUser(db *gorm.DB, email, password, name string) (*services.AuthResult, error) {
	if _, exists := m.users[email]; exists {
		return nil, apperrors.ErrUserAlreadyRegistered
	}
	m.users[email] = password
	result := &services.AuthResult{
		Token: "issued-token",
		User:  models.PublicUser{ID: m.nextUserID, Email: email, Name: name},
	}
	m.nextUserID++
	return result, nil
}

func (m *MockAuthService) LoginUser(db *gorm.DB, email, password string) (*services.AuthResult, error) {
	stored, exists := m.users[email]
	if !exists || stored != password {
		return nil, apperrors.ErrInvalidCredentials
	}
	return &services.AuthResult{
		Token: "issued-token",
		User:  models.PublicUser{ID: 1, Email: email, Name: "User"},
	}, nil
}

func (m *MockAuthService) GetUserByID(db *gorm.DB, id uint) (*models.UserProfile, error) {
	if m.userGone {
		return nil, nil
	}
	return &models.UserProfile{ID: id, Email: "user@example.com", Name: "User"}, nil
}

func (m *MockAuthService) GetUserFromTokenPayload(db *gorm.DB, userID uint) (*models.UserProfile, error) {
	if m.userGone {
		return nil, apperrors.ErrUserNotFound
	}
	return &models.UserProfile{ID: userID, Email: "user@example.com", Name: "User"}, nil
}

func (m *MockAuthService) RefreshToken(oldToken string) (string, error) {
	if oldToken != "issued-token" {
		return "", apperrors.ErrInvalidToken
	}
	return "refreshed-token", nil
}

func (m *MockAuthService) GenerateToken(userID uint) (string, error) {
	return "issued-token", nil
}

func (m *MockAuthService) ParseToken(tokenStr string) (uint, error) {
	if tokenStr != "issued-token" {
		return 0, apperrors.ErrInvalidToken
	}
	return 1, nil
}

func setupAuthHandler() (*handlers.AuthHandler, *MockAuthService, *gin.Engine) {
	gin.SetMode(gin.TestMode)
	mockService := newMockAuthService()
	handler := handlers.NewAuthHandler(nil, mockService)
	router := gin.New()
	return handler, mockService, router
}

func postJSON(router *gin.Engine, path string, payload map[string]interface{}) *httptest.ResponseRecorder {
	body, _ := json.Marshal(payload)
	req, _ := http.NewRequest("POST", path, bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRegister(t *testing.T) {
	handler, _, router := setupAuthHandler()
	router.POST("/register", handler.Register)

	w := postJSON(router, "/register", map[string]interface{}{
		"email":    "ana@example.com",
		"password": "strongpass",
		"name":     "Ana",
	})

	if w.Code != http.StatusCreated {
		t.Errorf("Expected status %d, got %d", http.StatusCreated, w.Code)
	}

	var result services.AuthResult
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if result.Token == "" {
		t.Error("Expected a token in the response")
	}
	if result.User.Email != "ana@example.com" {
		t.Errorf("Expected email 'ana@example.com', got '%s'", result.User.Email)
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	handler, _, router := setupAuthHandler()
	router.POST("/register", handler.Register)

	payload := map[string]interface{}{
		"email":    "dup@example.com",
		"password": "strongpass",
		"name":     "Dup",
	}
	postJSON(router, "/register", payload)
	w := postJSON(router, "/register", payload)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status %d, got %d", http.StatusBadRequest, w.Code)
	}

	var response map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if response["message"] == "" {
		t.Error("Expected a message field in the error body")
	}
}

func TestRegister_InvalidBody(t *testing.T) {
	handler, _, router := setupAuthHandler()
	router.POST("/register", handler.Register)

	w := postJSON(router, "/register", map[string]interface{}{
		"email": "not-an-email",
	})

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
}

func TestLogin_InvalidCredentialsIndistinguishable(t *testing.T) {
	handler, _, router := setupAuthHandler()
	router.POST("/register", handler.Register)
	router.POST("/login", handler.Login)

	postJSON(router, "/register", map[string]interface{}{
		"email":    "known@example.com",
		"password": "strongpass",
		"name":     "Known",
	})

	wrongPass := postJSON(router, "/login", map[string]interface{}{
		"email":    "known@example.com",
		"password": "wrongpass",
	})
	unknownEmail := postJSON(router, "/login", map[string]interface{}{
		"email":    "unknown@example.com",
		"password": "strongpass",
	})

	if wrongPass.Code != http.StatusUnauthorized {
		t.Errorf("Expected status %d, got %d", http.StatusUnauthorized, wrongPass.Code)
	}
	if unknownEmail.Code != http.StatusUnauthorized {
		t.Errorf("Expected status %d, got %d", http.StatusUnauthorized, unknownEmail.Code)
	}
	if wrongPass.Body.String() != unknownEmail.Body.String() {
		t.Errorf("Wrong-password and unknown-email responses must be identical, got %s vs %s",
			wrongPass.Body.String(), unknownEmail.Body.String())
	}
}

func TestRefresh(t *testing.T) {
	handler, _, router := setupAuthHandler()
	router.POST("/refresh", handler.Refresh)

	w := postJSON(router, "/refresh", map[string]interface{}{"token": "issued-token"})

	if w.Code != http.StatusOK {
		t.Errorf("Expected status %d, got %d", http.StatusOK, w.Code)
	}

	var response map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if response["token"] != "refreshed-token" {
		t.Errorf("Expected refreshed token, got '%s'", response["token"])
	}
}

func TestRefresh_InvalidToken(t *testing.T) {
	handler, _, router := setupAuthHandler()
	router.POST("/refresh", handler.Refresh)

	w := postJSON(router, "/refresh", map[string]interface{}{"token": "garbage"})

	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status %d, got %d", http.StatusUnauthorized, w.Code)
	}
}

func TestMe_UserGone(t *testing.T) {
	handler, mockService, router := setupAuthHandler()
	mockService.userGone = true

	router.GET("/me", func(c *gin.Context) {
		c.Set("user_id", uint(1))
		c.Next()
	}, handler.Me)

	req, _ := http.NewRequest("GET", "/me", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status %d, got %d", http.StatusNotFound, w.Code)
	}
}

func TestGetUserByID_Missing(t *testing.T) {
	handler, mockService, router := setupAuthHandler()
	mockService.userGone = true

	router.GET("/users/:id", handler.GetUserByID)

	req, _ := http.NewRequest("GET", "/users/5", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status %d, got %d", http.StatusNotFound, w.Code)
	}
}

func TestGetUserByID_Found(t *testing.T) {
	handler, _, router := setupAuthHandler()

	router.GET("/users/:id", handler.GetUserByID)

	req, _ := http.NewRequest("GET", "/users/5", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status %d, got %d", http.StatusOK, w.Code)
	}

	var profile models.UserProfile
	if err := json.Unmarshal(w.Body.Bytes(), &profile); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if profile.ID != 5 {
		t.Errorf("Expected user id 5, got %d", profile.ID)
	}
}
