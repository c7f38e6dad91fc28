package services

import (
	"errors"
	"fmt"
	"time"

	"taskflow/server/internal/apperrors"
	"taskflow/server/internal/config"
	"taskflow/server/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// AuthResult is the shape returned by registration and login.
type AuthResult struct {
	Token string            `json:"token"`
	User  models.PublicUser `json:"user"`
}

type AuthService interface {
	RegisterUser(db *gorm.DB, email, password, name string) (*AuthResult, error)
	LoginUser(db *gorm.DB, email, password string) (*AuthResult, error)
	GetUserByID(db *gorm.DB, id uint) (*models.UserProfile, error)
	GetUserFromTokenPayload(db *gorm.DB, userID uint) (*models.UserProfile, error)
	RefreshToken(oldToken string) (string, error)
	GenerateToken(userID uint) (string, error)
	ParseToken(tokenStr string) (uint, error)
}

// AuthServiceImpl holds the signing secret and token lifetime injected
// at construction; it never reads process environment itself.
type AuthServiceImpl struct {
	cfg config.AuthConfig
}

func NewAuthService(cfg config.AuthConfig) *AuthServiceImpl {
	return &AuthServiceImpl{cfg: cfg}
}

func (s *AuthServiceImpl) RegisterUser(db *gorm.DB, email, password, name string) (*AuthResult, error) {
	// The lookup happens before hashing so a duplicate email fails
	// without paying the bcrypt cost.
	var existing models.User
	err := db.Where("email = ?", email).First(&existing).Error
	if err == nil {
		return nil, apperrors.ErrUserAlreadyRegistered
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("lookup user by email: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BCryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := models.User{
		Email:    email,
		Password: string(hashed),
		Name:     name,
	}
	if err := db.Create(&user).Error; err != nil {
		// The pre-check races with concurrent registrations; the unique
		// index on email is the real guarantee.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.ErrUserAlreadyRegistered
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	token, err := s.GenerateToken(user.ID)
	if err != nil {
		return nil, err
	}

	return &AuthResult{Token: token, User: user.Public()}, nil
}

func (s *AuthServiceImpl) LoginUser(db *gorm.DB, email, password string) (*AuthResult, error) {
	var user models.User
	if err := db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Unknown email and wrong password are indistinguishable.
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup user by email: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, apperrors.ErrInvalidCredentials
	}

	token, err := s.GenerateToken(user.ID)
	if err != nil {
		return nil, err
	}

	return &AuthResult{Token: token, User: user.Public()}, nil
}

func (s *AuthServiceImpl) GetUserByID(db *gorm.DB, id uint) (*models.UserProfile, error) {
	var user models.User
	err := db.Select("id", "email", "name", "created_at").First(&user, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("lookup user by id: %w", err)
	}
	profile := user.Profile()
	return &profile, nil
}

func (s *AuthServiceImpl) GetUserFromTokenPayload(db *gorm.DB, userID uint) (*models.UserProfile, error) {
	profile, err := s.GetUserByID(db, userID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		// The token verified but the account it references is gone.
		return nil, apperrors.ErrUserNotFound
	}
	return profile, nil
}

// RefreshToken reissues a token for the user id embedded in a still
// valid token. It does not check that the user still exists.
func (s *AuthServiceImpl) RefreshToken(oldToken string) (string, error) {
	userID, err := s.ParseToken(oldToken)
	if err != nil {
		return "", err
	}
	return s.GenerateToken(userID)
}

func (s *AuthServiceImpl) GenerateToken(userID uint) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(s.cfg.TokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ParseToken verifies signature and expiry and returns the embedded
// user id. Any verification failure maps to ErrInvalidToken.
func (s *AuthServiceImpl) ParseToken(tokenStr string) (uint, error) {
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return 0, apperrors.ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, apperrors.ErrInvalidToken
	}

	id, ok := claims["user_id"].(float64)
	if !ok || id <= 0 {
		return 0, apperrors.ErrInvalidToken
	}

	return uint(id), nil
}
