package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/anonto42/nano-feed/backend/internal/apperror"
	"github.com/anonto42/nano-feed/backend/internal/middleware"
	"github.com/anonto42/nano-feed/backend/internal/models"
	"github.com/anonto42/nano-feed/backend/internal/repositories"
	"github.com/anonto42/nano-feed/backend/validators"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"
)

const passwordCost = 12

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	userRepository repositories.UserRepository
	firebaseAuth   middleware.TokenVerifier
	jwtSecret      string
	tokenTTL       time.Duration
}

// NewAuthHandler creates a new AuthHandler. firebaseAuth may be nil, in
// which case the Firebase login route is not registered.
func NewAuthHandler(userRepo repositories.UserRepository, firebaseAuth middleware.TokenVerifier, jwtSecret string, tokenTTL time.Duration) *AuthHandler {
	return &AuthHandler{
		userRepository: userRepo,
		firebaseAuth:   firebaseAuth,
		jwtSecret:      jwtSecret,
		tokenTTL:       tokenTTL,
	}
}

// RegisterAuthRoutes registers authentication-related routes
func (h *AuthHandler) RegisterAuthRoutes(g *echo.Group) {
	g.PUT("/signup", h.Signup)
	g.POST("/login", h.Login)
	if h.firebaseAuth != nil {
		g.POST("/firebase-login", h.FirebaseLogin)
	}
}

// Signup handles local user registration with email and password
func (h *AuthHandler) Signup(c echo.Context) error {
	var req models.SignupRequest
	if err := c.Bind(&req); err != nil {
		return apperror.Wrap(apperror.ValidationFailed, "Invalid request payload", err)
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Name = strings.TrimSpace(req.Name)
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	// Check if user with this email already exists
	if _, err := h.userRepository.GetUserByEmail(ctx, req.Email); err == nil {
		return emailTaken()
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return apperror.Wrap(apperror.Internal, "Database error", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), passwordCost)
	if err != nil {
		return apperror.Wrap(apperror.Internal, "Failed to hash password", err)
	}

	user := &models.User{
		Email:    req.Email,
		Password: string(hashedPassword),
		Name:     req.Name,
		Status:   models.DefaultStatus,
	}
	if err := h.userRepository.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return emailTaken()
		}
		return apperror.Wrap(apperror.Internal, "Failed to create user", err)
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"message": "User created!",
		"userId":  user.ID,
	})
}

// Login handles local user authentication with email and password
func (h *AuthHandler) Login(c echo.Context) error {
	var req models.LoginRequest
	if err := c.Bind(&req); err != nil {
		return apperror.Wrap(apperror.ValidationFailed, "Invalid request payload", err)
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := c.Validate(&req); err != nil {
		return err
	}

	user, err := h.userRepository.GetUserByEmail(c.Request().Context(), req.Email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return apperror.New(apperror.Unauthorized, "A user with this email could not be found.")
		}
		return apperror.Wrap(apperror.Internal, "Database error", err)
	}

	if user.Password == "" || bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		return apperror.New(apperror.Unauthorized, "Wrong password!")
	}

	return h.respondWithToken(c, user)
}

// FirebaseLogin handles Firebase ID token verification and issues a local JWT
func (h *AuthHandler) FirebaseLogin(c echo.Context) error {
	var req models.FirebaseLoginRequest
	if err := c.Bind(&req); err != nil {
		return apperror.Wrap(apperror.ValidationFailed, "Invalid request payload", err)
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	token, err := h.firebaseAuth.VerifyIDToken(ctx, req.IDToken)
	if err != nil {
		return apperror.Wrap(apperror.Unauthorized, "Invalid Firebase ID token", err)
	}

	firebaseUID := token.UID
	email, _ := token.Claims["email"].(string)
	email = strings.ToLower(email)
	name, _ := token.Claims["name"].(string)

	// Try to find user by Firebase UID, then by email, else create one
	user, err := h.userRepository.GetUserByFirebaseUID(ctx, firebaseUID)
	switch {
	case err == nil:
		if name != "" && name != user.Name {
			user.Name = name
			if err := h.userRepository.UpdateUser(ctx, user); err != nil {
				return apperror.Wrap(apperror.Internal, "Failed to update user details", err)
			}
		}
	case errors.Is(err, repositories.ErrNotFound):
		if email == "" {
			return apperror.New(apperror.ValidationFailed, "Firebase account has no email address.")
		}
		user, err = h.userRepository.GetUserByEmail(ctx, email)
		switch {
		case err == nil:
			user.FirebaseUID = firebaseUID
			if err := h.userRepository.UpdateUser(ctx, user); err != nil {
				return apperror.Wrap(apperror.Internal, "Failed to update user with Firebase UID", err)
			}
		case errors.Is(err, repositories.ErrNotFound):
			if name == "" {
				name = email
			}
			user = &models.User{
				Email:       email,
				Name:        name,
				Status:      models.DefaultStatus,
				FirebaseUID: firebaseUID,
			}
			if err := h.userRepository.CreateUser(ctx, user); err != nil {
				return apperror.Wrap(apperror.Internal, "Failed to create user", err)
			}
		default:
			return apperror.Wrap(apperror.Internal, "Database error", err)
		}
	default:
		return apperror.Wrap(apperror.Internal, "Database error", err)
	}

	return h.respondWithToken(c, user)
}

func (h *AuthHandler) respondWithToken(c echo.Context, user *models.User) error {
	token, err := middleware.SignToken(h.jwtSecret, user.ID, user.Email, h.tokenTTL)
	if err != nil {
		return apperror.Wrap(apperror.Internal, "Failed to generate token", err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"token":  token,
		"userId": user.ID,
	})
}

func emailTaken() error {
	return apperror.New(apperror.ValidationFailed, "Validation failed.").
		WithData([]validators.FieldError{{Field: "email", Message: "E-Mail address already exists!"}})
}
