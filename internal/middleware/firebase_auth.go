package middleware

import (
	"context"
	"errors"

	"firebase.google.com/go/v4/auth"
	"github.com/anonto42/nano-feed/backend/internal/apperror"
	"github.com/anonto42/nano-feed/backend/internal/models"
	"github.com/anonto42/nano-feed/backend/internal/repositories"
	"github.com/labstack/echo/v4"
)

// TokenVerifier verifies Firebase ID tokens. *auth.Client satisfies it.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// FirebaseAuthMiddleware verifies Firebase ID tokens and resolves the local
// user linked to the token's UID.
func FirebaseAuthMiddleware(verifier TokenVerifier, users repositories.UserRepository) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			idToken, err := bearerToken(c)
			if err != nil {
				return err
			}

			ctx := c.Request().Context()
			token, err := verifier.VerifyIDToken(ctx, idToken)
			if err != nil {
				return apperror.Wrap(apperror.Unauthorized, "Invalid or expired ID token", err)
			}

			user, err := users.GetUserByFirebaseUID(ctx, token.UID)
			if err != nil {
				if errors.Is(err, repositories.ErrNotFound) {
					return apperror.New(apperror.Unauthorized, "No account is linked to this Firebase user.")
				}
				return apperror.Wrap(apperror.Internal, "Database error", err)
			}

			c.Set("firebaseUID", token.UID)
			c.Set("firebaseToken", token)
			c.Set(UserIDKey, user.ID)
			c.Set("user", &models.JwtCustomClaims{UserID: user.ID, Email: user.Email})

			return next(c)
		}
	}
}
