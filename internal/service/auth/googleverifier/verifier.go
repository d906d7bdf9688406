package googleverifier

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/api/idtoken"

	"github.com/TingC12/Chicken-fitness-app/internal/models"
)

// Verifier checks Google ID tokens against the configured OAuth client id.
// Verification itself is Google's problem, we only consume the claims.
type Verifier struct {
	clientID string
}

func New(clientID string) (*Verifier, error) {
	if clientID == "" {
		return nil, errors.New("google client id must not be empty")
	}

	return &Verifier{clientID: clientID}, nil
}

func (v *Verifier) Verify(ctx context.Context, token string) (models.GoogleClaims, error) {
	payload, err := idtoken.Validate(ctx, token, v.clientID)
	if err != nil {
		return models.GoogleClaims{}, fmt.Errorf("google id token validation failed. Err: %w", err)
	}

	claims := models.GoogleClaims{Subject: payload.Subject}

	if email, ok := payload.Claims["email"].(string); ok {
		claims.Email = email
	}

	// Some token variants carry email_verified as a string
	switch verified := payload.Claims["email_verified"].(type) {
	case bool:
		claims.EmailVerified = verified
	case string:
		claims.EmailVerified = verified == "true"
	}

	return claims, nil
}
