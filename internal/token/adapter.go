package token

import (
	"gastro/internal/platform/middleware"
)

// MiddlewareAdapter bridges the token service to the auth middleware's
// verifier interface.
type MiddlewareAdapter struct {
	service *Service
}

func NewMiddlewareAdapter(service *Service) *MiddlewareAdapter {
	return &MiddlewareAdapter{service: service}
}

func (a *MiddlewareAdapter) VerifyToken(tokenString string) (*middleware.Claims, error) {
	claims, err := a.service.Verify(tokenString)
	if err != nil {
		return nil, err
	}
	subjectID, err := claims.SubjectID()
	if err != nil {
		return nil, ErrMalformed
	}
	return &middleware.Claims{SubjectID: subjectID, Login: claims.Login}, nil
}
