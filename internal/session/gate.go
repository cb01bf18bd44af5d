// Package session проверяет сессию посетителя при каждой загрузке защищенной страницы.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"todo-tracker/internal/logger"
	"todo-tracker/internal/models"
	"todo-tracker/internal/storage"
)

var (
	ErrNoSession    = errors.New("сессия не найдена")
	ErrInvalidToken = errors.New("недействительный токен доступа")
)

// Claims - поля access token, выданного auth сервисом
type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

type Store interface {
	GetSession(ctx context.Context, id string) (*models.Session, error)
	SaveSession(ctx context.Context, s *models.Session) error
	DeleteSession(ctx context.Context, id string) error
}

// Authority - auth сервис: обновляет сессию и подтверждает токен
type Authority interface {
	RefreshSession(ctx context.Context, refreshToken string) (*models.Session, error)
	GetUser(ctx context.Context, accessToken string) (*models.User, error)
}

// Gate находит сохраненную сессию и при истекшем токене обновляет ее через refresh token.
// Без секрета подпись локально не проверяется, токен подтверждает сам сервис.
type Gate struct {
	store  Store
	auth   Authority
	secret []byte
	now    func() time.Time
}

func NewGate(store Store, auth Authority, jwtSecret string) *Gate {
	g := &Gate{store: store, auth: auth, now: time.Now}
	if jwtSecret != "" {
		g.secret = []byte(jwtSecret)
	}
	return g
}

func (g *Gate) Resolve(ctx context.Context, id string) (*models.Session, error) {
	if id == "" {
		return nil, ErrNoSession
	}

	s, err := g.store.GetSession(ctx, id)
	if errors.Is(err, storage.ErrSessionNotFound) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения сессии: %w", err)
	}

	claims, err := g.ParseToken(s.AccessToken)
	switch {
	case err == nil && !s.Expired(g.now()):
		if claims.Subject != "" && s.User.ID != "" && claims.Subject != s.User.ID {
			g.drop(ctx, id)
			return nil, ErrInvalidToken
		}
		if g.secret == nil {
			return g.confirm(ctx, s)
		}
		return s, nil
	case err == nil, errors.Is(err, jwt.ErrTokenExpired):
		return g.refresh(ctx, s)
	default:
		logger.Warn(ctx, "Недействительный токен в сессии", "sessionID", id, "error", err.Error())
		g.drop(ctx, id)
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
}

// ParseToken читает claims; истекший токен дает jwt.ErrTokenExpired
func (g *Gate) ParseToken(token string) (*Claims, error) {
	claims := &Claims{}
	if g.secret != nil {
		_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
			return g.secret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(g.now))
		if err != nil {
			return nil, err
		}
		return claims, nil
	}

	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, err
	}
	if claims.ExpiresAt != nil && !g.now().Before(claims.ExpiresAt.Time) {
		return claims, jwt.ErrTokenExpired
	}
	return claims, nil
}

// confirm спрашивает у сервиса владельца токена
func (g *Gate) confirm(ctx context.Context, s *models.Session) (*models.Session, error) {
	user, err := g.auth.GetUser(ctx, s.AccessToken)
	if err != nil {
		logger.Warn(ctx, "Сервис не подтвердил токен", "sessionID", s.ID, "error", err.Error())
		g.drop(ctx, s.ID)
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if s.User.ID != "" && user.ID != s.User.ID {
		g.drop(ctx, s.ID)
		return nil, ErrInvalidToken
	}
	if user.Email != "" {
		s.User.Email = user.Email
	}
	return s, nil
}

func (g *Gate) refresh(ctx context.Context, old *models.Session) (*models.Session, error) {
	if old.RefreshToken == "" {
		g.drop(ctx, old.ID)
		return nil, ErrNoSession
	}

	s, err := g.auth.RefreshSession(ctx, old.RefreshToken)
	if err != nil {
		logger.Warn(ctx, "Не удалось обновить сессию", "sessionID", old.ID, "error", err.Error())
		g.drop(ctx, old.ID)
		return nil, fmt.Errorf("ошибка обновления сессии: %w", err)
	}

	s.ID = old.ID
	s.CreatedAt = old.CreatedAt
	if s.User.ID == "" {
		s.User = old.User
	}
	if err := g.store.SaveSession(ctx, s); err != nil {
		return nil, fmt.Errorf("ошибка сохранения сессии: %w", err)
	}

	logger.Debug(ctx, "Сессия обновлена", "sessionID", s.ID, "userID", s.User.ID)
	return s, nil
}

func (g *Gate) drop(ctx context.Context, id string) {
	if err := g.store.DeleteSession(ctx, id); err != nil {
		logger.Error(ctx, err, "Ошибка удаления сессии", "sessionID", id)
	}
}
