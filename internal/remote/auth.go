package remote

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"todo-tracker/internal/models"
)

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	AccessToken  string      `json:"access_token"`
	ExpiresIn    int64       `json:"expires_in"`
	ExpiresAt    int64       `json:"expires_at"`
	RefreshToken string      `json:"refresh_token"`
	User         models.User `json:"user"`
}

func (r authResponse) session() *models.Session {
	now := time.Now()
	s := &models.Session{
		AccessToken:  r.AccessToken,
		RefreshToken: r.RefreshToken,
		User:         r.User,
		CreatedAt:    now,
	}
	switch {
	case r.ExpiresAt > 0:
		s.ExpiresAt = time.Unix(r.ExpiresAt, 0)
	case r.ExpiresIn > 0:
		s.ExpiresAt = now.Add(time.Duration(r.ExpiresIn) * time.Second)
	}
	return s
}

// SignInWithPassword возвращает сессию без локального ID: его назначает вызывающий
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*models.Session, error) {
	var resp authResponse
	err := c.do(ctx, "sign_in", request{
		method: http.MethodPost,
		path:   "/auth/v1/token",
		query:  url.Values{"grant_type": {"password"}},
		body:   credentials{Email: email, Password: password},
	}, &resp)
	if err != nil {
		return nil, err
	}
	return resp.session(), nil
}

func (c *Client) RefreshSession(ctx context.Context, refreshToken string) (*models.Session, error) {
	var resp authResponse
	err := c.do(ctx, "refresh", request{
		method: http.MethodPost,
		path:   "/auth/v1/token",
		query:  url.Values{"grant_type": {"refresh_token"}},
		body:   map[string]string{"refresh_token": refreshToken},
	}, &resp)
	if err != nil {
		return nil, err
	}
	return resp.session(), nil
}

// SignUp создает аккаунт; до подтверждения email он непригоден для входа
func (c *Client) SignUp(ctx context.Context, email, password string) (*models.User, error) {
	// При включенном автоподтверждении сервис вернет сессию, иначе - пользователя
	var resp struct {
		models.User
		Nested *models.User `json:"user"`
	}
	err := c.do(ctx, "sign_up", request{
		method: http.MethodPost,
		path:   "/auth/v1/signup",
		body:   credentials{Email: email, Password: password},
	}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.Nested != nil && resp.Nested.ID != "" {
		return resp.Nested, nil
	}
	return &resp.User, nil
}

func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	return c.do(ctx, "sign_out", request{
		method: http.MethodPost,
		path:   "/auth/v1/logout",
		token:  accessToken,
	}, nil)
}

func (c *Client) GetUser(ctx context.Context, accessToken string) (*models.User, error) {
	var user models.User
	err := c.do(ctx, "get_user", request{
		method: http.MethodGet,
		path:   "/auth/v1/user",
		token:  accessToken,
	}, &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}
