package manager

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"todo-tracker/internal/logger"
	"todo-tracker/internal/models"
	"todo-tracker/internal/remote"
)

var authSubmitCount = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "todotracker_auth_submits_total",
		Help: "Total number of auth form submissions",
	},
	[]string{"mode", "status"},
)

type Mode string

const (
	ModeLogin  Mode = "login"
	ModeSignup Mode = "signup"
)

const (
	// FeedbackTTL - через сколько сообщение формы скрывается
	FeedbackTTL        = 4 * time.Second
	LoginRedirectDelay = time.Second

	LandingPath = "/"
	TasksPath   = "/tasks"
)

var ErrSubmitInProgress = errors.New("запрос уже отправлен")

// Feedback - сообщение под формой входа
type Feedback struct {
	Text      string
	IsError   bool
	HideAfter time.Duration
}

// FeedbackFor превращает ошибку отправки формы в сообщение для пользователя
func FeedbackFor(err error) Feedback {
	var ve *ValidationError
	var se *remote.ServiceError
	switch {
	case errors.As(err, &ve):
		return Feedback{Text: ve.Message, IsError: true, HideAfter: FeedbackTTL}
	case errors.As(err, &se):
		return Feedback{Text: se.Message, IsError: true, HideAfter: FeedbackTTL}
	default:
		return Feedback{Text: err.Error(), IsError: true, HideAfter: FeedbackTTL}
	}
}

type AuthResult struct {
	Mode     Mode
	Session  *models.Session
	Feedback Feedback
	// Redirect пуст, если навигации нет (регистрация ждет подтверждения email)
	Redirect      string
	RedirectAfter time.Duration
}

// AuthController хранит режим формы и блокирует повторную отправку на время запроса
type AuthController struct {
	auth  AuthService
	store SessionStore
	newID func() string

	mu         sync.Mutex
	mode       Mode
	submitting bool
}

func NewAuthController(auth AuthService, store SessionStore) *AuthController {
	return &AuthController{
		auth:  auth,
		store: store,
		newID: uuid.NewString,
		mode:  ModeLogin,
	}
}

func (a *AuthController) SetMode(m Mode) error {
	if m != ModeLogin && m != ModeSignup {
		return fmt.Errorf("неизвестный режим формы: %q", m)
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	a.mode = m
	return nil
}

func (a *AuthController) Mode() Mode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.mode
}

// ControlsEnabled - false, пока запрос входа или регистрации в полете
func (a *AuthController) ControlsEnabled() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return !a.submitting
}

func (a *AuthController) Submit(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.TrimSpace(email)
	password = strings.TrimSpace(password)

	a.mu.Lock()
	mode := a.mode
	a.mu.Unlock()

	if err := validateForm(credentialsForm{Email: email, Password: password}, "Please enter both email and password."); err != nil {
		authSubmitCount.WithLabelValues(string(mode), "error").Inc()
		return nil, err
	}

	a.mu.Lock()
	if a.submitting {
		a.mu.Unlock()
		return nil, ErrSubmitInProgress
	}
	a.submitting = true
	a.mu.Unlock()

	defer func() {
		a.mu.Lock()
		a.submitting = false
		a.mu.Unlock()
	}()

	var (
		result *AuthResult
		err    error
	)
	if mode == ModeLogin {
		result, err = a.login(ctx, email, password)
	} else {
		result, err = a.signup(ctx, email, password)
	}
	authSubmitCount.WithLabelValues(string(mode), statusLabel(err)).Inc()
	return result, err
}

func (a *AuthController) login(ctx context.Context, email, password string) (*AuthResult, error) {
	session, err := a.auth.SignInWithPassword(ctx, email, password)
	if err != nil {
		logger.Warn(ctx, "Неудачный вход", "email", email, "error", err.Error())
		return nil, err
	}

	session.ID = a.newID()
	session.CreatedAt = time.Now()
	if session.User.Email == "" {
		session.User.Email = email
	}
	if err := a.store.SaveSession(ctx, session); err != nil {
		logger.Error(ctx, err, "Ошибка сохранения сессии", "userID", session.User.ID)
		return nil, fmt.Errorf("ошибка сохранения сессии: %w", err)
	}

	logger.Info(ctx, "Пользователь вошел", "userID", session.User.ID)
	return &AuthResult{
		Mode:          ModeLogin,
		Session:       session,
		Feedback:      Feedback{Text: "Login successful! Redirecting...", HideAfter: FeedbackTTL},
		Redirect:      TasksPath,
		RedirectAfter: LoginRedirectDelay,
	}, nil
}

func (a *AuthController) signup(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := a.auth.SignUp(ctx, email, password)
	if err != nil {
		logger.Warn(ctx, "Неудачная регистрация", "email", email, "error", err.Error())
		return nil, err
	}

	logger.Info(ctx, "Пользователь зарегистрирован", "userID", user.ID)
	return &AuthResult{
		Mode:     ModeSignup,
		Feedback: Feedback{Text: "Signup successful! Please check your email to confirm.", HideAfter: FeedbackTTL},
	}, nil
}

// SignOut всегда удаляет локальную сессию; после него вызывающий уходит на LandingPath
func (a *AuthController) SignOut(ctx context.Context, session *models.Session) error {
	if session == nil {
		return nil
	}

	remoteErr := a.auth.SignOut(ctx, session.AccessToken)
	if remoteErr != nil {
		logger.Error(ctx, remoteErr, "Ошибка выхода на стороне сервиса", "userID", session.User.ID)
	}
	if err := a.store.DeleteSession(ctx, session.ID); err != nil {
		logger.Error(ctx, err, "Ошибка удаления сессии", "sessionID", session.ID)
		return err
	}
	return remoteErr
}
