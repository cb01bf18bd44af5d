// Package remote - HTTP клиент размещенного сервиса: auth (GoTrue) и данные (PostgREST).
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var requestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "todotracker_remote_request_duration_seconds",
		Help:    "Duration of calls to the hosted service by operation",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"op", "status"},
)

type Options struct {
	URL    string
	APIKey string
	// Timeout 0 - без таймаута, запрос живет столько же, сколько ctx
	Timeout    time.Duration
	HTTPClient *http.Client
}

type Client struct {
	baseURL *url.URL
	apiKey  string
	http    *http.Client
}

func New(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.URL) == "" {
		return nil, errors.New("remote: не задан URL сервиса")
	}
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("remote: не задан API ключ")
	}
	u, err := url.Parse(strings.TrimRight(opts.URL, "/"))
	if err != nil {
		return nil, fmt.Errorf("remote: некорректный URL %q: %w", opts.URL, err)
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}

	return &Client{baseURL: u, apiKey: opts.APIKey, http: httpClient}, nil
}

// ServiceError - любой отказ удаленного вызова с читаемым сообщением
type ServiceError struct {
	Status  int
	Code    string
	Message string
}

func (e *ServiceError) Error() string {
	return e.Message
}

type request struct {
	method string
	path   string
	query  url.Values
	token  string
	header http.Header
	body   interface{}
}

func (c *Client) do(ctx context.Context, op string, r request, out interface{}) (err error) {
	startTime := time.Now()
	defer func() {
		status := "success"
		if err != nil {
			status = "error"
		}
		requestDuration.WithLabelValues(op, status).Observe(time.Since(startTime).Seconds())
	}()

	u := *c.baseURL
	u.Path = u.Path + r.path
	if len(r.query) > 0 {
		u.RawQuery = r.query.Encode()
	}

	var body io.Reader
	if r.body != nil {
		payload, err := json.Marshal(r.body)
		if err != nil {
			return fmt.Errorf("%s: ошибка кодирования запроса: %w", op, err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, u.String(), body)
	if err != nil {
		return fmt.Errorf("%s: ошибка создания запроса: %w", op, err)
	}
	req.Header.Set("apikey", c.apiKey)
	if r.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	token := r.token
	if token == "" {
		token = c.apiKey
	}
	req.Header.Set("Authorization", "Bearer "+token)
	for k, vs := range r.header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &ServiceError{Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &ServiceError{Status: resp.StatusCode, Message: fmt.Sprintf("%s: некорректный ответ сервиса: %v", op, err)}
	}
	return nil
}

// Сервис отдает ошибки в разных формах: GoTrue (msg, error_description) и PostgREST (message)
type errorBody struct {
	Msg              string `json:"msg"`
	Message          string `json:"message"`
	ErrorDescription string `json:"error_description"`
	Error            string `json:"error"`
	ErrorCode        string `json:"error_code"`
}

func decodeError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var eb errorBody
	_ = json.Unmarshal(raw, &eb)

	se := &ServiceError{Status: resp.StatusCode, Code: eb.ErrorCode}
	switch {
	case eb.Msg != "":
		se.Message = eb.Msg
	case eb.Message != "":
		se.Message = eb.Message
	case eb.ErrorDescription != "":
		se.Message = eb.ErrorDescription
	case eb.Error != "":
		se.Message = eb.Error
	case len(bytes.TrimSpace(raw)) > 0:
		se.Message = strings.TrimSpace(string(raw))
	default:
		se.Message = "request failed with status " + strconv.Itoa(resp.StatusCode)
	}
	return se
}
