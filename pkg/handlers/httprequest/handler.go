// Package httprequest provides an action handler that performs an HTTP
// request and exposes the response as action output.
package httprequest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/modelflow/modelflow/pkg/models"
	"github.com/modelflow/modelflow/pkg/protocol"
)

const defaultTimeoutSeconds = 30

// ErrURLMissing indicates the handler configuration has no request URL.
var ErrURLMissing = errors.New("missing or invalid 'url' in configuration")

type Handler struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    string
	Timeout time.Duration
}

func NewHandler(config map[string]any) (*Handler, error) {
	url, ok := config["url"].(string)
	if !ok || url == "" {
		return nil, ErrURLMissing
	}

	method, _ := config["method"].(string)
	if method == "" {
		method = http.MethodGet
	}

	body, _ := config["body"].(string)

	headers := make(map[string]string)

	if headersConfig, exists := config["headers"]; exists {
		if headersMap, ok := headersConfig.(map[string]any); ok {
			for key, value := range headersMap {
				if strValue, ok := value.(string); ok {
					headers[key] = strValue
				}
			}
		}
	}

	timeout := defaultTimeoutSeconds * time.Second
	if seconds, ok := config["timeout"].(float64); ok && seconds > 0 {
		timeout = time.Duration(seconds * float64(time.Second))
	}

	return &Handler{
		Method:  strings.ToUpper(method),
		URL:     url,
		Headers: headers,
		Body:    body,
		Timeout: timeout,
	}, nil
}

func (h *Handler) Execute(ctx context.Context, executionCtx models.ExecutionContext, logger *slog.Logger) (map[string]any, error) {
	logger = logger.With("action_type", "http_request", "method", h.Method, "url", h.URL)
	logger.InfoContext(ctx, "Executing HTTP request")

	var bodyReader io.Reader
	if h.Body != "" {
		bodyReader = strings.NewReader(h.Body)
	}

	req, err := http.NewRequestWithContext(ctx, h.Method, h.URL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create http request: %w", err)
	}

	for key, value := range h.Headers {
		req.Header.Set(key, value)
	}

	client := &http.Client{Timeout: h.Timeout}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request failed: %w", err)
	}

	defer func() {
		closeErr := resp.Body.Close()
		if closeErr != nil {
			logger.ErrorContext(ctx, "Failed to close response body", "error", closeErr)
		}
	}()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var body any
	if unmarshalErr := json.Unmarshal(bodyBytes, &body); unmarshalErr != nil {
		body = string(bodyBytes)
	}

	logger.InfoContext(ctx, "HTTP request completed",
		"status_code", resp.StatusCode, "body_length", len(bodyBytes))

	return map[string]any{
		"status_code": resp.StatusCode,
		"body":        body,
		"headers":     resp.Header,
	}, nil
}

type HandlerFactory struct{}

func NewHandlerFactory() *HandlerFactory {
	return &HandlerFactory{}
}

func (*HandlerFactory) ID() string {
	return "http_request"
}

func (*HandlerFactory) Create(config map[string]any) (protocol.ActionHandler, error) {
	return NewHandler(config)
}

func (*HandlerFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"url": map[string]any{
				"type":        "string",
				"description": "Request URL including scheme and host.",
			},
			"method": map[string]any{
				"type":        "string",
				"description": "HTTP method",
				"default":     "GET",
				"enum":        []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD"},
			},
			"headers": map[string]any{
				"type":        "object",
				"description": "Request headers as string key-value pairs.",
			},
			"body": map[string]any{
				"type":        "string",
				"description": "Raw request body.",
			},
			"timeout": map[string]any{
				"type":        "number",
				"description": "Request timeout in seconds.",
			},
		},
		"required": []string{"url"},
	}
}
