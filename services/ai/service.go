// Package ai talks to an OpenAI-compatible chat-completions endpoint. The
// provider is the expensive collaborator everything else caches around:
// every call goes through the bounded retry policy, and callers treat an
// error as attempts-exhausted.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/briefstack/maildigest/interfaces"
	"github.com/briefstack/maildigest/internal/config"
	"github.com/briefstack/maildigest/internal/logger"
	"github.com/briefstack/maildigest/internal/utils"
)

type aiService struct {
	cfg        *config.AIConfig
	log        *logger.Logger
	httpClient *http.Client
	retry      utils.RetryPolicy
}

func NewAIService(cfg *config.AIConfig, log *logger.Logger) interfaces.AIProvider {
	retry := utils.DefaultRetryPolicy()
	if cfg.MaxAttempts > 0 {
		retry.MaxAttempts = cfg.MaxAttempts
	}
	return &aiService{
		cfg: cfg,
		log: log,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.RequestTimeout) * time.Second,
		},
		retry: retry,
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (s *aiService) Generate(ctx context.Context, prompt string, temperature float64) (string, error) {
	var content string
	err := utils.Retry(ctx, s.retry, func() error {
		var callErr error
		content, callErr = s.call(ctx, prompt, temperature)
		if callErr != nil {
			s.log.Debugf("generation attempt failed: %v", callErr)
		}
		return callErr
	})
	if err != nil {
		return "", err
	}
	return content, nil
}

func (s *aiService) call(ctx context.Context, prompt string, temperature float64) (string, error) {
	payload, err := json.Marshal(chatRequest{
		Model:       s.cfg.Model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: temperature,
	})
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal payload")
	}

	url := strings.TrimRight(s.cfg.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(payload))
	if err != nil {
		return "", errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.Wrap(err, "unable to read response body")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", errors.Errorf("request failed with status code %d: %s", resp.StatusCode, utils.Truncate(string(body), 500))
	}

	var response chatResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return "", errors.Wrap(err, "failed to unmarshal response")
	}
	if len(response.Choices) == 0 {
		return "", errors.New("response contains no choices")
	}
	return strings.TrimSpace(response.Choices[0].Message.Content), nil
}
