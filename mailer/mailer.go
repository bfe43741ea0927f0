// Package mailer delivers confirmation codes through the email microservice.
//
// The service accepts POST {base}/send-verification-code with a JSON body
// {to, subject, content} and expects the caller's access token in the
// Authorization header.
package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"strings"
	"time"
)

var (
	// ErrTimeout is returned when the email service does not answer in time.
	ErrTimeout = errors.New("email_service_timeout")
	// ErrRemote is returned for any non-2xx answer.
	ErrRemote = errors.New("email service error")
)

const (
	sendPath       = "/send-verification-code"
	DefaultSubject = "Código de confirmación"
)

// Message is one outbound email.
type Message struct {
	To        string `json:"to"`
	Subject   string `json:"subject"`
	Content   string `json:"content"`
	AuthToken string `json:"-"`
}

var confirmationTemplate = template.Must(template.New("confirmation").Parse(`<html>
  <body>
    <h2 style="color: #60b3a8;">Codigo de confirmación!</h2>
    <h4>Tu código de confirmación: <b style="color: #60b3a8;">{{.}}</b></h4>
  </body>
</html>`))

// ConfirmationMessage renders the confirmation email for code.
func ConfirmationMessage(to, code, authToken string) (Message, error) {
	var buf bytes.Buffer
	if err := confirmationTemplate.Execute(&buf, code); err != nil {
		return Message{}, err
	}
	return Message{
		To:        to,
		Subject:   DefaultSubject,
		Content:   buf.String(),
		AuthToken: authToken,
	}, nil
}

// Config configures a Client.
type Config struct {
	BaseURL string
	Timeout time.Duration
	Client  *http.Client
}

// Client posts messages to the email service.
type Client struct {
	baseURL string
	timeout time.Duration
	client  *http.Client
}

func New(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, errors.New("mailer: base URL is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.Client == nil {
		cfg.Client = &http.Client{}
	}
	return &Client{baseURL: base, timeout: cfg.Timeout, client: cfg.Client}, nil
}

type remoteError struct {
	OK  bool            `json:"ok"`
	Err json.RawMessage `json:"err"`
}

// Send posts msg and waits for the service to accept it.
func (c *Client) Send(ctx context.Context, msg Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("mailer: encode message: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+sendPath, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("mailer: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if msg.AuthToken != "" {
		req.Header.Set("Authorization", msg.AuthToken)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			return ErrTimeout
		}
		return fmt.Errorf("%w: %v", ErrRemote, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var re remoteError
		_ = json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&re)
		if len(re.Err) > 0 {
			return fmt.Errorf("%w: status %d: %s", ErrRemote, resp.StatusCode, re.Err)
		}
		return fmt.Errorf("%w: status %d", ErrRemote, resp.StatusCode)
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	return nil
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}
