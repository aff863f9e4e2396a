// Package ai wraps a generative model provider behind a small session API:
// open with prior history, send text or an image, read the history back.
package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/BatmanBruc/gembot/types"
)

const (
	defaultImagePrompt = "Please describe this photo"
	titlePrompt        = "Write a one-line short title up to 10 words for this conversation in plain text."
)

var (
	ErrEmptyResponse = errors.New("empty response from provider")
	ErrSessionClosed = errors.New("session closed")
)

// Prompt is a single user turn sent to a backend.
type Prompt struct {
	Text      string
	Image     []byte
	ImageMIME string
}

// Backend generates a model reply to prompt given the earlier turns.
type Backend interface {
	Generate(ctx context.Context, history types.History, prompt Prompt, vision bool) (string, error)
}

type Options struct {
	Timeout       time.Duration
	RatePerMinute int
	MaxImageSide  int
}

// Provider opens sessions against one backend and applies the timeout and
// rate limit shared by all of them.
type Provider struct {
	backend Backend
	limiter *rate.Limiter
	timeout time.Duration
	maxSide int
	log     *zap.SugaredLogger
}

func NewProvider(backend Backend, opts Options, log *zap.SugaredLogger) *Provider {
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	if opts.MaxImageSide <= 0 {
		opts.MaxImageSide = defaultMaxImageSide
	}
	limiter := rate.NewLimiter(rate.Inf, 0)
	if opts.RatePerMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(opts.RatePerMinute)), opts.RatePerMinute)
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Provider{
		backend: backend,
		limiter: limiter,
		timeout: opts.Timeout,
		maxSide: opts.MaxImageSide,
		log:     log,
	}
}

// Open starts a session seeded with history, which may be nil.
func (p *Provider) Open(history types.History) *Session {
	h := make(types.History, len(history))
	copy(h, history)
	p.log.Infow("Opened chat session", "prior_turns", len(h))
	return &Session{provider: p, history: h}
}

func (p *Provider) generate(ctx context.Context, history types.History, prompt Prompt, vision bool) (string, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	reply, err := p.backend.Generate(ctx, history, prompt, vision)
	if err != nil {
		return "", err
	}
	reply = strings.ToValidUTF8(reply, "")
	if strings.TrimSpace(reply) == "" {
		return "", ErrEmptyResponse
	}
	return reply, nil
}

// Session is a live exchange with the provider.
type Session struct {
	provider *Provider
	mu       sync.Mutex
	history  types.History
	closed   bool
}

// SendText sends text and records both turns when the call succeeds.
func (s *Session) SendText(ctx context.Context, text string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "", ErrSessionClosed
	}

	reply, err := s.provider.generate(ctx, s.history, Prompt{Text: text}, false)
	if err != nil {
		return "", fmt.Errorf("failed to send message: %w", err)
	}
	s.history = append(s.history,
		types.ChatTurn{Role: types.RoleUser, Text: text},
		types.ChatTurn{Role: types.RoleModel, Text: reply},
	)
	s.provider.log.Debugw("Received response", "reply_len", len(reply))
	return reply, nil
}

// SendImage sends a photo with an optional caption. Image exchanges are
// one-shot and are not recorded in the history.
func (s *Session) SendImage(ctx context.Context, image []byte, caption string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "", ErrSessionClosed
	}

	data, mime, err := NormalizeImage(image, s.provider.maxSide)
	if err != nil {
		return "", fmt.Errorf("failed to send image: %w", err)
	}
	caption = strings.TrimSpace(caption)
	if caption == "" {
		caption = defaultImagePrompt
	}
	reply, err := s.provider.generate(ctx, nil, Prompt{Text: caption, Image: data, ImageMIME: mime}, true)
	if err != nil {
		return "", fmt.Errorf("failed to send image: %w", err)
	}
	return reply, nil
}

// Title asks the model for a short title of the conversation so far
// without recording the exchange.
func (s *Session) Title(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "", ErrSessionClosed
	}

	reply, err := s.provider.generate(ctx, s.history, Prompt{Text: titlePrompt}, false)
	if err != nil {
		return "", fmt.Errorf("failed to get chat title: %w", err)
	}
	return cleanTitle(reply), nil
}

func (s *Session) History() types.History {
	s.mu.Lock()
	defer s.mu.Unlock()
	h := make(types.History, len(s.history))
	copy(h, s.history)
	return h
}

func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.history)
}

func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.history = nil
	s.provider.log.Infow("Closed chat session")
}

func cleanTitle(raw string) string {
	title := strings.TrimSpace(raw)
	if i := strings.IndexByte(title, '\n'); i >= 0 {
		title = strings.TrimSpace(title[:i])
	}
	title = strings.Trim(title, "\"'*#_` ")
	if r := []rune(title); len(r) > 120 {
		title = string(r[:120])
	}
	return title
}
