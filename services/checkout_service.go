package services

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	EventCheckoutCompleted = "checkout.session.completed"

	sandboxSessionPrefix = "cs_"
)

type CheckoutRequest struct {
	BookingID   uint
	Amount      float64
	Description string
	SuccessURL  string
	FailureURL  string
}

type CheckoutSession struct {
	ID  string
	URL string
}

// PaymentEvent is what the provider's webhook delivers once its signature has
// been verified upstream.
type PaymentEvent struct {
	Type      string `json:"type" binding:"required"`
	SessionID string `json:"sessionId"`
}

// PaymentGateway is the external checkout provider.
type PaymentGateway interface {
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (CheckoutSession, error)
	Refund(ctx context.Context, sessionID string) error
}

// SandboxGateway is an in-process provider for development and tests. Sessions
// live in memory only, so a refund for a sandbox-shaped id it no longer knows
// (issued before a restart) is accepted.
type SandboxGateway struct {
	BaseURL string

	mu       sync.Mutex
	sessions map[string]CheckoutRequest
	refunds  map[string]int
}

func NewSandboxGateway(baseURL string) *SandboxGateway {
	return &SandboxGateway{
		BaseURL:  strings.TrimRight(baseURL, "/"),
		sessions: make(map[string]CheckoutRequest),
		refunds:  make(map[string]int),
	}
}

func (g *SandboxGateway) CreateCheckoutSession(_ context.Context, req CheckoutRequest) (CheckoutSession, error) {
	if req.Amount <= 0 {
		return CheckoutSession{}, fmt.Errorf("sandbox: amount must be positive, got %.2f", req.Amount)
	}
	id := sandboxSessionPrefix + strings.ReplaceAll(uuid.NewString(), "-", "")

	g.mu.Lock()
	g.sessions[id] = req
	g.mu.Unlock()

	log.Info().Uint("booking", req.BookingID).Str("session", id).Float64("amount", req.Amount).Msg("sandbox checkout session created")
	return CheckoutSession{ID: id, URL: g.BaseURL + "/checkout/" + id}, nil
}

func (g *SandboxGateway) Refund(_ context.Context, sessionID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.sessions[sessionID]; !ok {
		if !strings.HasPrefix(sessionID, sandboxSessionPrefix) {
			return fmt.Errorf("sandbox: unknown session %q", sessionID)
		}
		log.Warn().Str("session", sessionID).Msg("sandbox refund for a session issued before restart")
	}
	g.refunds[sessionID]++
	log.Info().Str("session", sessionID).Msg("sandbox refund issued")
	return nil
}

// Refunds reports how many refunds were issued for a session.
func (g *SandboxGateway) Refunds(sessionID string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.refunds[sessionID]
}
