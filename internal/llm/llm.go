// Package llm provides request/response model backends that share the ACP
// client's prompt and streaming surface.
//
// These backends send one HTTP request per turn and deliver the whole reply
// as a single chunk. They have a static model catalog and no modes.
package llm

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/wagiedev/acp-client-go/internal/errors"
	"github.com/wagiedev/acp-client-go/internal/message"
	"github.com/wagiedev/acp-client-go/internal/models"
	"github.com/wagiedev/acp-client-go/internal/prompt"
	"github.com/wagiedev/acp-client-go/internal/stream"
)

// completeFunc sends text to model and returns the reply.
type completeFunc func(ctx context.Context, model, text string) (string, error)

// backend carries the catalog, selection, and turn gate shared by providers.
type backend struct {
	log      *slog.Logger
	catalog  []models.Model
	complete completeFunc

	mu       sync.Mutex
	model    string
	inFlight atomic.Bool
}

func (b *backend) init(log *slog.Logger, name string, catalog []models.Model, preferred string, complete completeFunc) {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	b.log = log.With("component", "llm", "provider", name)
	b.catalog = catalog
	b.complete = complete

	c := models.Catalog{Models: catalog}
	if m, ok := c.DefaultModel(preferred); ok {
		b.model = m.ID
	}
}

// AvailableModels returns the provider's static catalog.
func (b *backend) AvailableModels() []models.Model {
	return append([]models.Model(nil), b.catalog...)
}

// AvailableModes returns nil; HTTP providers have no modes.
func (b *backend) AvailableModes() []models.Mode {
	return nil
}

// SelectedModel returns the model used for the next request.
func (b *backend) SelectedModel() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.model
}

// SelectModel switches the model used for later requests.
func (b *backend) SelectModel(_ context.Context, id string) error {
	if _, ok := models.FindModel(b.catalog, id); !ok {
		return fmt.Errorf("%w: %s", errors.ErrUnknownModel, id)
	}

	b.mu.Lock()
	b.model = id
	b.mu.Unlock()

	return nil
}

// SelectMode always fails; HTTP providers have no modes.
func (b *backend) SelectMode(_ context.Context, id string) error {
	return fmt.Errorf("%w: %s", errors.ErrUnknownMode, id)
}

// SendStream sends the prompt as one request. The sequence yields the reply
// as a single chunk, or the request error.
func (b *backend) SendStream(ctx context.Context, req *prompt.Request) (iter.Seq2[string, error], error) {
	text := Flatten(prompt.Build(req))
	if text == "" {
		return nil, errors.ErrEmptyPrompt
	}

	if !b.inFlight.CompareAndSwap(false, true) {
		return nil, errors.ErrPromptInFlight
	}

	model := b.SelectedModel()
	turn := stream.NewTurn(func(*stream.Turn) { b.inFlight.Store(false) })

	b.log.Info("Sending request", "turn_id", turn.ID(), "model", model)

	go func() {
		reply, err := b.complete(ctx, model, text)
		if err != nil {
			b.log.Warn("Request failed", "turn_id", turn.ID(), "error", err)
			turn.Fail(err)

			return
		}

		turn.Push(reply)
		turn.Complete()
	}()

	return turn.Seq(ctx), nil
}

// Flatten renders prompt blocks as one plain-text message.
func Flatten(blocks []message.ContentBlock) string {
	parts := make([]string, 0, len(blocks))

	for _, block := range blocks {
		switch b := block.(type) {
		case *message.TextBlock:
			parts = append(parts, b.Text)
		case *message.ResourceBlock:
			parts = append(parts, fmt.Sprintf("File %s:\n```\n%s\n```", b.Resource.URI, b.Resource.Text))
		case *message.ResourceLinkBlock:
			parts = append(parts, "File: "+b.URI)
		}
	}

	return strings.Join(parts, "\n\n")
}
