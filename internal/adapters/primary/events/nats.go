package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/blockfile/ffs/internal/core/domain"
	"github.com/blockfile/ffs/internal/core/ports"
)

// EventHandler consomme post.created et déclenche le fan-out timeline.
type EventHandler struct {
	feed ports.FeedService
}

func NewEventHandler(feed ports.FeedService) *EventHandler {
	return &EventHandler{feed: feed}
}

func (h *EventHandler) Subscribe(nc *nats.Conn) (*nats.Subscription, error) {
	return nc.Subscribe("post.created", h.HandlePostCreated)
}

func (h *EventHandler) HandlePostCreated(msg *nats.Msg) {
	// 1. Extraction du contexte de trace depuis les headers NATS
	ctx := otel.GetTextMapPropagator().Extract(context.Background(), propagation.HeaderCarrier(msg.Header))

	tracer := otel.Tracer("ffs-feed")
	ctx, span := tracer.Start(ctx, "process_post_created", trace.WithSpanKind(trace.SpanKindConsumer))
	defer span.End()

	type postCreatedEvent struct {
		ID        string    `json:"id"`
		AuthorID  string    `json:"author_id"`
		Type      string    `json:"type"`
		CreatedAt time.Time `json:"created_at"`
	}

	var event postCreatedEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		span.RecordError(err)
		slog.Error("❌ Invalid post.created payload", "error", err)
		return
	}

	slog.Info("📨 Received post.created", "post_id", event.ID, "type", event.Type)

	item := &domain.FeedItem{
		PostID:    event.ID,
		AuthorID:  event.AuthorID,
		Type:      domain.PostType(event.Type),
		CreatedAt: event.CreatedAt,
	}

	// Fan-out en arrière-plan, contexte de trace propagé. Le span parent se
	// termine au retour du handler : la goroutine ouvre son propre span enfant
	// pour que les erreurs tardives restent enregistrées. Le timeout borne le
	// travail si Redis ne répond plus.
	go func() {
		ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()

		ctx, fanoutSpan := tracer.Start(ctx, "fanout_post_created")
		defer fanoutSpan.End()

		if err := h.feed.DistributePost(ctx, item); err != nil {
			fanoutSpan.RecordError(err)
			slog.Error("❌ Fan-out failed", "error", err, "post_id", item.PostID)
		}
	}()
}
