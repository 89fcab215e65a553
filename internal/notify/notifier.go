package notify

import (
	"context"
	"fmt"
	"slices"

	"guild-tracker/internal/api"
	"guild-tracker/internal/config"
	"guild-tracker/internal/constants"
	applogger "guild-tracker/internal/logger"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

type Poster interface {
	Post(ctx context.Context, webhookURL string, msg api.WebhookMessage, file *api.Attachment) error
}

// Notifier queues DamageRecorded events in process and delivers them to
// the configured Discord webhooks. Delivery is at most once: a failed post
// is logged and the message is still acked.
type Notifier struct {
	pubsub   *gochannel.GoChannel
	router   *message.Router
	poster   Poster
	webhooks config.Webhooks
	logger   zerolog.Logger
}

func NewNotifier(cfg *config.Config, poster Poster, logger zerolog.Logger) (*Notifier, error) {
	wmLogger := applogger.NewWatermillAdapter(logger.With().Str("component", "notify").Logger())

	pubsub := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 64}, wmLogger)

	router, err := message.NewRouter(message.RouterConfig{}, wmLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to create router: %w", err)
	}
	router.AddMiddleware(middleware.Recoverer)

	n := &Notifier{
		pubsub:   pubsub,
		router:   router,
		poster:   poster,
		webhooks: cfg.Webhooks,
		logger:   logger.With().Str("component", "notify").Logger(),
	}

	router.AddNoPublisherHandler(
		"notify.webhook",
		constants.NotificationTopic,
		pubsub,
		n.handle,
	)
	return n, nil
}

// Run blocks until the router stops.
func (n *Notifier) Run(ctx context.Context) error {
	return n.router.Run(ctx)
}

func (n *Notifier) Running() chan struct{} {
	return n.router.Running()
}

func (n *Notifier) Close() error {
	if err := n.router.Close(); err != nil {
		return err
	}
	return n.pubsub.Close()
}

// Publish enqueues ev and returns without waiting for delivery.
func (n *Notifier) Publish(ctx context.Context, ev DamageRecorded) error {
	payload, err := encodeEvent(ev)
	if err != nil {
		return err
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(context.WithoutCancel(ctx))
	if err := n.pubsub.Publish(constants.NotificationTopic, msg); err != nil {
		return fmt.Errorf("failed to publish notification: %w", err)
	}
	return nil
}

func (n *Notifier) handle(msg *message.Message) error {
	ev, err := decodeEvent(msg.Payload)
	if err != nil {
		n.logger.Error().Err(err).Str("message_uuid", msg.UUID).Msg("dropping malformed notification")
		return nil
	}

	ctx, cancel := context.WithTimeout(msg.Context(), constants.NotifyTimeout)
	defer cancel()

	if err := n.Deliver(ctx, ev); err != nil {
		n.logger.Warn().Err(err).Str("observation_id", ev.ObservationID).Msg("NotificationFailed")
	}
	return nil
}

// Deliver posts ev to the guild webhook and the shared webhook when set.
func (n *Notifier) Deliver(ctx context.Context, ev DamageRecorded) error {
	targets := n.targets(ev)
	if len(targets) == 0 {
		n.logger.Debug().Str("guild", string(ev.Guild)).Msg("no webhook configured, skipping notification")
		return nil
	}

	msg, file := BuildMessage(ev)

	var g errgroup.Group
	for _, target := range targets {
		g.Go(func() error {
			if err := n.poster.Post(ctx, target, msg, file); err != nil {
				return fmt.Errorf("webhook post failed: %w", err)
			}
			return nil
		})
	}
	return g.Wait()
}

func (n *Notifier) targets(ev DamageRecorded) []string {
	var targets []string
	if url := n.webhooks.ForGuild(ev.Guild); url != "" {
		targets = append(targets, url)
	}
	if n.webhooks.Shared != "" && !slices.Contains(targets, n.webhooks.Shared) {
		targets = append(targets, n.webhooks.Shared)
	}
	return targets
}
