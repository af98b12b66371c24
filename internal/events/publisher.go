// Package events publishes configuration lifecycle events to NATS JetStream
// for the cart/checkout and audit collaborators.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/sirupsen/logrus"
	"configurator-service/internal/models"
)

const (
	streamName            = "CONFIGURATIONS"
	subjectCommitted      = "configuration.committed"
	subjectCatalogChanged = "configuration.catalog.changed"
)

// CommitEvent is the payload published on a successful commit. It mirrors
// the tuple handed to the cart collaborator.
type CommitEvent struct {
	EventType string               `json:"eventType"`
	TenantID  string               `json:"tenantId"`
	Timestamp time.Time            `json:"timestamp"`
	Commit    *models.CommitResult `json:"commit"`
	ActorID   string               `json:"actorId,omitempty"`
	ClientIP  string               `json:"clientIp,omitempty"`
	UserAgent string               `json:"userAgent,omitempty"`
}

// CatalogChangedEvent is published when an admin mutates a configuration, so
// caching collaborators can drop stale copies.
type CatalogChangedEvent struct {
	EventType       string    `json:"eventType"`
	TenantID        string    `json:"tenantId"`
	Timestamp       time.Time `json:"timestamp"`
	ConfigurationID string    `json:"configurationId"`
	ProductID       string    `json:"productId"`
	ChangeType      string    `json:"changeType"` // created, updated, deleted, variant_changed
}

// Publisher wraps a JetStream connection for configurator events.
type Publisher struct {
	nc     *nats.Conn
	js     jetstream.JetStream
	logger *logrus.Entry
}

// NewPublisher connects to NATS and ensures the configurations stream exists.
func NewPublisher(logger *logrus.Logger) (*Publisher, error) {
	natsURL := os.Getenv("NATS_URL")
	if natsURL == "" {
		natsURL = "nats://nats.nats.svc.cluster.local:4222"
	}

	nc, err := nats.Connect(natsURL,
		nats.Name("configurator-service"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Infof("NATS reconnected to %s", nc.ConnectedUrl())
		}),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logger.WithError(err).Warn("NATS disconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     streamName,
		Subjects: []string{"configuration.>"},
		Storage:  jetstream.FileStorage,
		MaxAge:   30 * 24 * time.Hour,
	})
	if err != nil {
		logger.WithError(err).Warn("Failed to ensure configurations stream (may already exist)")
	}

	return &Publisher{
		nc:     nc,
		js:     js,
		logger: logger.WithField("component", "configurator-events"),
	}, nil
}

// Close drains the NATS connection.
func (p *Publisher) Close() {
	if p.nc != nil {
		p.nc.Close()
	}
}

// PublishCommitted publishes a configuration.committed event.
func (p *Publisher) PublishCommitted(ctx context.Context, tenantID string, commit *models.CommitResult, actorID, clientIP, userAgent string) error {
	event := CommitEvent{
		EventType: subjectCommitted,
		TenantID:  tenantID,
		Timestamp: time.Now().UTC(),
		Commit:    commit,
		ActorID:   actorID,
		ClientIP:  clientIP,
		UserAgent: userAgent,
	}
	return p.publish(ctx, subjectCommitted, event)
}

// PublishCatalogChanged publishes a configuration.catalog.changed event.
func (p *Publisher) PublishCatalogChanged(ctx context.Context, tenantID, configurationID, productID, changeType string) error {
	event := CatalogChangedEvent{
		EventType:       subjectCatalogChanged,
		TenantID:        tenantID,
		Timestamp:       time.Now().UTC(),
		ConfigurationID: configurationID,
		ProductID:       productID,
		ChangeType:      changeType,
	}
	return p.publish(ctx, subjectCatalogChanged, event)
}

func (p *Publisher) publish(ctx context.Context, subject string, event interface{}) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	publishCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := p.js.Publish(publishCtx, subject, data); err != nil {
		p.logger.WithError(err).WithField("subject", subject).Error("Failed to publish event")
		return err
	}
	p.logger.WithField("subject", subject).Debug("Event published")
	return nil
}
