package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"piggyvault/domain/entities"
	"piggyvault/infrastructure/observability"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// BadgeRequest is the payload the badge service consumes to mint a reward
type BadgeRequest struct {
	Owner       string    `json:"owner"`
	Category    string    `json:"category"`
	RequestedAt time.Time `json:"requested_at"`
}

// NATSRewardNotifier implements the RewardNotifier interface by publishing
// badge minting requests to NATS. Callers treat delivery as fire-and-forget.
type NATSRewardNotifier struct {
	natsClient *NATSClient
}

// NewNATSRewardNotifier creates a new NATS-backed reward notifier
func NewNATSRewardNotifier(natsClient *NATSClient) *NATSRewardNotifier {
	return &NATSRewardNotifier{
		natsClient: natsClient,
	}
}

// Notify publishes a badge request for the owner's newly reached category
func (n *NATSRewardNotifier) Notify(ctx context.Context, owner string, category entities.MilestoneCategory) error {
	payload, err := json.Marshal(BadgeRequest{
		Owner:       owner,
		Category:    string(category),
		RequestedAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal badge request: %w", err)
	}

	envelope := &EventEnvelope{
		EventID:       uuid.New().String(),
		EventType:     "badge_request",
		Timestamp:     time.Now().UTC(),
		SourceService: "piggyvault",
		Payload:       payload,
	}

	envelopeData, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("failed to marshal badge request envelope: %w", err)
	}

	if err := n.natsClient.Publish(ctx, BadgeRequestSubject, envelopeData); err != nil {
		return fmt.Errorf("failed to publish badge request: %w", err)
	}

	observability.GetMetrics().RecordNATSEventPublished("badge_request")

	log.WithFields(log.Fields{
		"owner":    owner,
		"category": category,
	}).Debug("Badge request published")

	return nil
}
