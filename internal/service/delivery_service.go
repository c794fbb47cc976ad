package service

import (
	"context"
	"fmt"

	"doc-support-be/internal/pkg/logger"
	"doc-support-be/internal/pkg/mailer"
	"doc-support-be/pkg/events"
	"doc-support-be/pkg/notify"
)

type IDeliveryService interface {
	Start(ctx context.Context) error
}

// deliveryService is the endpoint side of the notification channel: it
// consumes published deliveries from the broker and turns them into emails.
type deliveryService struct {
	broker     notify.Broker
	topicName  string
	baseURL    string
	mailSender mailer.IEmailService
	logger     logger.ILogger
}

func NewDeliveryService(
	broker notify.Broker,
	topicName string,
	baseURL string,
	mailSender mailer.IEmailService,
	sysLogger logger.ILogger,
) IDeliveryService {
	return &deliveryService{
		broker:     broker,
		topicName:  topicName,
		baseURL:    baseURL,
		mailSender: mailSender,
		logger:     sysLogger,
	}
}

// Start consumes deliveries until ctx is done. Failed sends are logged and
// dropped; the user can always ask for the email again.
func (ds *deliveryService) Start(ctx context.Context) error {
	topicID, err := ds.broker.EnsureTopic(ctx, ds.topicName)
	if err != nil {
		return fmt.Errorf("ensure topic: %w", err)
	}

	deliveries, err := ds.broker.Deliveries(ctx, topicID)
	if err != nil {
		return fmt.Errorf("open delivery stream: %w", err)
	}

	go func() {
		for d := range deliveries {
			ds.process(d)
		}
	}()

	return nil
}

func (ds *deliveryService) process(d notify.Delivery) {
	switch d.Type {
	case events.TypeDocDelivery:
		if err := ds.mailSender.SendDocSummary(d.Endpoint, d.Subject, d.Body); err != nil {
			ds.logger.Error("delivery", "Failed to send doc summary", map[string]interface{}{
				"endpoint": d.Endpoint,
				"error":    err.Error(),
			})
			return
		}
		ds.logger.Info("delivery", "Doc summary sent", map[string]interface{}{
			"endpoint": d.Endpoint,
		})

	case events.TypeConfirmationRequest:
		confirmURL := fmt.Sprintf("%s/api/assistant/v1/subscription/%s/confirm", ds.baseURL, d.SubscriptionID)
		if err := ds.mailSender.SendConfirmationRequest(d.Endpoint, confirmURL); err != nil {
			ds.logger.Error("delivery", "Failed to send confirmation request", map[string]interface{}{
				"endpoint": d.Endpoint,
				"error":    err.Error(),
			})
			return
		}
		ds.logger.Info("delivery", "Confirmation request sent", map[string]interface{}{
			"endpoint":        d.Endpoint,
			"subscription_id": d.SubscriptionID,
		})

	default:
		ds.logger.Warn("delivery", "Unknown delivery type", map[string]interface{}{
			"type": d.Type,
		})
	}
}
