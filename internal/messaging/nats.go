// server/internal/messaging/nats.go
package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ev-fleet-rider-api-server/internal/kyc"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

const statusChangeSubject = "kyc.rider.status"

// NATSPublisher pushes rider-level KYC status transitions to the fleet bus so
// downstream services (dispatch, payouts) can react without polling.
type NATSPublisher struct {
	conn   *nats.Conn
	logger *zap.Logger
}

func NewNATSPublisher(url string, logger *zap.Logger) (*NATSPublisher, error) {
	conn, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	logger.Info("connected to NATS", zap.String("url", url))
	return &NATSPublisher{
		conn:   conn,
		logger: logger,
	}, nil
}

type statusChangeMessage struct {
	RiderID  string `json:"rider_id"`
	Previous string `json:"previous"`
	Next     string `json:"next"`
	At       string `json:"at"`
}

func (p *NATSPublisher) PublishStatusChange(ctx context.Context, riderID string, previous, next kyc.OverallStatus) error {
	msg := statusChangeMessage{
		RiderID:  riderID,
		Previous: string(previous),
		Next:     string(next),
		At:       time.Now().UTC().Format(time.RFC3339),
	}

	data, err := json.Marshal(msg)
	if err != nil {
		p.logger.Error("failed to marshal status change", zap.Error(err))
		return fmt.Errorf("failed to marshal status change: %w", err)
	}

	if err := p.conn.Publish(statusChangeSubject, data); err != nil {
		p.logger.Error("failed to publish status change", zap.Error(err), zap.String("rider_id", riderID))
		return fmt.Errorf("failed to publish status change: %w", err)
	}

	p.logger.Info("status change published",
		zap.String("rider_id", riderID),
		zap.String("previous", string(previous)),
		zap.String("next", string(next)))
	return nil
}

func (p *NATSPublisher) Close() {
	if p.conn != nil {
		p.conn.Close()
		p.logger.Info("NATS connection closed")
	}
}
