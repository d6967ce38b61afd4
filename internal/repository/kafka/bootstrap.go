package kafka

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// BootstrapConsumer provisions the topic best-effort and returns a consumer
// for it. A provisioning failure is not fatal; the consume loop retries.
func BootstrapConsumer(ctx context.Context, cfg *ConsumerConfig, logger *zap.Logger) *Consumer {
	_ = EnsureTopic(ctx, cfg.Brokers, TopicSpec{
		Name:              cfg.Topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
		MaxWait:           5 * time.Second,
	}, logger)

	return NewConsumer(cfg)
}
