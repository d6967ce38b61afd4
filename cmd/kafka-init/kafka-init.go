package main

import (
	"context"
	"log"
	"os"
	"strings"
	"time"

	kafkax "github.com/calder-labs/pushgate/internal/repository/kafka"
)

// One-shot topic provisioning, run before the services in compose/deploy.
func main() {
	brokers := strings.Split(getenv("KAFKA_BROKERS", "kafka:9092"), ",")
	topic := getenv("KAFKA_INTENT_TOPIC", "pushgate.intents")

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	if err := kafkax.EnsureTopic(ctx, brokers, kafkax.TopicSpec{
		Name:              topic,
		NumPartitions:     3,
		ReplicationFactor: 1,
		MaxWait:           30 * time.Second,
	}, nil); err != nil {
		log.Fatalf("ensure topic %s: %v", topic, err)
	}
	log.Printf("topic %s ready", topic)
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
