package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/segmentio/kafka-go"
)

var (
	broker   = flag.String("broker", "localhost:9092", "Kafka broker address")
	topic    = flag.String("topic", "samples", "Topic to write samples to")
	mode     = flag.String("mode", "positional", "Sample shape: positional or named")
	channels = flag.String("channels", "voltage,current,temperature", "Comma-separated channel names")
)

// NamedSample matches what binavg expects in named mode.
type NamedSample struct {
	Timestamp float64                `json:"timestamp"`
	Values    map[string]interface{} `json:"values"`
}

func main() {
	flag.Parse()
	names := strings.Split(*channels, ",")

	writer := &kafka.Writer{
		Addr:     kafka.TCP(*broker),
		Topic:    *topic,
		Balancer: &kafka.LeastBytes{},
	}
	defer func() {
		if err := writer.Close(); err != nil {
			log.Fatalf("Error closing kafka writer: %v", err)
		}
	}()
	log.Printf("Starting sample producer (%s mode) for topic: %s on broker: %s", *mode, *topic, *broker)

	ctx, cancel := context.WithCancel(context.Background())
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-signals
		log.Println("Shutdown signal received, stopping producer...")
		cancel()
	}()

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	for {
		// Irregular sampling: 100ms to 2s between samples.
		wait := time.Duration(100+rng.Intn(1900)) * time.Millisecond
		select {
		case <-time.After(wait):
			payload, err := generateSample(rng, time.Now(), names)
			if err != nil {
				log.Printf("Error marshalling sample: %v", err)
				continue
			}
			if err := writer.WriteMessages(ctx, kafka.Message{Value: payload}); err != nil {
				if ctx.Err() != nil {
					return
				}
				log.Printf("Error writing message: %v", err)
				continue
			}
			log.Printf("Produced sample: %s", payload)

		case <-ctx.Done():
			log.Println("Producer loop stopped.")
			return
		}
	}
}

// generateSample builds one sample with occasional null channel values.
func generateSample(rng *rand.Rand, now time.Time, names []string) ([]byte, error) {
	ts := float64(now.UnixNano()) / 1e9

	values := make([]interface{}, len(names))
	for i := range names {
		// ~5% chance of a missing reading
		if rng.Float64() < 0.05 {
			continue
		}
		values[i] = 100*float64(i+1) + rng.NormFloat64()*5
	}

	if *mode == "named" {
		sample := NamedSample{Timestamp: ts, Values: make(map[string]interface{}, len(names))}
		for i, name := range names {
			sample.Values[name] = values[i]
		}
		return json.Marshal(sample)
	}
	return json.Marshal(append([]interface{}{ts}, values...))
}
