// Package events fans simulation impacts out to other processes over Redis
// pub/sub.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/san-kum/meteorsim/internal/logging"
	"github.com/san-kum/meteorsim/internal/sim"
)

const (
	DefaultChannel = "meteorsim.impacts"
	publishTimeout = time.Second
)

// Publisher is the part of a Redis client used here.
type Publisher interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
}

// ImpactMessage is the JSON payload published for every impact.
type ImpactMessage struct {
	Source string `json:"source"`
	sim.ImpactEvent
}

// ImpactPublisher is a sim.Observer that publishes each impact of a step.
// A failed publish is logged and counted; it never stops the simulation.
type ImpactPublisher struct {
	client  Publisher
	channel string
	source  string
	log     logging.Logger

	published int
	failed    int
}

func NewImpactPublisher(client Publisher, channel, source string, log logging.Logger) *ImpactPublisher {
	if channel == "" {
		channel = DefaultChannel
	}
	if log == nil {
		log = logging.Noop()
	}
	return &ImpactPublisher{client: client, channel: channel, source: source, log: log}
}

func (p *ImpactPublisher) OnStep(snap *sim.Snapshot) {
	for _, ev := range snap.Impacts {
		payload, err := json.Marshal(ImpactMessage{Source: p.source, ImpactEvent: ev})
		if err != nil {
			p.failed++
			p.log.Warn("encode impact", logging.Err(err))
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		err = p.client.Publish(ctx, p.channel, payload).Err()
		cancel()
		if err != nil {
			p.failed++
			p.log.Warn("publish impact", logging.String("channel", p.channel), logging.Err(err))
			continue
		}
		p.published++
	}
}

func (p *ImpactPublisher) Published() int { return p.published }
func (p *ImpactPublisher) Failed() int    { return p.failed }

// Connect opens a Redis client and checks that the server answers.
func Connect(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}
