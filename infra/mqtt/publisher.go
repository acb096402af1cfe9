package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/kilianp07/ridesim/core/events"
	"github.com/kilianp07/ridesim/core/monitoring"
	coremqtt "github.com/kilianp07/ridesim/core/mqtt"
	"github.com/kilianp07/ridesim/infra/logger"
)

// EventPublisher writes simulation events to <prefix>/events/<kind>.
type EventPublisher struct {
	cli        pahoClient
	prefix     string
	qos        byte
	retain     bool
	maxRetries int
	backoff    time.Duration
	logger     logger.Logger
	sleep      func(time.Duration)
}

var _ coremqtt.Publisher = (*EventPublisher)(nil)

// NewEventPublisher connects to the broker and announces the service online.
func NewEventPublisher(cfg Config) (*EventPublisher, error) {
	cfg.SetDefaults()
	opts, err := NewClientOptions(cfg)
	if err != nil {
		return nil, err
	}
	log := logger.New("mqtt_publisher")
	p := &EventPublisher{
		prefix:     cfg.TopicPrefix,
		qos:        cfg.QoS,
		retain:     cfg.Retain,
		maxRetries: cfg.MaxRetries,
		backoff:    time.Duration(cfg.BackoffMS) * time.Millisecond,
		logger:     log,
		sleep:      time.Sleep,
	}
	opts.OnConnect = func(c paho.Client) {
		log.Infof("MQTT connected to %s", cfg.Broker)
		c.Publish(coremqtt.StatusTopic(p.prefix), p.qos, true, "online")
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Errorf("connection lost: %v", err)
	}
	opts.OnReconnecting = func(_ paho.Client, _ *paho.ClientOptions) {
		log.Warnf("reconnecting to MQTT broker")
	}
	c := newMQTTClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	p.cli = c
	return p, nil
}

// PublishEvent sends ev wrapped in a Message. Failed attempts are retried
// with exponential backoff; the final error is reported to monitoring.
func (p *EventPublisher) PublishEvent(ev events.Event) error {
	meta := ev.Stamp()
	msg := coremqtt.Message{
		MessageID: uuid.NewString(),
		Type:      ev.Kind(),
		Tick:      meta.Tick,
		Time:      meta.Time.UnixMilli(),
		Payload:   ev,
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode %s: %w", ev.Kind(), err)
	}
	topic := coremqtt.EventTopic(p.prefix, ev.Kind())
	var publishErr error
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		token := p.cli.Publish(topic, p.qos, p.retain, payload)
		token.Wait()
		publishErr = token.Error()
		if publishErr == nil {
			p.logger.Debugw("event published", map[string]any{"topic": topic, "message_id": msg.MessageID})
			return nil
		}
		p.logger.Errorf("publish attempt %d to %s failed: %v", attempt+1, topic, publishErr)
		if attempt < p.maxRetries {
			p.sleep(p.backoff * time.Duration(1<<attempt))
		}
	}
	err = fmt.Errorf("%w: %s: %v", coremqtt.ErrPublishFailed, topic, publishErr)
	monitoring.CaptureException(err, map[string]string{"module": "mqtt", "event": ev.Kind()})
	return err
}

// Run publishes every event received on sub until ctx is done or sub closes.
func (p *EventPublisher) Run(ctx context.Context, sub <-chan events.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sub:
			if !ok {
				return
			}
			_ = p.PublishEvent(ev)
		}
	}
}

// Close marks the service offline and disconnects.
func (p *EventPublisher) Close() {
	if p.cli == nil || !p.cli.IsConnected() {
		return
	}
	token := p.cli.Publish(coremqtt.StatusTopic(p.prefix), p.qos, true, "offline")
	token.WaitTimeout(time.Second)
	p.cli.Disconnect(250)
}
