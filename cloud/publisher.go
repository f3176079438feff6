package cloud

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// DistanceMessage is the telemetry published for every frame
type DistanceMessage struct {
	SessionID  string   `json:"sessionId"`
	Generation uint64   `json:"generation"`
	DataMode   DataMode `json:"dataMode"`
	EditMode   EditMode `json:"editMode"`
	Pose       Pose     `json:"pose"`
	Distance   float64  `json:"distance"`
	Title      string   `json:"title"`
	Timestamp  int64    `json:"timestamp"`
}

// Publisher publishes frame telemetry to MQTT
type Publisher struct {
	client        mqtt.Client
	publishPrefix string
	qos           byte
	retain        bool
	last          *DistanceMessage
	mu            sync.RWMutex
}

// NewPublisher creates a new telemetry publisher for the given prefix.
// If client is nil, publishing is disabled.
func NewPublisher(client mqtt.Client, prefix string) *Publisher {
	if prefix == "" {
		prefix = "chamferview"
	}
	return &Publisher{
		client:        client,
		publishPrefix: prefix,
		qos:           0,    // superseded by the next frame anyway
		retain:        true, // late subscribers see the current distance
	}
}

// DistanceTopic returns the topic frames are published to
func (p *Publisher) DistanceTopic() string {
	return fmt.Sprintf("%s/distance", p.publishPrefix)
}

// PublishFrame publishes the distance and pose of a frame
func (p *Publisher) PublishFrame(frame Frame) error {
	if p.client == nil || !p.client.IsConnected() {
		return fmt.Errorf("MQTT client not connected")
	}

	msg := &DistanceMessage{
		SessionID:  frame.SessionID,
		Generation: frame.Generation,
		DataMode:   frame.DataMode,
		EditMode:   frame.EditMode,
		Pose:       frame.Pose,
		Distance:   frame.Distance,
		Title:      frame.Title,
		Timestamp:  time.Now().Unix(),
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshaling distance message: %w", err)
	}

	topic := p.DistanceTopic()
	token := p.client.Publish(topic, p.qos, p.retain, payload)
	if token.WaitTimeout(2*time.Second) && token.Error() != nil {
		return fmt.Errorf("publishing to %s: %w", topic, token.Error())
	}

	p.mu.Lock()
	p.last = msg
	p.mu.Unlock()

	log.Printf("[MQTT] published generation %d: %s", msg.Generation, msg.Title)
	return nil
}

// Last returns a copy of the most recently published message
func (p *Publisher) Last() (DistanceMessage, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.last == nil {
		return DistanceMessage{}, false
	}
	return *p.last, true
}

// SetQoS sets the Quality of Service level for publishing (0, 1, or 2)
func (p *Publisher) SetQoS(qos byte) {
	if qos <= 2 {
		p.qos = qos
	}
}

// SetRetain sets whether published messages should be retained by the broker
func (p *Publisher) SetRetain(retain bool) {
	p.retain = retain
}
