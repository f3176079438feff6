package cloud

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// CommandKind identifies which session operation an MQTT command drives
type CommandKind int

const (
	CommandPointer CommandKind = iota
	CommandEditMode
	CommandDataMode
	CommandRandomize
)

var commandTopics = map[CommandKind]string{
	CommandPointer:   "pointer",
	CommandEditMode:  "edit-mode",
	CommandDataMode:  "data-mode",
	CommandRandomize: "randomize",
}

func (k CommandKind) String() string {
	if topic, ok := commandTopics[k]; ok {
		return topic
	}
	return "unknown"
}

// Command is a decoded control message. Pointer is set for CommandPointer,
// Mode for the two mode commands.
type Command struct {
	Kind    CommandKind
	Pointer PointerEvent
	Mode    string
}

// CommandHandler is called for every control message. err is set when the
// payload could not be decoded.
type CommandHandler func(cmd Command, err error)

// MQTTClient manages the MQTT connection and the control subscriptions
type MQTTClient struct {
	client      mqtt.Client
	prefix      string
	handler     CommandHandler
	isConnected bool
	mu          sync.RWMutex
}

// resolvePrefix picks the topic prefix: env, then config, then the default
func resolvePrefix(config *Config) string {
	prefix := os.Getenv("MQTT_PUBLISH_PREFIX")
	if prefix == "" && config != nil {
		prefix = config.MQTT.PublishPrefix
	}
	if prefix == "" {
		prefix = "chamferview"
	}
	return strings.TrimSuffix(prefix, "/")
}

// CommandTopic returns the topic a command kind is received on
func CommandTopic(prefix string, kind CommandKind) string {
	return fmt.Sprintf("%s/%s", prefix, kind)
}

// InitMQTT connects to the broker and subscribes to the control topics.
// If neither MQTT_BROKER nor mqtt.broker is set, MQTT is disabled and this
// returns nil.
func InitMQTT(config *Config, sessionID string, handler CommandHandler) (*MQTTClient, error) {
	broker := os.Getenv("MQTT_BROKER")
	if broker == "" && config != nil {
		broker = config.MQTT.Broker
	}
	if broker == "" {
		log.Println("[MQTT] disabled: MQTT_BROKER not set")
		return nil, nil
	}
	if handler == nil {
		return nil, fmt.Errorf("MQTT enabled but no command handler provided")
	}

	client := &MQTTClient{
		prefix:  resolvePrefix(config),
		handler: handler,
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(broker)

	// Client ID, suffixed with the session so two instances can share a broker
	clientID := os.Getenv("MQTT_CLIENT_ID")
	if clientID == "" && config != nil {
		clientID = config.MQTT.ClientID
	}
	if clientID == "" {
		clientID = "chamferview"
	}
	if sessionID != "" {
		clientID = fmt.Sprintf("%s-%.8s", clientID, sessionID)
	}
	opts.SetClientID(clientID)

	username := os.Getenv("MQTT_USERNAME")
	if username == "" && config != nil {
		username = config.MQTT.Username
	}
	if username != "" {
		opts.SetUsername(username)
		password := os.Getenv("MQTT_PASSWORD")
		if password == "" && config != nil {
			password = config.MQTT.Password
		}
		opts.SetPassword(password)
	}

	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetMaxReconnectInterval(60 * time.Second)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)
	opts.SetCleanSession(true)
	// pointer events must be applied in arrival order
	opts.SetOrderMatters(true)

	opts.SetOnConnectHandler(client.onConnect)
	opts.SetConnectionLostHandler(client.onConnectionLost)
	opts.SetReconnectingHandler(client.onReconnecting)

	client.client = mqtt.NewClient(opts)

	go client.connectWithRetry()

	return client, nil
}

// connectWithRetry attempts to connect to the MQTT broker with exponential backoff
func (c *MQTTClient) connectWithRetry() {
	retryDelay := 1 * time.Second
	maxRetryDelay := 60 * time.Second

	for {
		log.Println("[MQTT] connecting to broker...")

		token := c.client.Connect()
		if token.WaitTimeout(10 * time.Second) {
			if token.Error() == nil {
				log.Println("[MQTT] connected to broker")
				c.setConnected(true)
				return
			}
			log.Printf("[MQTT] connection failed: %v", token.Error())
		} else {
			log.Println("[MQTT] connection timeout")
		}

		log.Printf("[MQTT] retrying connection in %v...", retryDelay)
		time.Sleep(retryDelay)
		retryDelay *= 2
		if retryDelay > maxRetryDelay {
			retryDelay = maxRetryDelay
		}
	}
}

// onConnect subscribes to every control topic. It runs again after each
// reconnect since sessions are clean.
func (c *MQTTClient) onConnect(client mqtt.Client) {
	c.setConnected(true)

	for _, kind := range []CommandKind{CommandPointer, CommandEditMode, CommandDataMode, CommandRandomize} {
		topic := CommandTopic(c.prefix, kind)
		token := client.Subscribe(topic, 0, c.createMessageHandler(kind))
		if token.WaitTimeout(5*time.Second) && token.Error() != nil {
			log.Printf("[MQTT] error subscribing to %s: %v", topic, token.Error())
			continue
		}
		log.Printf("[MQTT] subscribed to %s", topic)
	}
}

func (c *MQTTClient) onConnectionLost(client mqtt.Client, err error) {
	log.Printf("[MQTT] connection interrupted (%v), auto-reconnect will retry", err)
	c.setConnected(false)
}

func (c *MQTTClient) onReconnecting(client mqtt.Client, opts *mqtt.ClientOptions) {
	log.Println("[MQTT] reconnecting...")
}

// createMessageHandler decodes messages for one control topic
func (c *MQTTClient) createMessageHandler(kind CommandKind) mqtt.MessageHandler {
	return func(client mqtt.Client, msg mqtt.Message) {
		cmd, err := DecodeCommand(kind, msg.Payload())
		if err != nil {
			log.Printf("[DEBUG] mqtt: dropping %s message on %s: %v", kind, msg.Topic(), err)
		}
		c.handler(cmd, err)
	}
}

// modePayload is the JSON object form of a mode command
type modePayload struct {
	Mode string `json:"mode"`
}

// DecodeCommand parses a control payload. Mode commands accept
// {"mode": "Rotate"}, a JSON string, or the bare name. Randomize ignores
// its payload.
func DecodeCommand(kind CommandKind, payload []byte) (Command, error) {
	cmd := Command{Kind: kind}

	switch kind {
	case CommandPointer:
		if err := json.Unmarshal(payload, &cmd.Pointer); err != nil {
			return cmd, fmt.Errorf("decoding pointer event: %w", err)
		}
	case CommandEditMode, CommandDataMode:
		var obj modePayload
		var str string
		if err := json.Unmarshal(payload, &obj); err == nil && obj.Mode != "" {
			cmd.Mode = obj.Mode
		} else if err := json.Unmarshal(payload, &str); err == nil {
			cmd.Mode = str
		} else {
			cmd.Mode = strings.TrimSpace(string(payload))
		}
		if cmd.Mode == "" {
			return cmd, fmt.Errorf("empty %s payload", kind)
		}
	case CommandRandomize:
	default:
		return cmd, fmt.Errorf("unknown command kind %d", kind)
	}

	return cmd, nil
}

// IsConnected returns true if the MQTT client is connected
func (c *MQTTClient) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.isConnected
}

func (c *MQTTClient) setConnected(connected bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.isConnected = connected
}

// Disconnect gracefully closes the MQTT connection
func (c *MQTTClient) Disconnect() {
	if c.client != nil && c.client.IsConnected() {
		log.Println("[MQTT] disconnecting from broker...")
		c.client.Disconnect(250)
		c.setConnected(false)
	}
}

// Prefix returns the topic prefix used for commands and telemetry
func (c *MQTTClient) Prefix() string {
	return c.prefix
}

// GetClient returns the underlying MQTT client for publishing
func (c *MQTTClient) GetClient() mqtt.Client {
	return c.client
}

// newMQTTClientWithMock creates an MQTTClient around a provided mqtt.Client
func newMQTTClientWithMock(client mqtt.Client, prefix string, handler CommandHandler) *MQTTClient {
	return &MQTTClient{
		client:  client,
		prefix:  prefix,
		handler: handler,
	}
}
