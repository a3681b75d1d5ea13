package detector

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/net/context"

	"VisionForge/internal/entity"
)

// Result is one inference response from the model-runner backend.
type Result struct {
	Detections     []entity.Detection `json:"detections"`
	ImageWithBoxes string             `json:"image_with_boxes,omitempty"`
	Error          string             `json:"error,omitempty"`
}

type detectRequest struct {
	Image         string  `json:"image"`
	ConfThreshold float64 `json:"conf_threshold"`
	IOUThreshold  float64 `json:"iou_threshold"`
}

// IDetector is the boundary to the external detection backend. For fixed
// input and thresholds the backend returns identical detections; only
// latency varies between calls.
type IDetector interface {
	Detect(ctx context.Context, model string, imageBase64 string, confThreshold, iouThreshold float64) (*Result, error)
	IsConnected(model string) bool
	Reconnect(model string) error
	Models() []string
	CloseConnections()
}

type webSocketClient struct {
	mu           sync.Mutex
	conns        map[string]*websocket.Conn
	models       []string
	pingInterval time.Duration
	readTimeout  time.Duration
	writeTimeout time.Duration
}

// NewWebSocketClient dials one persistent connection per model. Missing
// or failed connections are retried on demand from Detect.
func NewWebSocketClient(models ...string) IDetector {
	client := &webSocketClient{
		conns:        make(map[string]*websocket.Conn, len(models)),
		models:       models,
		pingInterval: 30 * time.Second,
		readTimeout:  60 * time.Second,
		writeTimeout: 5 * time.Second,
	}

	for _, model := range models {
		go client.connectInBackground(model)
	}

	return client
}

func (c *webSocketClient) connectInBackground(model string) {
	if err := c.Reconnect(model); err != nil {
		fmt.Fprintf(os.Stderr, "initial connection to %s backend failed: %v\n", model, err)
	}
}

func (c *webSocketClient) Models() []string {
	return append([]string(nil), c.models...)
}

func (c *webSocketClient) IsConnected(model string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conns[model] != nil
}

func (c *webSocketClient) Reconnect(model string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if conn := c.conns[model]; conn != nil {
		conn.Close()
		delete(c.conns, model)
	}

	url := backendURL(model)
	if url == "" {
		return fmt.Errorf("URL for %s backend not configured", model)
	}

	dialer := websocket.DefaultDialer
	dialer.HandshakeTimeout = 10 * time.Second

	conn, _, err := dialer.Dial(url, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", url, err)
	}

	conn.SetPingHandler(func(appData string) error {
		return conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(c.writeTimeout))
	})

	c.conns[model] = conn
	go c.keepAlive(model)

	return nil
}

func (c *webSocketClient) CloseConnections() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for model, conn := range c.conns {
		conn.Close()
		delete(c.conns, model)
	}
}

func (c *webSocketClient) keepAlive(model string) {
	ticker := time.NewTicker(c.pingInterval)
	defer ticker.Stop()

	for range ticker.C {
		c.mu.Lock()
		conn := c.conns[model]
		if conn == nil {
			c.mu.Unlock()
			return
		}

		err := conn.WriteControl(
			websocket.PingMessage,
			[]byte{},
			time.Now().Add(c.writeTimeout),
		)
		if err != nil {
			delete(c.conns, model)
			conn.Close()
			c.mu.Unlock()
			return
		}

		c.mu.Unlock()
	}
}

// Detect sends one request/response round trip over the model's
// connection. The mutex serializes concurrent callers so responses
// cannot interleave.
func (c *webSocketClient) Detect(ctx context.Context, model string, imageBase64 string, confThreshold, iouThreshold float64) (*Result, error) {
	c.mu.Lock()
	conn := c.conns[model]
	c.mu.Unlock()

	if conn == nil {
		if err := c.Reconnect(model); err != nil {
			return nil, fmt.Errorf("cannot connect to %s backend: %w", model, err)
		}
		c.mu.Lock()
		conn = c.conns[model]
		c.mu.Unlock()
		if conn == nil {
			return nil, fmt.Errorf("not connected to %s backend", model)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	deadline := time.Now().Add(c.readTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	req := detectRequest{
		Image:         imageBase64,
		ConfThreshold: confThreshold,
		IOUThreshold:  iouThreshold,
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	if err := conn.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
		return nil, err
	}
	if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		c.dropLocked(model, conn)
		return nil, fmt.Errorf("failed to send frame to %s: %w", model, err)
	}

	if err := conn.SetReadDeadline(deadline); err != nil {
		return nil, err
	}
	_, message, err := conn.ReadMessage()
	if err != nil {
		c.dropLocked(model, conn)
		return nil, fmt.Errorf("failed to read %s response: %w", model, err)
	}

	var result Result
	if err := json.Unmarshal(message, &result); err != nil {
		return nil, fmt.Errorf("invalid %s response: %w", model, err)
	}
	if result.Error != "" {
		return nil, fmt.Errorf("%s backend error: %s", model, result.Error)
	}

	return &result, nil
}

func (c *webSocketClient) dropLocked(model string, conn *websocket.Conn) {
	if c.conns[model] == conn {
		delete(c.conns, model)
	}
	conn.Close()
}

func backendURL(model string) string {
	return os.Getenv("DETECTOR_" + strings.ToUpper(model) + "_WS_URL")
}
