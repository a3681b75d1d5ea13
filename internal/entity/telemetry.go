package entity

// EventType identifies one kind of telemetry event.
type EventType string

const (
	EventConnected          EventType = "connected"
	EventInferenceIteration EventType = "inference_iteration"
	EventProfilingUpdate    EventType = "profiling_update"
	EventInferenceComplete  EventType = "inference_complete"
	EventHeartbeat          EventType = "heartbeat"
)

// TelemetryEvent is the closed set of events pushed to live subscribers.
// Each variant carries only its relevant fields and serializes with a
// uniform "type" discriminator.
type TelemetryEvent interface {
	Kind() EventType
}

type ConnectedEvent struct {
	Type           EventType `json:"type"`
	InferenceCount int64     `json:"inference_count"`
}

func NewConnectedEvent(inferenceCount int64) ConnectedEvent {
	return ConnectedEvent{Type: EventConnected, InferenceCount: inferenceCount}
}

func (e ConnectedEvent) Kind() EventType { return e.Type }

type InferenceIterationEvent struct {
	Type          EventType `json:"type"`
	Model         string    `json:"model"`
	Iteration     int       `json:"iteration"`
	Total         int       `json:"total"`
	LatencyMS     float64   `json:"latency_ms"`
	NumDetections int       `json:"num_detections"`
	Timestamp     float64   `json:"timestamp"`
	Log           string    `json:"log"`
}

func (e InferenceIterationEvent) Kind() EventType { return e.Type }

type ProfilingUpdateEvent struct {
	Type       EventType `json:"type"`
	Model      string    `json:"model"`
	Iteration  int       `json:"iteration"`
	Total      int       `json:"total"`
	AvgLatency float64   `json:"avg_latency"`
	Log        string    `json:"log"`
}

func (e ProfilingUpdateEvent) Kind() EventType { return e.Type }

type InferenceCompleteEvent struct {
	Type      EventType `json:"type"`
	Count     int64     `json:"count"`
	Models    []string  `json:"models"`
	Timestamp float64   `json:"timestamp"`
}

func (e InferenceCompleteEvent) Kind() EventType { return e.Type }

type HeartbeatEvent struct {
	Type           EventType `json:"type"`
	InferenceCount int64     `json:"inference_count"`
}

func NewHeartbeatEvent(inferenceCount int64) HeartbeatEvent {
	return HeartbeatEvent{Type: EventHeartbeat, InferenceCount: inferenceCount}
}

func (e HeartbeatEvent) Kind() EventType { return e.Type }
