package models

// ============================================================================
// Pipeline progress events (for SSE streaming)
// ============================================================================

// AgentEventType represents the type of a streaming pipeline event.
type AgentEventType string

const (
	EventAgentStart    AgentEventType = "agent_start"
	EventAgentProgress AgentEventType = "agent_progress"
	EventAgentComplete AgentEventType = "agent_complete"
	EventRoundRetry    AgentEventType = "round_retry"
	EventQueryComplete AgentEventType = "query_complete"
	EventQueryError    AgentEventType = "query_error"
)

// AgentName identifies which pipeline stage an event refers to.
type AgentName string

const (
	AgentSchema    AgentName = "schema"
	AgentSQL       AgentName = "sql"
	AgentValidator AgentName = "validator"
)

// AgentStatus is the fixed status vocabulary a caller renders per agent.
type AgentStatus string

const (
	StatusActive AgentStatus = "active"
	StatusDone   AgentStatus = "done"
	StatusRetry  AgentStatus = "retry"
	StatusError  AgentStatus = "error"
)

// AgentEvent is one structured progress event. Events are emitted in strict
// causal order; a consumer observing the stream in order can reconstruct
// pipeline state without the final result.
type AgentEvent struct {
	Type    AgentEventType `json:"type"`
	Agent   AgentName      `json:"agent,omitempty"`
	Status  AgentStatus    `json:"status,omitempty"`
	Message string         `json:"message,omitempty"`
	Data    map[string]any `json:"data,omitempty"`
}

// NewAgentStartEvent creates an event marking a stage as active.
func NewAgentStartEvent(agent AgentName, message string) AgentEvent {
	return AgentEvent{Type: EventAgentStart, Agent: agent, Status: StatusActive, Message: message}
}

// NewAgentCompleteEvent creates an event marking a stage as done.
func NewAgentCompleteEvent(agent AgentName, message string, data map[string]any) AgentEvent {
	return AgentEvent{Type: EventAgentComplete, Agent: agent, Status: StatusDone, Message: message, Data: data}
}

// NewRoundRetryEvent creates an event announcing the next round.
func NewRoundRetryEvent(agent AgentName, message string, data map[string]any) AgentEvent {
	return AgentEvent{Type: EventRoundRetry, Agent: agent, Status: StatusRetry, Message: message, Data: data}
}

// NewQueryCompleteEvent creates the terminal success event.
func NewQueryCompleteEvent(rowCount, rounds int) AgentEvent {
	return AgentEvent{
		Type:    EventQueryComplete,
		Message: "Done",
		Data:    map[string]any{"rowCount": rowCount, "rounds": rounds},
	}
}

// NewQueryErrorEvent creates the terminal failure event.
func NewQueryErrorEvent(message string) AgentEvent {
	return AgentEvent{Type: EventQueryError, Agent: AgentValidator, Status: StatusError, Message: message}
}

// EventSink receives pipeline progress events. The pipeline does not care how
// events reach the caller; the transport layer decides (SSE, callback, test
// capture).
type EventSink func(AgentEvent)
