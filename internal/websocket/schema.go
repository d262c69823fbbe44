package websocket

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionMedia  Action = "media"
	ActionAnswer Action = "answer"
	ActionSkip   Action = "skip"
	ActionPing   Action = "ping"
)

// RequestPayload is the single client message shape; which fields are
// meaningful depends on the action.
type RequestPayload struct {
	Action Action `json:"action"`

	// media
	Kind     string  `json:"kind,omitempty"` // timeupdate, ended, error
	Position float64 `json:"position,omitempty"`

	// answer
	QID    string `json:"q_id,omitempty"`
	Answer string `json:"ans,omitempty"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventState    Event = "state"
	EventError    Event = "error"
	EventFinished Event = "finished"
	EventPong     Event = "pong"
)

// StateResponse pushes the authoritative session state to the client.
type StateResponse struct {
	Event      Event  `json:"event"`
	Phase      string `json:"phase"`
	ActivePart int    `json:"active_part"`
	TimeKind   string `json:"time_kind"`
	Seconds    int    `json:"seconds"`
	AudioSrc   string `json:"audio_src,omitempty"`
}

// FinishedResponse announces a successful submission.
type FinishedResponse struct {
	Event    Event  `json:"event"`
	ResultID string `json:"result_id"`
	ViewPath string `json:"view_path"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
