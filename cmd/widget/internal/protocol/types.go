package protocol

const (
	ActionAdd      = "add"
	ActionDelete   = "delete"
	ActionRefresh  = "refresh"
	ActionSnapshot = "snapshot"
	ActionConfirm  = "confirm"
)

const (
	TypeAck            = "ack"
	TypeError          = "error"
	TypeRows           = "rows"
	TypeRow            = "row"
	TypeStatus         = "status"
	TypeRefreshEnabled = "refresh_enabled"
	TypeNotify         = "notify"
	TypeConfirm        = "confirm"
	TypeSnapshot       = "snapshot"
)

type WSRequest struct {
	Action  string         `json:"action"`
	Payload RequestPayload `json:"payload"`
	ID      string         `json:"id,omitempty"`
}

type RequestPayload struct {
	Symbol string `json:"symbol,omitempty"`
	Answer bool   `json:"answer,omitempty"` // reply to a confirm prompt
}

type WSResponse struct {
	Type    string      `json:"type"`
	ID      string      `json:"id,omitempty"`     // Matches request ID
	Status  string      `json:"status,omitempty"` // "success", "error"
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}
