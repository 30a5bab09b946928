package agent

import (
	"encoding/json"
)

type Command string

const (
	CmdCreateSession Command = "create_session"
	CmdCloseSession  Command = "close_session"
	CmdListSessions  Command = "list_sessions"

	// операции поверх открытой сессии
	CmdBeginOp  Command = "begin_op"
	CmdUpdateOp Command = "update_op"
	CmdFinishOp Command = "finish_op"
	CmdAbortOp  Command = "abort_op"
)

type IPCMessage struct {
	Type string          `json:"type"`
	Meta Meta            `json:"meta"`
	Data json.RawMessage `json:"data"`
}

type Meta struct {
	StorePath string `json:"store_path"` // path to the key store file
	UserID    string `json:"user_id"`    // os.Getuid() as string
}

type CreateSessionRequest struct {
	Password []byte `json:"password"`
	TTL      int    `json:"ttl_seconds"`
}

type CreateSessionResponse struct {
	Success   bool        `json:"success"`
	SessionID string      `json:"session_id,omitempty"`
	ExpiresAt int64       `json:"expires_at,omitempty"`
	Error     *AgentError `json:"error,omitempty"`
}

type CloseSessionRequest struct {
	SessionID string `json:"session_id"`
}

type CloseSessionResponse struct {
	Success bool        `json:"success"`
	Error   *AgentError `json:"error,omitempty"`
}

// empty request
type ListSessionsRequest struct {
}

type SessionInfo struct {
	SessionID string `json:"session_id"`
	StorePath string `json:"store_path"`
	ExpiresAt int64  `json:"expires_at"`
}

type ListSessionsResponse struct {
	Success  bool          `json:"success"`
	Sessions []SessionInfo `json:"sessions,omitempty"`
	Error    *AgentError   `json:"error,omitempty"`
}

type BeginOpRequest struct {
	SessionID string `json:"session_id"`
	KeyName   string `json:"key_name"`
	Purpose   string `json:"purpose"` // "sign" | "verify"
	TagLength int    `json:"tag_length"`
}

type BeginOpResponse struct {
	Success  bool        `json:"success"`
	OpHandle string      `json:"op_handle,omitempty"`
	Error    *AgentError `json:"error,omitempty"`
}

type UpdateOpRequest struct {
	OpHandle string `json:"op_handle"`
	Input    []byte `json:"input"`
}

type UpdateOpResponse struct {
	Success  bool        `json:"success"`
	Consumed int         `json:"consumed"`
	Error    *AgentError `json:"error,omitempty"`
}

type FinishOpRequest struct {
	OpHandle string `json:"op_handle"`
	// candidate tag, only meaningful for verify operations
	Signature []byte `json:"signature,omitempty"`
}

type FinishOpResponse struct {
	Success bool        `json:"success"`
	Tag     []byte      `json:"tag,omitempty"`
	Error   *AgentError `json:"error,omitempty"`
}

type AbortOpRequest struct {
	OpHandle string `json:"op_handle"`
}

type AbortOpResponse struct {
	Success bool        `json:"success"`
	Error   *AgentError `json:"error,omitempty"`
}
