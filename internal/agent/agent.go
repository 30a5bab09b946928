package agent

import (
	"context"
	"encoding/json"
	"net"
	"sync"
	"time"

	"github.com/0x0FACED/uuid"
	"github.com/0x0FACED/zkm/pkg/core/v1/operation"
	"github.com/0x0FACED/zkm/pkg/zkm"
	"github.com/0x0FACED/zlog"
)

const (
	SocketPath = "/tmp/zkm-agent.sock"

	DefaultSessionTTL = 10 * time.Minute
)

// ProtectedSession binds one unlocked store to one session handle.
// The KEK itself lives in locked memory inside the store session.
type ProtectedSession struct {
	ks         *zkm.KeyStore
	storePath  string
	createdAt  time.Time
	expiresAt  time.Time
	lastAccess time.Time
}

type Agent struct {
	sessions   map[string]*ProtectedSession
	dispatcher *Dispatcher
	log        *zlog.ZerologLogger
	mu         sync.RWMutex
}

func New(logger *zlog.ZerologLogger) *Agent {
	return &Agent{
		sessions:   make(map[string]*ProtectedSession),
		dispatcher: NewDispatcher(),
		log:        logger,
	}
}

func (a *Agent) Start(ctx context.Context) error {
	a.log.Info().Msg("Starting agent listener...")

	li, err := net.ListenUnix("unix", &net.UnixAddr{
		Name: SocketPath,
		Net:  "unix",
	})
	if err != nil {
		a.log.Error().Err(err).Msg("Failed to start agent listener, exiting...")
		return err
	}
	defer li.Close()
	defer a.shutdown()

	a.log.Info().Msg("Starting to accept connections...")
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
			conn, err := li.AcceptUnix()
			if err != nil {
				a.log.Error().Err(err).Msg("Failed to accept connection, continuing...")
				continue
			}

			a.log.Info().Str("remote_addr", conn.RemoteAddr().String()).Msg("New connection accepted")

			go a.processConnection(conn)
		}
	}
}

// shutdown releases every in-flight operation and closes sessions
func (a *Agent) shutdown() {
	a.dispatcher.ReleaseAll()

	a.mu.Lock()
	defer a.mu.Unlock()

	for id, session := range a.sessions {
		session.ks.Close()
		delete(a.sessions, id)
	}
}

func (a *Agent) processConnection(c *net.UnixConn) {
	defer c.Close()

	decoder := json.NewDecoder(c)
	encoder := json.NewEncoder(c)

	var msg IPCMessage
	if err := decoder.Decode(&msg); err != nil {
		return
	}

	a.log.Info().Str("type", msg.Type).Str("store", msg.Meta.StorePath).Msg("Received message")

	switch Command(msg.Type) {
	case CmdCreateSession:
		a.handleCreateSession(msg, encoder)
	case CmdCloseSession:
		a.handleCloseSession(msg, encoder)
	case CmdListSessions:
		a.handleListSessions(msg, encoder)
	case CmdBeginOp:
		a.handleBeginOp(msg, encoder)
	case CmdUpdateOp:
		a.handleUpdateOp(msg, encoder)
	case CmdFinishOp:
		a.handleFinishOp(msg, encoder)
	case CmdAbortOp:
		a.handleAbortOp(msg, encoder)
	default:
		a.handleUnknownCommand(encoder)
	}
}

func (a *Agent) handleCreateSession(msg IPCMessage, encoder *json.Encoder) {
	var req CreateSessionRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		a.log.Error().Err(err).Any("meta", msg.Meta).Msg("Failed to unmarshal CreateSessionRequest")
		a.encode(encoder, CreateSessionResponse{
			Success: false,
			Error:   &AgentError{Message: "Invalid request"},
		})
		return
	}

	ks, err := zkm.Open(msg.Meta.StorePath, req.Password)
	if err != nil {
		a.log.Error().Err(err).Str("store", msg.Meta.StorePath).Msg("Failed to open store")
		a.encode(encoder, CreateSessionResponse{
			Success: false,
			Error:   &AgentError{Message: err.Error()},
		})
		return
	}

	ttl := DefaultSessionTTL
	if req.TTL > 0 {
		ttl = time.Duration(req.TTL) * time.Second
	}

	now := time.Now()
	sessionID := uuid.NewV4().String()

	a.mu.Lock()
	a.sessions[sessionID] = &ProtectedSession{
		ks:         ks,
		storePath:  msg.Meta.StorePath,
		createdAt:  now,
		expiresAt:  now.Add(ttl),
		lastAccess: now,
	}
	a.mu.Unlock()

	a.encode(encoder, CreateSessionResponse{
		Success:   true,
		SessionID: sessionID,
		ExpiresAt: now.Add(ttl).Unix(),
	})
}

func (a *Agent) handleCloseSession(msg IPCMessage, encoder *json.Encoder) {
	var req CloseSessionRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		a.encode(encoder, CloseSessionResponse{
			Success: false,
			Error:   &AgentError{Message: "Invalid request"},
		})
		return
	}

	a.mu.Lock()
	session, ok := a.sessions[req.SessionID]
	if ok {
		delete(a.sessions, req.SessionID)
	}
	a.mu.Unlock()

	if !ok {
		a.encode(encoder, CloseSessionResponse{
			Success: false,
			Error:   &AgentError{Message: "Session not found"},
		})
		return
	}

	session.ks.Close()
	a.encode(encoder, CloseSessionResponse{Success: true})
}

func (a *Agent) handleListSessions(msg IPCMessage, encoder *json.Encoder) {
	a.mu.RLock()
	infos := make([]SessionInfo, 0, len(a.sessions))
	for id, session := range a.sessions {
		infos = append(infos, SessionInfo{
			SessionID: id,
			StorePath: session.storePath,
			ExpiresAt: session.expiresAt.Unix(),
		})
	}
	a.mu.RUnlock()

	a.encode(encoder, ListSessionsResponse{
		Success:  true,
		Sessions: infos,
	})
}

func (a *Agent) handleBeginOp(msg IPCMessage, encoder *json.Encoder) {
	var req BeginOpRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		a.encode(encoder, BeginOpResponse{
			Success: false,
			Error:   &AgentError{Message: "Invalid request"},
		})
		return
	}

	session, err := a.session(req.SessionID)
	if err != nil {
		a.encode(encoder, BeginOpResponse{
			Success: false,
			Error:   &AgentError{Message: err.Error()},
		})
		return
	}

	var purpose operation.Purpose
	switch req.Purpose {
	case "sign":
		purpose = operation.PurposeSign
	case "verify":
		purpose = operation.PurposeVerify
	}

	op, err := session.ks.Dispatch(req.KeyName, purpose, req.TagLength)
	if err != nil {
		a.encode(encoder, BeginOpResponse{
			Success: false,
			Error:   &AgentError{Message: err.Error()},
		})
		return
	}

	// deferred construction errors surface here
	handle, err := a.dispatcher.Begin(op)
	if err != nil {
		a.encode(encoder, BeginOpResponse{
			Success: false,
			Error:   &AgentError{Message: err.Error()},
		})
		return
	}

	a.encode(encoder, BeginOpResponse{
		Success:  true,
		OpHandle: handle,
	})
}

func (a *Agent) handleUpdateOp(msg IPCMessage, encoder *json.Encoder) {
	var req UpdateOpRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		a.encode(encoder, UpdateOpResponse{
			Success: false,
			Error:   &AgentError{Message: "Invalid request"},
		})
		return
	}

	consumed, err := a.dispatcher.Update(req.OpHandle, req.Input)
	if err != nil {
		a.encode(encoder, UpdateOpResponse{
			Success: false,
			Error:   &AgentError{Message: err.Error()},
		})
		return
	}

	a.encode(encoder, UpdateOpResponse{
		Success:  true,
		Consumed: consumed,
	})
}

func (a *Agent) handleFinishOp(msg IPCMessage, encoder *json.Encoder) {
	var req FinishOpRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		a.encode(encoder, FinishOpResponse{
			Success: false,
			Error:   &AgentError{Message: "Invalid request"},
		})
		return
	}

	tag, err := a.dispatcher.Finish(req.OpHandle, req.Signature)
	if err != nil {
		a.encode(encoder, FinishOpResponse{
			Success: false,
			Error:   &AgentError{Message: err.Error()},
		})
		return
	}

	a.encode(encoder, FinishOpResponse{
		Success: true,
		Tag:     tag,
	})
}

func (a *Agent) handleAbortOp(msg IPCMessage, encoder *json.Encoder) {
	var req AbortOpRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		a.encode(encoder, AbortOpResponse{
			Success: false,
			Error:   &AgentError{Message: "Invalid request"},
		})
		return
	}

	if err := a.dispatcher.Abort(req.OpHandle); err != nil {
		a.encode(encoder, AbortOpResponse{
			Success: false,
			Error:   &AgentError{Message: err.Error()},
		})
		return
	}

	a.encode(encoder, AbortOpResponse{Success: true})
}

func (a *Agent) handleUnknownCommand(encoder *json.Encoder) {
	a.encode(encoder, CloseSessionResponse{
		Success: false,
		Error:   &AgentError{Message: "Unknown command"},
	})
}

func (a *Agent) session(id string) (*ProtectedSession, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	session, ok := a.sessions[id]
	if !ok {
		return nil, zkm.ErrNoActiveSession
	}

	if time.Now().After(session.expiresAt) {
		session.ks.Close()
		delete(a.sessions, id)
		return nil, zkm.ErrSessionExpired
	}

	session.lastAccess = time.Now()
	return session, nil
}

func (a *Agent) encode(encoder *json.Encoder, resp any) {
	if err := encoder.Encode(resp); err != nil {
		a.log.Error().Err(err).Msg("Failed to send response")
	}
}
