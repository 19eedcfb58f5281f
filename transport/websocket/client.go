package websocket

import (
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/gorilla/websocket"

	"fourwins/game/lobby"
	"fourwins/game/registry"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 1024
)

// Client -> server methods.
const (
	MethodDelegateChallenge        = "DelegateChallenge"
	MethodForwardChallengeResponse = "ForwardChallengeResponse"
	MethodVerifyPlayer             = "VerifyPlayer"
	MethodPerformGameMove          = "PerformGameMove"
	MethodCloseGame                = "CloseGame"
	MethodLeaveGame                = "LeaveGame"
	MethodAddClientAsSpectator     = "AddClientAsSpectator"
	MethodReconnectPlayer          = "ReconnectPlayer"
)

// Inbound command payloads. The sender's identity always comes from the
// connection, never from the payload.
type verifyRequest struct {
	GameID      string `json:"game_id"`
	AccessToken string `json:"access_token"`
}

type moveRequest struct {
	GameID      string `json:"game_id"`
	AccessToken string `json:"access_token"`
	Column      int    `json:"column"`
}

type gameRequest struct {
	GameID string `json:"game_id"`
}

// Client represents one WebSocket connection owned by a username.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	name string
}

// readPump pumps messages from the WebSocket connection into the
// dispatcher.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregisterClient(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("websocket: read error for %s: %v", c.name, err)
			}
			break
		}

		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil || env.Method == "" {
			c.reportWrongParams("message", err)
			continue
		}
		c.dispatch(env)
	}
}

// dispatch routes one inbound envelope to the right coordinator call.
func (c *Client) dispatch(env Envelope) {
	switch env.Method {
	case MethodDelegateChallenge:
		var p lobby.ChallengeRequest
		if !c.decode(env, &p) {
			return
		}
		// The issuer field in the payload is ignored; the connection is
		// the identity.
		if err := c.hub.lobby.IssueChallenge(c.name, p.Receiver); err != nil {
			c.reportChallengeError(p.Receiver, err)
		}

	case MethodForwardChallengeResponse:
		var p lobby.ChallengeAnswer
		if !c.decode(env, &p) {
			return
		}
		if p.Challenge.Receiver != c.name {
			c.report(env.Method, lobby.ErrChallengeGone)
			return
		}
		key := lobby.ChallengeKey{
			ID:       p.Challenge.ChallengeID,
			Issuer:   p.Challenge.Issuer,
			Receiver: p.Challenge.Receiver,
		}
		c.report(env.Method, c.hub.lobby.RespondToChallenge(key, p.Accepted))

	case MethodVerifyPlayer:
		var p verifyRequest
		if !c.decode(env, &p) {
			return
		}
		c.report(env.Method, c.hub.games.VerifyPlayer(p.GameID, p.AccessToken, c.name))

	case MethodPerformGameMove:
		var p moveRequest
		if !c.decode(env, &p) {
			return
		}
		c.report(env.Method, c.hub.games.MakeMove(p.GameID, p.AccessToken, c.name, p.Column))

	case MethodCloseGame:
		var p verifyRequest
		if !c.decode(env, &p) {
			return
		}
		c.report(env.Method, c.hub.games.CloseGame(p.GameID, p.AccessToken, c.name))

	case MethodLeaveGame:
		var p gameRequest
		if !c.decode(env, &p) {
			return
		}
		c.hub.games.LeaveGame(p.GameID, c.name)

	case MethodAddClientAsSpectator:
		var p gameRequest
		if !c.decode(env, &p) {
			return
		}
		c.report(env.Method, c.hub.games.AddSpectator(p.GameID, c.name))

	case MethodReconnectPlayer:
		var p gameRequest
		if !c.decode(env, &p) {
			return
		}
		c.report(env.Method, c.hub.games.ReconnectPlayer(p.GameID, c.name))

	default:
		c.hub.Send(c.name, MethodWrongParams, lobby.ErrorPayload{
			Message: "unknown method: " + env.Method,
		})
	}
}

// decode unmarshals an envelope payload, answering WrongParams on failure.
func (c *Client) decode(env Envelope, into any) bool {
	if err := json.Unmarshal(env.Payload, into); err != nil {
		c.reportWrongParams(env.Method, err)
		return false
	}
	return true
}

// report answers a failed coordinator call with a Warning. Every error the
// coordinators return here is the caller's own fault; nil errors need no
// acknowledgement because the coordinators already notified whoever the
// outcome concerns.
func (c *Client) report(method string, err error) {
	if err == nil {
		return
	}

	message := err.Error()
	if errors.Is(err, registry.ErrNotFound) {
		message = "unknown game or receiver"
	}

	c.hub.Send(c.name, MethodWarning, lobby.ErrorPayload{Message: message})
	log.Printf("websocket: %s on %s: %v", c.name, method, err)
}

// reportChallengeError answers a failed challenge issuance on the
// challenge-forwarding error callback. The warning channel is for
// protocol-level slips; a challenge that cannot be delivered belongs
// to the same callback a rolled-back handoff uses.
func (c *Client) reportChallengeError(receiver string, err error) {
	message := err.Error()
	if errors.Is(err, registry.ErrNotFound) {
		message = "unknown receiver: " + receiver
	}

	c.hub.Send(c.name, lobby.MethodForwardChallengeError, lobby.ErrorPayload{Message: message})
	log.Printf("websocket: %s could not challenge %s: %v", c.name, receiver, err)
}

func (c *Client) reportWrongParams(method string, err error) {
	c.hub.Send(c.name, MethodWrongParams, lobby.ErrorPayload{
		Message: "malformed " + method + " payload",
	})
	log.Printf("websocket: %s sent malformed %s: %v", c.name, method, err)
}

// writePump pumps messages from the hub to the WebSocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Add queued messages to the current WebSocket message
			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
