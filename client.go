package main

import (
	"encoding/json"
	"log"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait         = 10 * time.Second
	pongWait          = 60 * time.Second
	pingPeriod        = (pongWait * 9) / 10
	maxMessageSize    = 4096
	sendBufSize       = 256
	maxMessagesPerSec = 120 // pointer-move streams at display rate
)

// Client represents one pilot's WebSocket connection and arena
type Client struct {
	hub        *Hub
	conn       *websocket.Conn
	send       chan []byte
	sessionID  string
	session    *Session
	remoteAddr string
	msgCount   int
	msgResetAt time.Time
	// Auth state
	authPilotID  int64  // 0 = unauthenticated
	authUsername string // "" = unauthenticated
}

// NewClient creates a new Client
func NewClient(hub *Hub, conn *websocket.Conn, remoteAddr string) *Client {
	return &Client{
		hub:        hub,
		conn:       conn,
		send:       make(chan []byte, sendBufSize),
		remoteAddr: remoteAddr,
	}
}

// AttachSession binds the client to its arena: the game broadcasts entity
// snapshots here, and the bridge replays its merged state on subscribe.
func (c *Client) AttachSession(sess *Session) {
	c.session = sess
	c.sessionID = sess.ID
	sess.Game.SetBroadcaster(c)
	sess.Game.Bridge().Subscribe(c)
}

// ReadPump reads messages from the WebSocket connection
func (c *Client) ReadPump() {
	defer func() {
		c.hub.TrackDisconnect(c.remoteAddr)
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("ws error: %v", err)
			}
			break
		}

		// Rate limiting
		now := time.Now()
		if now.After(c.msgResetAt) {
			c.msgCount = 0
			c.msgResetAt = now.Add(time.Second)
		}
		c.msgCount++
		if c.msgCount > maxMessagesPerSec {
			log.Printf("rate limit exceeded for %s, disconnecting", c.remoteAddr)
			break
		}

		c.handleMessage(message)
	}
}

// WritePump writes messages to the WebSocket connection
func (c *Client) WritePump() {
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
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			// 0xFF prefix marks a binary frame (msgpack snapshot)
			var err error
			if len(message) > 0 && message[0] == 0xFF {
				err = c.conn.WriteMessage(websocket.BinaryMessage, message[1:])
			} else {
				err = c.conn.WriteMessage(websocket.TextMessage, message)
			}
			if err != nil {
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

// SendJSON sends a JSON message to the client
func (c *Client) SendJSON(msg interface{}) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("marshal error: %v", err)
		return
	}
	c.SendRaw(data)
}

// SendRaw sends pre-marshaled bytes as a text message to the client
func (c *Client) SendRaw(data []byte) {
	defer func() { recover() }()
	select {
	case c.send <- data:
	default:
		// Client too slow, drop message
	}
}

// SendBinary sends pre-marshaled bytes as a binary WebSocket message.
// Prefixes with 0xFF marker byte so WritePump can distinguish from text.
func (c *Client) SendBinary(data []byte) {
	defer func() { recover() }()
	msg := make([]byte, len(data)+1)
	msg[0] = 0xFF
	copy(msg[1:], data)
	select {
	case c.send <- msg:
	default:
	}
}

// PushBridge implements BridgeSink: simulation state patches go out as
// bridge envelopes the overlay merges into its local copy.
func (c *Client) PushBridge(p BridgePatch) {
	c.SendJSON(Envelope{T: MsgBridge, Data: p})
}

// handleMessage routes incoming messages (single-pass decode via InEnvelope)
func (c *Client) handleMessage(raw []byte) {
	var env InEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		log.Printf("unmarshal error: %v", err)
		return
	}

	switch env.T {
	case MsgSelect:
		c.handleSelect(env.D)
	case MsgStart:
		c.session.Game.StartSession()
	case MsgRestart:
		c.session.Game.Restart()
	case MsgMenu:
		c.session.Game.ReturnToMenu()
	case MsgPointer:
		c.handlePointer(env.D)
	case MsgKey:
		c.handleKey(env.D)
	case MsgGuest:
		c.handleGuest()
	case MsgRegister:
		c.handleRegister(env.D)
	case MsgLogin:
		c.handleLogin(env.D)
	case MsgAuth:
		c.handleAuth(env.D)
	case MsgScores:
		c.handleScores()
	}
}

func (c *Client) handleSelect(data json.RawMessage) {
	var msg SelectMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	if !c.session.Game.SelectMachine(msg.ID) {
		c.SendJSON(Envelope{T: MsgError, Data: ErrorMsg{Msg: "unknown machine"}})
	}
}

func (c *Client) handlePointer(data json.RawMessage) {
	var msg PointerMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	c.session.Game.PointerMove(Clamp(msg.NX, -1, 1), Clamp(msg.NY, -1, 1))
}

func (c *Client) handleKey(data json.RawMessage) {
	var msg KeyMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	c.session.Game.SetKey(msg.Code, msg.Down)
}

func (c *Client) handleGuest() {
	if c.hub.db == nil {
		return
	}
	name := GenerateGuestName()
	id, err := c.hub.db.CreateGuest(name)
	if err != nil {
		log.Printf("guest create error: %v", err)
		c.SendJSON(Envelope{T: MsgError, Data: ErrorMsg{Msg: "could not create guest"}})
		return
	}
	c.finishAuth(id, name)
}

func (c *Client) handleRegister(data json.RawMessage) {
	var msg RegisterMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	id, _, err := c.hub.auth.Register(msg.Username, msg.Password)
	if err != nil {
		c.SendJSON(Envelope{T: MsgError, Data: ErrorMsg{Msg: err.Error()}})
		return
	}
	c.finishAuth(id, msg.Username)
}

func (c *Client) handleLogin(data json.RawMessage) {
	var msg LoginMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	id, _, err := c.hub.auth.Login(msg.Username, msg.Password, c.remoteAddr)
	if err != nil {
		c.SendJSON(Envelope{T: MsgError, Data: ErrorMsg{Msg: err.Error()}})
		return
	}
	c.finishAuth(id, msg.Username)
}

func (c *Client) handleAuth(data json.RawMessage) {
	var msg AuthMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	id, username, err := c.hub.auth.ValidateToken(msg.Token)
	if err != nil {
		c.SendJSON(Envelope{T: MsgError, Data: ErrorMsg{Msg: "invalid token"}})
		return
	}
	c.finishAuth(id, username)
}

// finishAuth binds the pilot to the session and acknowledges with a fresh
// token and the persisted best score.
func (c *Client) finishAuth(pilotID int64, username string) {
	c.authPilotID = pilotID
	c.authUsername = username
	c.session.Ledger.SetPilot(pilotID)

	token, err := c.hub.auth.generateToken(pilotID, username)
	if err != nil {
		log.Printf("token error: %v", err)
		return
	}
	best := 0
	if c.hub.db != nil {
		if b, err := c.hub.db.BestScore(pilotID); err == nil {
			best = b
		}
	}
	c.SendJSON(Envelope{T: MsgAuthOK, Data: AuthOKMsg{
		PilotID: pilotID, Username: username, Token: token, Best: best,
	}})
}

func (c *Client) handleScores() {
	if c.hub.db == nil {
		return
	}
	entries, err := c.hub.db.GetLeaderboard(10)
	if err != nil {
		log.Printf("leaderboard error: %v", err)
		return
	}
	c.SendJSON(Envelope{T: MsgScoreTop, Data: entries})
}
