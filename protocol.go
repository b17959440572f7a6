package main

import (
	"encoding/json"

	"github.com/vmihailenco/msgpack/v5"
)

// Client -> Server message types
const (
	MsgSelect   = "select"  // choose a machine variant
	MsgStart    = "start"   // deploy / start session
	MsgRestart  = "restart" // restart after death (or mid-run)
	MsgMenu     = "menu"    // return to selection
	MsgPointer  = "pointer" // pointer-move, normalized device coords
	MsgKey      = "key"     // key down/up
	MsgGuest    = "guest"   // play as guest
	MsgRegister = "register"
	MsgLogin    = "login"
	MsgAuth     = "auth" // resume with a token
	MsgScores   = "scores"
)

// Server -> Client message types
const (
	MsgWelcome  = "welcome"
	MsgBridge   = "bridge" // partial snapshot patch (merge semantics)
	MsgRecord   = "record" // new session best score
	MsgScoreTop = "scoretop"
	MsgAuthOK   = "auth_ok"
	MsgError    = "error"
)

// Envelope wraps all outgoing JSON messages with a type field
type Envelope struct {
	T    string      `json:"t"`
	Data interface{} `json:"d,omitempty"`
}

// InEnvelope is used for incoming messages — json.RawMessage avoids double-unmarshal
type InEnvelope struct {
	T string          `json:"t"`
	D json.RawMessage `json:"d,omitempty"`
}

// SelectMsg selects a machine variant by id
type SelectMsg struct {
	ID string `json:"id"`
}

// PointerMsg carries pointer-move coordinates in normalized device
// coordinates, both axes in [-1, 1] with Y up.
type PointerMsg struct {
	NX float64 `json:"nx"`
	NY float64 `json:"ny"`
}

// KeyMsg carries a key transition from the fixed aim mapping
type KeyMsg struct {
	Code string `json:"c"` // KeyW/KeyA/KeyS/KeyD or Arrow*
	Down bool   `json:"d"`
}

// RegisterMsg creates a pilot account
type RegisterMsg struct {
	Username string `json:"u"`
	Password string `json:"p"`
}

// LoginMsg authenticates a pilot
type LoginMsg struct {
	Username string `json:"u"`
	Password string `json:"p"`
}

// AuthMsg resumes a session from a stored token
type AuthMsg struct {
	Token string `json:"tk"`
}

// AuthOKMsg confirms authentication
type AuthOKMsg struct {
	PilotID  int64  `json:"pid"`
	Username string `json:"u"`
	Token    string `json:"tk"`
	Best     int    `json:"best"`
}

// WelcomeMsg is sent on connect with the machine catalog
type WelcomeMsg struct {
	SessionID string        `json:"sid"`
	Machines  []MachineInfo `json:"machines"`
}

// MachineInfo describes one selectable platform for the UI
type MachineInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Barrels     int    `json:"barrels"`
	Description string `json:"desc"`
}

// RecordMsg announces a new session-best score
type RecordMsg struct {
	Score int `json:"score"`
	Wave  int `json:"wave"`
}

// ErrorMsg sends an error to the client
type ErrorMsg struct {
	Msg string `json:"msg"`
}

// ScoreEntry is one leaderboard row
type ScoreEntry struct {
	Rank     int    `json:"rank"`
	Username string `json:"username"`
	Score    int    `json:"score"`
	Wave     int    `json:"wave"`
}

// TurretState is the turret pose part of the binary snapshot
type TurretState struct {
	Yaw     float64 `msgpack:"yw" json:"yw"`
	Pitch   float64 `msgpack:"pt" json:"pt"`
	TargetX float64 `msgpack:"tx" json:"tx"`
	TargetZ float64 `msgpack:"tz" json:"tz"`
}

// BulletState is broadcast per live bullet
type BulletState struct {
	X float64 `msgpack:"x" json:"x"`
	Y float64 `msgpack:"y" json:"y"`
	Z float64 `msgpack:"z" json:"z"`
}

// EnemyState is broadcast per live enemy
type EnemyState struct {
	X  float64 `msgpack:"x" json:"x"`
	Y  float64 `msgpack:"y" json:"y"` // display height, bob included
	Z  float64 `msgpack:"z" json:"z"`
	HP int     `msgpack:"hp" json:"hp"`
}

// PowerUpState is broadcast per live power-up
type PowerUpState struct {
	X    float64 `msgpack:"x" json:"x"`
	Y    float64 `msgpack:"y" json:"y"`
	Z    float64 `msgpack:"z" json:"z"`
	Kind int     `msgpack:"k" json:"k"`
}

// GameSnapshot is the full entity state, msgpack-encoded into binary
// websocket frames at broadcast cadence.
type GameSnapshot struct {
	Tick     uint64         `msgpack:"tk" json:"tk"`
	Turret   TurretState    `msgpack:"t" json:"t"`
	Bullets  []BulletState  `msgpack:"b" json:"b"`
	Enemies  []EnemyState   `msgpack:"e" json:"e"`
	PowerUps []PowerUpState `msgpack:"pw" json:"pw"`
}

// marshalSnapshot encodes the snapshot for a binary websocket frame
func marshalSnapshot(s GameSnapshot) ([]byte, error) {
	return msgpack.Marshal(s)
}
