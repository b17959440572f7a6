package main

import (
	"database/sql"
	"log"
	"sync"
	"sync/atomic"
	"time"
)

// Reward event types persisted to the ledger
const (
	RewardKill       = "kill_reward"
	RewardDeploy     = "deploy_bonus"
	RewardWaveClear  = "wave_clear"
	RewardFinalScore = "final_score"
	RewardNewRecord  = "new_record"
)

// Economy is the external reward collaborator. Every call is
// fire-and-forget: it must never block the game loop, and a failure never
// rolls back simulation state.
type Economy interface {
	GrantTokenBonus(kind string, amount int, wave int)
	RecordKillReward(amount int)
	ReportFinalScore(score, wave, kills int, duration float64, newRecord bool)
}

// RewardEvent is a single ledger entry
type RewardEvent struct {
	Type      string
	PilotID   int64
	SessionID string
	Amount    int
	Wave      int
	Timestamp time.Time
}

// RewardLedger persists reward events with batched background writes,
// decoupling the economy sink from the tick.
type RewardLedger struct {
	db     *DB
	events chan RewardEvent
	runs   chan runRecord
	stop   chan struct{}
	wg     sync.WaitGroup

	// Pilot attribution can change when the client authenticates
	// mid-session, so it is read atomically on the enqueue path.
	pilotID   atomic.Int64
	sessionID string
}

// NewRewardLedger creates and starts the ledger's background writer
func NewRewardLedger(db *DB, pilotID int64, sessionID string) *RewardLedger {
	l := &RewardLedger{
		db:        db,
		events:    make(chan RewardEvent, 1024),
		runs:      make(chan runRecord, 8),
		stop:      make(chan struct{}),
		sessionID: sessionID,
	}
	l.pilotID.Store(pilotID)
	l.wg.Add(1)
	go l.writer()
	return l
}

// SetPilot attributes subsequent events to the authenticated pilot
func (l *RewardLedger) SetPilot(pilotID int64) {
	l.pilotID.Store(pilotID)
}

// Track enqueues an event without blocking; a full channel drops the event
func (l *RewardLedger) Track(evtType string, amount, wave int) {
	select {
	case l.events <- RewardEvent{
		Type:      evtType,
		PilotID:   l.pilotID.Load(),
		SessionID: l.sessionID,
		Amount:    amount,
		Wave:      wave,
		Timestamp: time.Now().UTC(),
	}:
	default:
		// Ledger saturated; drop rather than stall the tick
	}
}

// GrantTokenBonus records a deploy or wave-clear bonus
func (l *RewardLedger) GrantTokenBonus(kind string, amount int, wave int) {
	l.Track(kind, amount, wave)
}

// RecordKillReward records one kill's token reward
func (l *RewardLedger) RecordKillReward(amount int) {
	l.Track(RewardKill, amount, 0)
}

// ReportFinalScore records the end-of-run score and, when it beats the
// session best, the new-record signal. Run history is written on the same
// background path.
func (l *RewardLedger) ReportFinalScore(score, wave, kills int, duration float64, newRecord bool) {
	l.Track(RewardFinalScore, score, wave)
	if newRecord {
		l.Track(RewardNewRecord, score, wave)
	}
	if l.db != nil {
		// Runs are not latency-sensitive; hand them to the writer too.
		ev := RewardEvent{Type: "run", PilotID: l.pilotID.Load(), SessionID: l.sessionID,
			Amount: score, Wave: wave, Timestamp: time.Now().UTC()}
		run := runRecord{ev: ev, kills: kills, duration: duration}
		select {
		case l.runs <- run:
		default:
		}
	}
}

type runRecord struct {
	ev       RewardEvent
	kills    int
	duration float64
}

// Stop flushes and shuts down the background writer
func (l *RewardLedger) Stop() {
	close(l.stop)
	l.wg.Wait()
}

// writer batches events and flushes them to the database
func (l *RewardLedger) writer() {
	defer l.wg.Done()

	batch := make([]RewardEvent, 0, 64)
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case evt := <-l.events:
			batch = append(batch, evt)
			if len(batch) >= 50 {
				l.flush(batch)
				batch = batch[:0]
			}
		case run := <-l.runs:
			l.writeRun(run)
		case <-ticker.C:
			if len(batch) > 0 {
				l.flush(batch)
				batch = batch[:0]
			}
		case <-l.stop:
			// Drain whatever is still queued, then flush once.
			for {
				select {
				case evt := <-l.events:
					batch = append(batch, evt)
				case run := <-l.runs:
					l.writeRun(run)
				default:
					if len(batch) > 0 {
						l.flush(batch)
					}
					return
				}
			}
		}
	}
}

// flush writes a batch of reward events inside one transaction
func (l *RewardLedger) flush(events []RewardEvent) {
	if l.db == nil || len(events) == 0 {
		return
	}
	tx, err := l.db.conn.Begin()
	if err != nil {
		log.Printf("rewards: begin tx error: %v", err)
		return
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO reward_events (event_type, pilot_id, session_id, amount, wave, created_at) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		log.Printf("rewards: prepare error: %v", err)
		return
	}
	defer stmt.Close()

	for _, evt := range events {
		pid := sql.NullInt64{Int64: evt.PilotID, Valid: evt.PilotID > 0}
		if _, err := stmt.Exec(evt.Type, pid, evt.SessionID, evt.Amount, evt.Wave, evt.Timestamp.Format(time.RFC3339)); err != nil {
			log.Printf("rewards: insert error: %v", err)
		}
	}
	tx.Commit()
}

// writeRun persists one completed run and refreshes the pilot's best score
func (l *RewardLedger) writeRun(r runRecord) {
	if l.db == nil {
		return
	}
	if err := l.db.RecordRun(r.ev.PilotID, r.ev.Amount, r.ev.Wave, r.kills, r.duration); err != nil {
		log.Printf("rewards: record run error: %v", err)
	}
}
