package listener

import (
	"sync"
	"time"

	"github.com/bettyarega/Flash-CDC/internal/salesforce"
	"github.com/bettyarega/Flash-CDC/pkg/models"
)

// State is the mutable per-listener status record. All mutation goes through
// methods so concurrent readers always see a consistent snapshot.
type State struct {
	mu sync.Mutex
	s  models.ListenerStatus
}

func NewState(clientID int64, topic string) *State {
	return &State{s: models.ListenerStatus{
		ClientID: clientID,
		Topic:    topic,
		Status:   models.StatusStopped,
	}}
}

// Snapshot returns a copy safe to serialize.
func (st *State) Snapshot() models.ListenerStatus {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.s
}

func (st *State) SetTopic(topic string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.s.Topic = topic
}

func (st *State) SetStatus(status string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.s.Status = status
	st.s.Running = status == models.StatusRunning || status == models.StatusStarting
	if status == models.StatusRunning && st.s.StartedAt == nil {
		now := time.Now()
		st.s.StartedAt = &now
	}
	if status == models.StatusStopped || status == models.StatusError {
		st.s.StartedAt = nil
	}
}

func (st *State) Status() string {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.s.Status
}

func (st *State) SetError(msg string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.s.LastError = msg
}

func (st *State) IncrFail() {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.s.FailCount++
}

// ResetRun clears the failure bookkeeping at the start of a supervisor run.
func (st *State) ResetRun() {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.s.LastError = ""
	st.s.FailCount = 0
}

func (st *State) SetReplayStart(desc string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.s.ReplayStart = desc
}

// Hooks adapts the state record to the stream engine's callback surface.
func (st *State) Hooks() salesforce.Hooks {
	return salesforce.Hooks{
		Beat: func() {
			now := time.Now()
			st.mu.Lock()
			st.s.LastBeat = &now
			st.mu.Unlock()
		},
		EventReceived: func(commitMS int64) {
			st.mu.Lock()
			st.s.EventsReceived++
			st.s.LastEventAt = commitMS
			st.mu.Unlock()
		},
		WebhookStatus: func(status int) {
			st.mu.Lock()
			st.s.LastWebhookStatus = status
			st.mu.Unlock()
		},
		SchemaResolved: func(schemaID string) {
			st.mu.Lock()
			st.s.SchemaID = schemaID
			st.mu.Unlock()
		},
		ReplayAdvanced: func(replayB64 string) {
			st.mu.Lock()
			st.s.LastReplayB64 = replayB64
			st.mu.Unlock()
		},
		ProcessingError: func(err error) {
			st.mu.Lock()
			st.s.LastError = err.Error()
			st.mu.Unlock()
		},
	}
}
