package listener

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/bettyarega/Flash-CDC/internal/salesforce"
	"github.com/bettyarega/Flash-CDC/pkg/logging"
	"github.com/bettyarega/Flash-CDC/pkg/models"
)

const (
	initialBackoff = 1 * time.Second
	maxBackoff     = 60 * time.Second
	stopJoin       = 10 * time.Second
)

// ClientSource reads tenant configurations.
type ClientSource interface {
	GetClient(ctx context.Context, clientID int64) (*models.Client, error)
	ListActiveClients(ctx context.Context) ([]models.Client, error)
}

// OffsetStore is the cursor persistence the supervisor and engine share.
type OffsetStore interface {
	Load(ctx context.Context, clientID int64, topic string) (string, error)
	Save(ctx context.Context, clientID int64, topic, replayB64 string, commitMS int64) error
	Clear(ctx context.Context, clientID int64, topic string) error
}

// ErrorNotifier is the out-of-band channel for fatal listener failures.
type ErrorNotifier interface {
	ListenerError(ctx context.Context, clientID int64, clientName, topic, reason string)
}

// Runner executes one stream-engine run for a client, blocking until the
// stream ends. Production wiring authenticates, dials the broker and runs
// the engine; tests inject their own.
type Runner func(ctx context.Context, client models.Client, start salesforce.ReplayStart, state *State) error

// Supervisor owns one client's listener lifecycle: it reloads config and
// cursor per connection, classifies failures, and reconnects with backoff.
type Supervisor struct {
	clientID int64
	clients  ClientSource
	offsets  OffsetStore
	notifier ErrorNotifier
	runner   Runner
	state    *State
	logger   *logrus.Entry

	mu       sync.Mutex
	hint     *models.ReplayHint
	cancel   context.CancelFunc
	done     chan struct{}
	notified bool
}

func NewSupervisor(clientID int64, clients ClientSource, offsets OffsetStore, notifier ErrorNotifier, runner Runner, logger logging.Logger) *Supervisor {
	return &Supervisor{
		clientID: clientID,
		clients:  clients,
		offsets:  offsets,
		notifier: notifier,
		runner:   runner,
		state:    NewState(clientID, ""),
		logger:   logger.WithField("client_id", clientID),
	}
}

// Snapshot returns the current status copy.
func (s *Supervisor) Snapshot() models.ListenerStatus {
	return s.state.Snapshot()
}

// Running reports whether the supervisor loop is alive.
func (s *Supervisor) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done != nil
}

// SetHint stores the replay override for the next (re)connection.
func (s *Supervisor) SetHint(hint *models.ReplayHint) {
	s.mu.Lock()
	s.hint = hint
	s.mu.Unlock()
}

// takeHint consumes the one-shot replay override.
func (s *Supervisor) takeHint() *models.ReplayHint {
	s.mu.Lock()
	defer s.mu.Unlock()
	h := s.hint
	s.hint = nil
	return h
}

// Start launches the supervisor loop. Returns false when already running.
func (s *Supervisor) Start(hint *models.ReplayHint) bool {
	s.mu.Lock()
	if s.done != nil {
		s.hint = hint
		s.mu.Unlock()
		return false
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})
	s.hint = hint
	s.notified = false
	done := s.done
	s.mu.Unlock()

	go func() {
		defer func() {
			s.mu.Lock()
			s.cancel = nil
			s.done = nil
			s.mu.Unlock()
			close(done)
		}()
		s.run(ctx)
	}()
	return true
}

// Stop cancels the loop and joins it, waiting up to the stop timeout.
func (s *Supervisor) Stop(timeout time.Duration) {
	s.mu.Lock()
	cancel := s.cancel
	done := s.done
	s.mu.Unlock()
	if cancel == nil {
		s.state.SetStatus(models.StatusStopped)
		return
	}

	s.state.SetStatus(models.StatusStopping)
	cancel()
	if timeout <= 0 {
		timeout = stopJoin
	}
	select {
	case <-done:
	case <-time.After(timeout):
		s.logger.Warn("Listener did not stop within the join timeout")
	}
	s.state.SetStatus(models.StatusStopped)
}

func (s *Supervisor) run(ctx context.Context) {
	s.state.SetStatus(models.StatusStarting)

	client, err := s.clients.GetClient(ctx, s.clientID)
	if err != nil {
		s.failFatal(nil, fmt.Sprintf("load client: %v", err))
		return
	}
	if client == nil {
		s.failFatal(nil, "client not found")
		return
	}
	if !client.IsActive {
		s.failFatal(client, "client is not active")
		return
	}

	s.state.SetTopic(client.TopicName)
	s.state.ResetRun()
	backoff := initialBackoff

	for {
		if ctx.Err() != nil {
			s.state.SetStatus(models.StatusStopped)
			return
		}

		// Resume from the last committed position, not the one in memory
		// when this run began.
		stored, err := s.offsets.Load(ctx, client.ID, client.TopicName)
		if err != nil {
			s.logger.WithError(err).Warn("Cursor load failed; starting without one")
			stored = ""
		}
		start, clearStored := salesforce.SelectReplayStart(s.takeHint(), stored, time.Now().UnixMilli())
		if clearStored {
			s.logger.Warn("Stored replay id is not valid base64; clearing")
			if err := s.offsets.Clear(ctx, client.ID, client.TopicName); err != nil {
				s.logger.WithError(err).Warn("Could not clear corrupt cursor")
			}
		}
		s.state.SetReplayStart(start.Describe())
		s.state.SetStatus(models.StatusRunning)

		err = s.runner(ctx, *client, start, s.state)

		if ctx.Err() != nil {
			s.state.SetStatus(models.StatusStopped)
			return
		}

		switch {
		case err == nil:
			s.state.SetStatus(models.StatusStopped)
			return

		case salesforce.IsFatal(err):
			s.failFatal(client, err.Error())
			return

		case salesforce.IsInvalidReplay(err):
			// Cursor already cleared by the engine; reconnect immediately
			// from EARLIEST.
			s.logger.WithError(err).Warn("Replay id rejected; reconnecting from earliest")
			s.state.SetError(err.Error())
			s.state.IncrFail()

		default:
			s.state.SetStatus(models.StatusError)
			s.state.SetError(err.Error())
			s.state.IncrFail()
			s.logger.WithError(err).WithField("backoff", backoff.String()).Warn("Stream failed; reconnecting")
			select {
			case <-ctx.Done():
				s.state.SetStatus(models.StatusStopped)
				return
			case <-time.After(backoff):
			}
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
		}
	}
}

func (s *Supervisor) failFatal(client *models.Client, reason string) {
	s.state.SetStatus(models.StatusError)
	s.state.SetError(reason)
	s.logger.WithField("reason", reason).Error("Listener stopped on fatal error")

	s.mu.Lock()
	alreadyNotified := s.notified
	s.notified = true
	s.mu.Unlock()
	if alreadyNotified || s.notifier == nil {
		return
	}

	name, topic := "", ""
	if client != nil {
		name, topic = client.ClientName, client.TopicName
	}
	// Fresh context: the loop's is usually already cancelled here.
	notifyCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	s.notifier.ListenerError(notifyCtx, s.clientID, name, topic, reason)
}
