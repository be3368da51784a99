package listener

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/bettyarega/Flash-CDC/pkg/logging"
	"github.com/bettyarega/Flash-CDC/pkg/models"
)

var (
	ErrClientNotFound = errors.New("client not found")
	ErrClientInactive = errors.New("client is not active")
)

// Manager is the process-wide registry of listener supervisors. All
// lifecycle mutations are serialized behind one mutex; status reads only
// hold it long enough to snapshot.
type Manager struct {
	clients  ClientSource
	offsets  OffsetStore
	notifier ErrorNotifier
	runner   Runner
	logger   logging.Logger

	mu          sync.Mutex
	supervisors map[int64]*Supervisor
}

func NewManager(clients ClientSource, offsets OffsetStore, notifier ErrorNotifier, runner Runner, logger logging.Logger) *Manager {
	return &Manager{
		clients:     clients,
		offsets:     offsets,
		notifier:    notifier,
		runner:      runner,
		logger:      logger,
		supervisors: make(map[int64]*Supervisor),
	}
}

// Start launches (or re-arms) the supervisor for a client. Idempotent: a
// second start of a running listener only updates the replay hint.
func (m *Manager) Start(ctx context.Context, clientID int64, hint *models.ReplayHint) error {
	client, err := m.clients.GetClient(ctx, clientID)
	if err != nil {
		return fmt.Errorf("start listener %d: %w", clientID, err)
	}
	if client == nil {
		return fmt.Errorf("client %d: %w", clientID, ErrClientNotFound)
	}
	if !client.IsActive {
		return fmt.Errorf("client %d: %w", clientID, ErrClientInactive)
	}

	m.mu.Lock()
	sup, ok := m.supervisors[clientID]
	if !ok {
		sup = NewSupervisor(clientID, m.clients, m.offsets, m.notifier, m.runner, m.logger)
		m.supervisors[clientID] = sup
	}
	m.mu.Unlock()

	if sup.Start(hint) {
		m.logger.WithField("client_id", clientID).Info("Listener started")
	} else {
		m.logger.WithField("client_id", clientID).Info("Listener already running; replay hint updated")
	}
	return nil
}

// Stop shuts a listener down, tolerating ids it has never seen.
func (m *Manager) Stop(clientID int64) models.ListenerStatus {
	m.mu.Lock()
	sup, ok := m.supervisors[clientID]
	m.mu.Unlock()
	if !ok {
		return models.ListenerStatus{ClientID: clientID, Status: models.StatusStopped}
	}
	sup.Stop(stopJoin)
	m.logger.WithField("client_id", clientID).Info("Listener stopped")
	return sup.Snapshot()
}

// Restart is stop followed by start; the hint applies to the new run.
func (m *Manager) Restart(ctx context.Context, clientID int64, hint *models.ReplayHint) error {
	m.Stop(clientID)
	return m.Start(ctx, clientID, hint)
}

// Status returns one listener's snapshot.
func (m *Manager) Status(clientID int64) (models.ListenerStatus, bool) {
	m.mu.Lock()
	sup, ok := m.supervisors[clientID]
	m.mu.Unlock()
	if !ok {
		return models.ListenerStatus{ClientID: clientID, Status: models.StatusStopped}, false
	}
	return sup.Snapshot(), true
}

// StatusAll snapshots every known listener, ordered by client id.
func (m *Manager) StatusAll() []models.ListenerStatus {
	m.mu.Lock()
	sups := make([]*Supervisor, 0, len(m.supervisors))
	for _, sup := range m.supervisors {
		sups = append(sups, sup)
	}
	m.mu.Unlock()

	out := make([]models.ListenerStatus, 0, len(sups))
	for _, sup := range sups {
		out = append(out, sup.Snapshot())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ClientID < out[j].ClientID })
	return out
}

// ErroredCount reports how many listeners sit in the error state. Feeds the
// health endpoint.
func (m *Manager) ErroredCount() int {
	count := 0
	for _, s := range m.StatusAll() {
		if s.Status == models.StatusError {
			count++
		}
	}
	return count
}

// AutostartActive starts every active client and returns how many launched.
func (m *Manager) AutostartActive(ctx context.Context) (int, error) {
	clients, err := m.clients.ListActiveClients(ctx)
	if err != nil {
		return 0, fmt.Errorf("autostart: %w", err)
	}
	started := 0
	for _, client := range clients {
		if err := m.Start(ctx, client.ID, nil); err != nil {
			m.logger.WithError(err).WithField("client_id", client.ID).Error("Autostart failed for client")
			continue
		}
		started++
	}
	m.logger.WithField("count", started).Info("Autostart complete")
	return started, nil
}

// StopAll shuts every listener down, used on process shutdown.
func (m *Manager) StopAll(timeout time.Duration) {
	m.mu.Lock()
	sups := make([]*Supervisor, 0, len(m.supervisors))
	for _, sup := range m.supervisors {
		sups = append(sups, sup)
	}
	m.mu.Unlock()

	var wg sync.WaitGroup
	for _, sup := range sups {
		wg.Add(1)
		go func(s *Supervisor) {
			defer wg.Done()
			s.Stop(timeout)
		}(sup)
	}
	wg.Wait()
}
