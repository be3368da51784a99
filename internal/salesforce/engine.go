package salesforce

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/bettyarega/Flash-CDC/internal/webhook"
	"github.com/bettyarega/Flash-CDC/pkg/logging"
	"github.com/bettyarega/Flash-CDC/pkg/models"
	pb "github.com/bettyarega/Flash-CDC/pkg/proto"
)

const (
	DefaultHeartbeatInterval = 60 * time.Second
	DefaultIdleReset         = 300 * time.Second
	DefaultFilterField       = "FlashField__c"
)

// OffsetSink is the slice of the offset store the engine writes through.
type OffsetSink interface {
	Save(ctx context.Context, clientID int64, topic, replayB64 string, commitMS int64) error
	Clear(ctx context.Context, clientID int64, topic string) error
}

// Poster delivers one webhook envelope and reports the final HTTP status.
type Poster interface {
	Post(ctx context.Context, url string, envelope webhook.Envelope) int
}

// Hooks feed engine activity back into the listener's status snapshot.
// All fields are optional.
type Hooks struct {
	Beat            func()
	EventReceived   func(commitMS int64)
	WebhookStatus   func(status int)
	SchemaResolved  func(schemaID string)
	ReplayAdvanced  func(replayB64 string)
	ProcessingError func(err error)
}

func (h Hooks) beat() {
	if h.Beat != nil {
		h.Beat()
	}
}

func (h Hooks) eventReceived(commitMS int64) {
	if h.EventReceived != nil {
		h.EventReceived(commitMS)
	}
}

func (h Hooks) webhookStatus(status int) {
	if h.WebhookStatus != nil {
		h.WebhookStatus(status)
	}
}

func (h Hooks) schemaResolved(schemaID string) {
	if h.SchemaResolved != nil {
		h.SchemaResolved(schemaID)
	}
}

func (h Hooks) replayAdvanced(replayB64 string) {
	if h.ReplayAdvanced != nil {
		h.ReplayAdvanced(replayB64)
	}
}

func (h Hooks) processingError(err error) {
	if h.ProcessingError != nil {
		h.ProcessingError(err)
	}
}

// EngineConfig is one run's worth of inputs: the client snapshot, the
// resolved session, and where to start.
type EngineConfig struct {
	Client      models.Client
	AccessToken string
	InstanceURL string
	TenantID    string
	Start       ReplayStart

	FilterField       string
	HeartbeatInterval time.Duration
	IdleReset         time.Duration
	FailFastNotFound  bool
	FailFastAuth      bool
}

func (c EngineConfig) withDefaults() EngineConfig {
	if c.FilterField == "" {
		c.FilterField = DefaultFilterField
	}
	if c.HeartbeatInterval <= 0 {
		c.HeartbeatInterval = DefaultHeartbeatInterval
	}
	if c.IdleReset <= 0 {
		c.IdleReset = DefaultIdleReset
	}
	if c.Client.FlowBatchSize <= 0 {
		c.Client.FlowBatchSize = 100
	}
	return c
}

// Engine runs one bidirectional subscription: preflight, credit flow,
// heartbeat, idle watchdog, and the per-event pipeline.
type Engine struct {
	cfg        EngineConfig
	pub        pb.PubSubClient
	schemas    *SchemaCache
	offsets    OffsetSink
	dispatcher Poster
	hooks      Hooks
	logger     logging.Logger

	lastRx  atomic.Int64 // unix nanos of the last inbound message
	credits chan int32
}

func NewEngine(cfg EngineConfig, pub pb.PubSubClient, schemas *SchemaCache, offsets OffsetSink, dispatcher Poster, hooks Hooks, logger logging.Logger) *Engine {
	return &Engine{
		cfg:        cfg.withDefaults(),
		pub:        pub,
		schemas:    schemas,
		offsets:    offsets,
		dispatcher: dispatcher,
		hooks:      hooks,
		logger:     logger,
		credits:    make(chan int32, 8),
	}
}

// Run blocks until the context is cancelled or the stream fails. Clean stop
// returns nil; broker rejection of the resume cursor returns
// InvalidReplayError after clearing the stored offset; misconfiguration
// returns FatalConfigError; everything else is transient.
func (e *Engine) Run(ctx context.Context) error {
	ctx = SessionContext(ctx, Session{
		AccessToken: e.cfg.AccessToken,
		InstanceURL: e.cfg.InstanceURL,
		TenantID:    e.cfg.TenantID,
	})

	topic, err := e.pub.GetTopic(ctx, &pb.TopicRequest{TopicName: e.cfg.Client.TopicName})
	if err != nil {
		return classifyRPC(err, "GetTopic", e.cfg.FailFastNotFound, e.cfg.FailFastAuth)
	}
	if topic.GetSchemaId() == "" {
		return fatalf("topic %s has no schema id", e.cfg.Client.TopicName)
	}
	e.hooks.schemaResolved(topic.GetSchemaId())
	if err := e.schemas.Warm(ctx, topic.GetSchemaId()); err != nil {
		e.logger.WithError(err).Warn("Schema warm-up failed; will retry per event")
	}

	streamCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	stream, err := e.pub.Subscribe(streamCtx)
	if err != nil {
		return classifyRPC(err, "Subscribe", e.cfg.FailFastNotFound, e.cfg.FailFastAuth)
	}

	e.logger.WithFields(logging.Fields{
		"client_id":    e.cfg.Client.ID,
		"topic":        e.cfg.Client.TopicName,
		"replay_start": e.cfg.Start.Describe(),
		"batch_size":   e.cfg.Client.FlowBatchSize,
	}).Info("Subscription opened")

	e.lastRx.Store(time.Now().UnixNano())
	g, gCtx := errgroup.WithContext(streamCtx)

	g.Go(func() error { return e.sendLoop(gCtx, stream) })
	g.Go(func() error { return e.heartbeatLoop(gCtx) })
	g.Go(func() error { return e.watchdogLoop(gCtx) })
	g.Go(func() error { return e.recvLoop(gCtx, stream) })

	err = g.Wait()
	if ctx.Err() != nil {
		return nil
	}
	return err
}

// sendLoop issues the opening fetch request, then forwards credit refills.
func (e *Engine) sendLoop(ctx context.Context, stream pb.PubSub_SubscribeClient) error {
	first := &pb.FetchRequest{
		TopicName:    e.cfg.Client.TopicName,
		ReplayPreset: e.cfg.Start.Preset,
		NumRequested: e.cfg.Client.FlowBatchSize,
	}
	if e.cfg.Start.Preset == pb.ReplayPreset_CUSTOM {
		first.ReplayId = e.cfg.Start.ReplayID
	}
	if err := stream.Send(first); err != nil {
		return fmt.Errorf("send initial fetch request: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			_ = stream.CloseSend()
			return ctx.Err()
		case n := <-e.credits:
			req := &pb.FetchRequest{
				TopicName:    e.cfg.Client.TopicName,
				NumRequested: n,
			}
			if err := stream.Send(req); err != nil {
				return fmt.Errorf("send credit refill: %w", err)
			}
		}
	}
}

func (e *Engine) refillCredit() {
	select {
	case e.credits <- e.cfg.Client.FlowBatchSize:
	default:
		// A refill is already queued; the broker tracks outstanding credit.
	}
}

func (e *Engine) heartbeatLoop(ctx context.Context) error {
	ticker := time.NewTicker(e.cfg.HeartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			e.refillCredit()
			e.logger.WithField("client_id", e.cfg.Client.ID).Debug("Heartbeat credit issued")
		}
	}
}

func (e *Engine) watchdogLoop(ctx context.Context) error {
	interval := e.cfg.HeartbeatInterval
	if interval < 30*time.Second {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if idle := time.Since(time.Unix(0, e.lastRx.Load())); idle > e.cfg.IdleReset {
				e.logger.WithFields(logging.Fields{
					"client_id": e.cfg.Client.ID,
					"idle":      idle.String(),
				}).Warn("Stream idle past reset window")
				return ErrIdleTimeout
			}
		}
	}
}

func (e *Engine) recvLoop(ctx context.Context, stream pb.PubSub_SubscribeClient) error {
	for {
		resp, err := stream.Recv()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if IsInvalidReplay(err) {
				if clearErr := e.offsets.Clear(ctx, e.cfg.Client.ID, e.cfg.Client.TopicName); clearErr != nil {
					e.logger.WithError(clearErr).Warn("Could not clear rejected replay cursor")
				}
				return &InvalidReplayError{Detail: err.Error()}
			}
			return fmt.Errorf("subscribe stream: %w", err)
		}

		e.lastRx.Store(time.Now().UnixNano())
		e.hooks.beat()

		events := resp.GetEvents()
		if len(events) == 0 {
			e.refillCredit()
			continue
		}
		for _, ev := range events {
			if err := e.processEvent(ctx, ev); err != nil {
				e.hooks.processingError(err)
				e.logger.WithError(err).WithField("client_id", e.cfg.Client.ID).Error("Event processing failed; skipping event")
			}
		}
		e.refillCredit()
	}
}

func (e *Engine) processEvent(ctx context.Context, ev *pb.ConsumerEvent) error {
	schemaID := ev.GetEvent().GetSchemaId()
	replayB64 := base64.StdEncoding.EncodeToString(ev.GetReplayId())

	decoded, err := e.schemas.Decode(ctx, schemaID, ev.GetEvent().GetPayload())
	if err != nil {
		return err
	}

	header, _ := unwrapUnion(decoded["ChangeEventHeader"]).(map[string]interface{})
	if header == nil {
		return fmt.Errorf("event %s has no ChangeEventHeader", replayB64)
	}
	commitMS := normalizeCommitMS(toInt64(unwrapUnion(header["commitTimestamp"])))
	recordIDs := toStringSlice(unwrapUnion(header["recordIds"]))

	e.hooks.eventReceived(commitMS)

	// Backfill tail for "since" mode: move the cursor but deliver nothing.
	if e.cfg.Start.DropBeforeMS > 0 && commitMS < e.cfg.Start.DropBeforeMS {
		e.commit(ctx, replayB64, commitMS)
		return nil
	}

	dispatch := e.selectRecords(recordIDs, decoded)

	attempted := len(dispatch) > 0
	allOK := true
	for _, recordID := range dispatch {
		envelope := webhook.Envelope{
			ClientID: e.cfg.Client.ID,
			Topic:    e.cfg.Client.TopicName,
			SchemaID: schemaID,
			RecordID: recordID,
			Decoded:  narrowToRecord(decoded, recordID),
		}
		status := e.dispatcher.Post(ctx, e.cfg.Client.WebhookURL, envelope)
		e.hooks.webhookStatus(status)
		if status < 200 || status >= 300 {
			allOK = false
		}
	}

	// Advance only when nothing was attempted or everything landed. A
	// partial failure keeps the cursor behind so the broker re-delivers
	// the whole event.
	if !attempted || allOK {
		e.commit(ctx, replayB64, commitMS)
	}
	return nil
}

func (e *Engine) commit(ctx context.Context, replayB64 string, commitMS int64) {
	if err := e.offsets.Save(ctx, e.cfg.Client.ID, e.cfg.Client.TopicName, replayB64, commitMS); err != nil {
		e.logger.WithError(err).Warn("Offset save failed")
		return
	}
	e.hooks.replayAdvanced(replayB64)
}

// selectRecords returns the record ids whose filter value normalizes to
// true. The filter field may be a scalar applying to every record or a list
// aligned with recordIds.
func (e *Engine) selectRecords(recordIDs []string, decoded map[string]interface{}) []string {
	raw := unwrapUnion(decoded[e.cfg.FilterField])

	var out []string
	if list, ok := raw.([]interface{}); ok {
		for i, id := range recordIDs {
			var v interface{}
			if i < len(list) {
				v = unwrapUnion(list[i])
			}
			if e.filterTrue(v) {
				out = append(out, id)
			}
		}
		return out
	}
	if !e.filterTrue(raw) {
		return nil
	}
	return append(out, recordIDs...)
}

// filterTrue coerces the tenant filter field to a tri-valued boolean and
// reports whether it is exactly true. Missing or null means undefined, which
// never dispatches.
func (e *Engine) filterTrue(v interface{}) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "true", "1", "yes", "y":
			return true
		case "false", "0", "no", "n", "":
			return false
		default:
			e.logger.WithField("value", t).Warn("Unrecognized filter string; using truthiness")
			return true
		}
	case int, int32, int64, float32, float64:
		e.logger.WithField("value", t).Warn("Numeric filter value; using truthiness")
		return toInt64(t) != 0
	default:
		e.logger.WithField("type", fmt.Sprintf("%T", v)).Warn("Unexpected filter type; using truthiness")
		return true
	}
}

// narrowToRecord deep-copies the decoded event and rewrites the header's
// recordIds to just the one record this envelope is for.
func narrowToRecord(decoded map[string]interface{}, recordID string) map[string]interface{} {
	out := copyTree(decoded).(map[string]interface{})
	if header, ok := out["ChangeEventHeader"].(map[string]interface{}); ok {
		header["recordIds"] = []interface{}{recordID}
	}
	return out
}

func copyTree(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, inner := range t {
			out[k] = copyTree(inner)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, inner := range t {
			out[i] = copyTree(inner)
		}
		return out
	case []byte:
		out := make([]byte, len(t))
		copy(out, t)
		return out
	default:
		return v
	}
}

// normalizeCommitMS detects the broker timestamp unit heuristically and
// converts to milliseconds. Values too small to be a real epoch pass
// through unchanged.
func normalizeCommitMS(v int64) int64 {
	switch {
	case v > 1e14:
		return v / 1e6
	case v > 1e11:
		return v
	case v > 1e9:
		return v * 1000
	default:
		return v
	}
}

func toInt64(v interface{}) int64 {
	switch t := v.(type) {
	case int64:
		return t
	case int32:
		return int64(t)
	case int:
		return int64(t)
	case float64:
		return int64(t)
	case float32:
		return int64(t)
	default:
		return 0
	}
}

func toStringSlice(v interface{}) []string {
	list, ok := v.([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		if s, ok := unwrapUnion(item).(string); ok {
			out = append(out, s)
		}
	}
	return out
}
