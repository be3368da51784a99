package salesforce

import (
	"context"
	"encoding/base64"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/linkedin/goavro/v2"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/bettyarega/Flash-CDC/internal/webhook"
	"github.com/bettyarega/Flash-CDC/pkg/models"
	pb "github.com/bettyarega/Flash-CDC/pkg/proto"
)

const listFilterSchema = `{
	"type": "record",
	"name": "AccountChangeEvent",
	"fields": [
		{"name": "ChangeEventHeader", "type": {
			"type": "record",
			"name": "ChangeEventHeader",
			"fields": [
				{"name": "changeType", "type": "string"},
				{"name": "recordIds", "type": {"type": "array", "items": "string"}},
				{"name": "commitTimestamp", "type": "long"}
			]
		}},
		{"name": "Name", "type": ["null", "string"], "default": null},
		{"name": "FlashField__c", "type": ["null", {"type": "array", "items": "boolean"}], "default": null}
	]
}`

type fakeBroker struct {
	pb.UnimplementedPubSubServer

	schemaJSON string
	topicErr   error
	responses  []*pb.FetchResponse
	streamErr  error

	mu       sync.Mutex
	firstReq *pb.FetchRequest
}

func (b *fakeBroker) GetTopic(ctx context.Context, in *pb.TopicRequest) (*pb.TopicInfo, error) {
	if b.topicErr != nil {
		return nil, b.topicErr
	}
	return &pb.TopicInfo{TopicName: in.GetTopicName(), SchemaId: "schema-1", CanSubscribe: true}, nil
}

func (b *fakeBroker) GetSchema(ctx context.Context, in *pb.SchemaRequest) (*pb.SchemaInfo, error) {
	return &pb.SchemaInfo{SchemaId: in.GetSchemaId(), SchemaJson: b.schemaJSON}, nil
}

func (b *fakeBroker) Subscribe(srv pb.PubSub_SubscribeServer) error {
	req, err := srv.Recv()
	if err != nil {
		return err
	}
	b.mu.Lock()
	b.firstReq = req
	b.mu.Unlock()

	for _, resp := range b.responses {
		if err := srv.Send(resp); err != nil {
			return err
		}
	}
	return b.streamErr
}

func startBroker(t *testing.T, b *fakeBroker) pb.PubSubClient {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	pb.RegisterPubSubServer(srv, b)
	go srv.Serve(lis)
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("dial bufconn: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return pb.NewPubSubClient(conn)
}

type fakeOffsets struct {
	mu      sync.Mutex
	saved   []string
	cleared int
}

func (f *fakeOffsets) Save(ctx context.Context, clientID int64, topic, replayB64 string, commitMS int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved = append(f.saved, replayB64)
	return nil
}

func (f *fakeOffsets) Clear(ctx context.Context, clientID int64, topic string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleared++
	return nil
}

func (f *fakeOffsets) last() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.saved) == 0 {
		return ""
	}
	return f.saved[len(f.saved)-1]
}

type fakePoster struct {
	mu       sync.Mutex
	posts    []webhook.Envelope
	statusOf func(recordID string) int
}

func (f *fakePoster) Post(ctx context.Context, url string, envelope webhook.Envelope) int {
	f.mu.Lock()
	f.posts = append(f.posts, envelope)
	f.mu.Unlock()
	if f.statusOf != nil {
		return f.statusOf(envelope.RecordID)
	}
	return 200
}

func (f *fakePoster) recordIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]string, len(f.posts))
	for i, p := range f.posts {
		ids[i] = p.RecordID
	}
	return ids
}

func encodeListEvent(t *testing.T, commitMS int64, recordIDs []string, filter []bool) []byte {
	t.Helper()
	codec, err := goavro.NewCodec(listFilterSchema)
	if err != nil {
		t.Fatalf("bad test schema: %v", err)
	}
	ids := make([]interface{}, len(recordIDs))
	for i, id := range recordIDs {
		ids[i] = id
	}
	flags := make([]interface{}, len(filter))
	for i, f := range filter {
		flags[i] = f
	}
	payload, err := codec.BinaryFromNative(nil, map[string]interface{}{
		"ChangeEventHeader": map[string]interface{}{
			"changeType":      "UPDATE",
			"recordIds":       ids,
			"commitTimestamp": commitMS,
		},
		"Name":          map[string]interface{}{"string": "Acme"},
		"FlashField__c": map[string]interface{}{"array": flags},
	})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	return payload
}

func fetchResponse(replayID []byte, payloads ...[]byte) *pb.FetchResponse {
	resp := &pb.FetchResponse{LatestReplayId: replayID}
	for _, p := range payloads {
		resp.Events = append(resp.Events, &pb.ConsumerEvent{
			Event:    &pb.ProducerEvent{SchemaId: "schema-1", Payload: p},
			ReplayId: replayID,
		})
	}
	return resp
}

func newTestEngine(t *testing.T, broker *fakeBroker, offsets *fakeOffsets, poster *fakePoster, start ReplayStart) *Engine {
	t.Helper()
	client := startBroker(t, broker)
	cfg := EngineConfig{
		Client: models.Client{
			ID:            7,
			ClientName:    "acme",
			TopicName:     "/data/AccountChangeEvent",
			WebhookURL:    "https://hooks.acme.example/cdc",
			FlowBatchSize: 100,
		},
		AccessToken:      "tok",
		InstanceURL:      "https://acme.my.salesforce.com",
		TenantID:         "00Dxx",
		Start:            start,
		FailFastNotFound: true,
		FailFastAuth:     true,
	}
	schemas := NewSchemaCache(client, testLogger())
	return NewEngine(cfg, client, schemas, offsets, poster, Hooks{}, testLogger())
}

func runEngine(t *testing.T, e *Engine) error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Run(ctx)
}

func TestEngineFiltersAndCommits(t *testing.T) {
	replayID := []byte{0, 0, 9}
	broker := &fakeBroker{
		schemaJSON: listFilterSchema,
		responses: []*pb.FetchResponse{
			fetchResponse(replayID, encodeListEvent(t, 1700000000000, []string{"A", "B"}, []bool{true, false})),
		},
	}
	offsets := &fakeOffsets{}
	poster := &fakePoster{}

	e := newTestEngine(t, broker, offsets, poster, ReplayStart{Preset: pb.ReplayPreset_EARLIEST})
	if err := runEngine(t, e); err == nil {
		t.Fatal("expected transient stream-end error")
	}

	if ids := poster.recordIDs(); len(ids) != 1 || ids[0] != "A" {
		t.Fatalf("expected one post for A, got %v", ids)
	}
	if got := poster.posts[0].Decoded["ChangeEventHeader"].(map[string]interface{})["recordIds"]; len(got.([]interface{})) != 1 {
		t.Fatalf("envelope header must carry a single record id, got %v", got)
	}
	want := base64.StdEncoding.EncodeToString(replayID)
	if offsets.last() != want {
		t.Fatalf("cursor = %q, want %q", offsets.last(), want)
	}
}

func TestEngineWebhookFailureHoldsCursor(t *testing.T) {
	replayID := []byte{0, 0, 10}
	broker := &fakeBroker{
		schemaJSON: listFilterSchema,
		responses: []*pb.FetchResponse{
			fetchResponse(replayID, encodeListEvent(t, 1700000000000, []string{"A", "B"}, []bool{true, true})),
		},
	}
	offsets := &fakeOffsets{}
	poster := &fakePoster{statusOf: func(recordID string) int {
		if recordID == "B" {
			return 500
		}
		return 200
	}}

	e := newTestEngine(t, broker, offsets, poster, ReplayStart{Preset: pb.ReplayPreset_EARLIEST})
	_ = runEngine(t, e)

	if ids := poster.recordIDs(); len(ids) != 2 {
		t.Fatalf("expected both records posted, got %v", ids)
	}
	if offsets.last() != "" {
		t.Fatalf("cursor must not advance on partial failure, got %q", offsets.last())
	}
}

func TestEngineSinceModeSkipsBackfill(t *testing.T) {
	now := time.Now().UnixMilli()
	old := []byte{0, 0, 1}
	fresh := []byte{0, 0, 2}
	broker := &fakeBroker{
		schemaJSON: listFilterSchema,
		responses: []*pb.FetchResponse{
			fetchResponse(old, encodeListEvent(t, now-3_600_000, []string{"OLD"}, []bool{true})),
			fetchResponse(fresh,
				encodeListEvent(t, now-120_000, []string{"MID"}, []bool{true}),
				encodeListEvent(t, now-60_000, []string{"NEW"}, []bool{true})),
		},
	}
	offsets := &fakeOffsets{}
	poster := &fakePoster{}

	start := ReplayStart{Preset: pb.ReplayPreset_EARLIEST, DropBeforeMS: now - 5*60_000}
	e := newTestEngine(t, broker, offsets, poster, start)
	_ = runEngine(t, e)

	ids := poster.recordIDs()
	if len(ids) != 2 || ids[0] != "MID" || ids[1] != "NEW" {
		t.Fatalf("expected MID and NEW dispatched, got %v", ids)
	}
	// The skipped backfill event still moved the cursor.
	if len(offsets.saved) != 3 {
		t.Fatalf("expected 3 cursor writes, got %d", len(offsets.saved))
	}
	if offsets.saved[0] != base64.StdEncoding.EncodeToString(old) {
		t.Fatalf("backfill cursor not advanced: %v", offsets.saved)
	}
}

func TestEngineInvalidReplayClearsCursor(t *testing.T) {
	broker := &fakeBroker{
		schemaJSON: listFilterSchema,
		streamErr:  status.Error(codes.InvalidArgument, "replay id validation failed: invalid replay id"),
	}
	offsets := &fakeOffsets{}
	poster := &fakePoster{}

	e := newTestEngine(t, broker, offsets, poster, ReplayStart{Preset: pb.ReplayPreset_CUSTOM, ReplayID: []byte{9, 9}})
	err := runEngine(t, e)
	if !IsInvalidReplay(err) {
		t.Fatalf("expected invalid-replay error, got %v", err)
	}
	if offsets.cleared != 1 {
		t.Fatalf("stored cursor should be cleared once, got %d", offsets.cleared)
	}
}

func TestEngineTopicNotFoundIsFatal(t *testing.T) {
	broker := &fakeBroker{
		schemaJSON: listFilterSchema,
		topicErr:   status.Error(codes.NotFound, "no such topic"),
	}
	e := newTestEngine(t, broker, &fakeOffsets{}, &fakePoster{}, ReplayStart{})
	if err := runEngine(t, e); !IsFatal(err) {
		t.Fatalf("expected fatal error, got %v", err)
	}
}

func TestEngineFirstRequestCarriesReplayStart(t *testing.T) {
	replay := []byte{1, 2, 3}
	broker := &fakeBroker{schemaJSON: listFilterSchema}
	e := newTestEngine(t, broker, &fakeOffsets{}, &fakePoster{}, ReplayStart{Preset: pb.ReplayPreset_CUSTOM, ReplayID: replay})
	_ = runEngine(t, e)

	broker.mu.Lock()
	first := broker.firstReq
	broker.mu.Unlock()
	if first == nil {
		t.Fatal("broker never saw the opening request")
	}
	if first.GetReplayPreset() != pb.ReplayPreset_CUSTOM || string(first.GetReplayId()) != string(replay) {
		t.Fatalf("unexpected opening request: %+v", first)
	}
	if first.GetNumRequested() != 100 {
		t.Fatalf("initial credit = %d, want 100", first.GetNumRequested())
	}
}

func TestNormalizeCommitMS(t *testing.T) {
	cases := []struct{ in, want int64 }{
		{1_700_000_000_000_000_000, 1_700_000_000_000}, // nanoseconds
		{1_700_000_000_000, 1_700_000_000_000},         // already milliseconds
		{1_700_000_000, 1_700_000_000_000},             // seconds
		{42, 42},                                       // synthetic small values pass through
	}
	for _, tc := range cases {
		if got := normalizeCommitMS(tc.in); got != tc.want {
			t.Fatalf("normalizeCommitMS(%d) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestFilterCoercion(t *testing.T) {
	e := &Engine{logger: testLogger()}
	truthy := []interface{}{true, "true", "1", "yes", "Y", " TRUE ", int64(3)}
	for _, v := range truthy {
		if !e.filterTrue(v) {
			t.Fatalf("expected %v (%T) to pass the filter", v, v)
		}
	}
	falsy := []interface{}{nil, false, "false", "0", "no", "n", "", int64(0)}
	for _, v := range falsy {
		if e.filterTrue(v) {
			t.Fatalf("expected %v (%T) to be filtered out", v, v)
		}
	}
}
