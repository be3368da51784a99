package salesforce

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/linkedin/goavro/v2"
	"google.golang.org/grpc"

	pb "github.com/bettyarega/Flash-CDC/pkg/proto"
)

const accountChangeSchema = `{
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
		{"name": "FlashField__c", "type": ["null", "boolean"], "default": null}
	]
}`

type fakeSchemaClient struct {
	pb.PubSubClient
	schemaJSON string
	calls      int64
}

func (f *fakeSchemaClient) GetSchema(ctx context.Context, in *pb.SchemaRequest, opts ...grpc.CallOption) (*pb.SchemaInfo, error) {
	atomic.AddInt64(&f.calls, 1)
	return &pb.SchemaInfo{SchemaId: in.GetSchemaId(), SchemaJson: f.schemaJSON}, nil
}

func encodeEvent(t *testing.T, fields map[string]interface{}) []byte {
	t.Helper()
	codec, err := goavro.NewCodec(accountChangeSchema)
	if err != nil {
		t.Fatalf("bad test schema: %v", err)
	}
	payload, err := codec.BinaryFromNative(nil, fields)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	return payload
}

func TestDecodeCachesCodec(t *testing.T) {
	client := &fakeSchemaClient{schemaJSON: accountChangeSchema}
	cache := NewSchemaCache(client, testLogger())

	payload := encodeEvent(t, map[string]interface{}{
		"ChangeEventHeader": map[string]interface{}{
			"changeType":      "UPDATE",
			"recordIds":       []interface{}{"001xx0000001"},
			"commitTimestamp": int64(1700000000000),
		},
		"Name":          map[string]interface{}{"string": "Acme"},
		"FlashField__c": map[string]interface{}{"boolean": true},
	})

	for i := 0; i < 3; i++ {
		decoded, err := cache.Decode(context.Background(), "schema-1", payload)
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		hdr, ok := decoded["ChangeEventHeader"].(map[string]interface{})
		if !ok {
			t.Fatalf("missing header: %v", decoded)
		}
		if hdr["changeType"] != "UPDATE" {
			t.Fatalf("unexpected changeType: %v", hdr["changeType"])
		}
	}
	if got := atomic.LoadInt64(&client.calls); got != 1 {
		t.Fatalf("schema should be fetched once, got %d calls", got)
	}
}

func TestDecodeGarbagePayload(t *testing.T) {
	cache := NewSchemaCache(&fakeSchemaClient{schemaJSON: accountChangeSchema}, testLogger())
	if _, err := cache.Decode(context.Background(), "schema-1", []byte{0xde, 0xad}); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestUnwrapUnion(t *testing.T) {
	if got := unwrapUnion(map[string]interface{}{"string": "x"}); got != "x" {
		t.Fatalf("union not unwrapped: %v", got)
	}
	if got := unwrapUnion("plain"); got != "plain" {
		t.Fatalf("plain value mangled: %v", got)
	}
	if got := unwrapUnion(nil); got != nil {
		t.Fatalf("nil mangled: %v", got)
	}
	wide := map[string]interface{}{"a": 1, "b": 2}
	if got := unwrapUnion(wide); len(got.(map[string]interface{})) != 2 {
		t.Fatalf("multi-key map must pass through: %v", got)
	}
}
