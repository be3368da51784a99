package salesforce

import (
	"context"
	"fmt"
	"sync"

	"github.com/linkedin/goavro/v2"

	"github.com/bettyarega/Flash-CDC/pkg/logging"
	pb "github.com/bettyarega/Flash-CDC/pkg/proto"
)

// SchemaCache fetches Avro schemas from the broker and memoizes the compiled
// codecs by schema id. Safe for concurrent use.
type SchemaCache struct {
	client pb.PubSubClient
	logger logging.Logger

	mu     sync.RWMutex
	codecs map[string]*goavro.Codec
}

func NewSchemaCache(client pb.PubSubClient, logger logging.Logger) *SchemaCache {
	return &SchemaCache{
		client: client,
		logger: logger,
		codecs: make(map[string]*goavro.Codec),
	}
}

func (c *SchemaCache) codec(ctx context.Context, schemaID string) (*goavro.Codec, error) {
	c.mu.RLock()
	codec, ok := c.codecs[schemaID]
	c.mu.RUnlock()
	if ok {
		return codec, nil
	}

	info, err := c.client.GetSchema(ctx, &pb.SchemaRequest{SchemaId: schemaID})
	if err != nil {
		return nil, fmt.Errorf("fetch schema %s: %w", schemaID, err)
	}
	codec, err = goavro.NewCodec(info.GetSchemaJson())
	if err != nil {
		return nil, fmt.Errorf("compile schema %s: %w", schemaID, err)
	}

	c.mu.Lock()
	c.codecs[schemaID] = codec
	c.mu.Unlock()
	c.logger.WithField("schema_id", schemaID).Debug("Schema codec cached")
	return codec, nil
}

// Warm pre-fetches and compiles a schema so the first event on a fresh
// stream does not pay the RPC.
func (c *SchemaCache) Warm(ctx context.Context, schemaID string) error {
	_, err := c.codec(ctx, schemaID)
	return err
}

// Decode turns one event payload into a generic map using the schema the
// event was published under.
func (c *SchemaCache) Decode(ctx context.Context, schemaID string, payload []byte) (map[string]interface{}, error) {
	codec, err := c.codec(ctx, schemaID)
	if err != nil {
		return nil, err
	}
	native, _, err := codec.NativeFromBinary(payload)
	if err != nil {
		return nil, fmt.Errorf("avro decode (schema %s): %w", schemaID, err)
	}
	decoded, ok := native.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("avro decode (schema %s): record expected, got %T", schemaID, native)
	}
	return decoded, nil
}

// unwrapUnion strips goavro's single-entry union wrapper, e.g.
// map[string]interface{}{"string": "x"} becomes "x". Non-union values pass
// through unchanged.
func unwrapUnion(v interface{}) interface{} {
	m, ok := v.(map[string]interface{})
	if !ok || len(m) != 1 {
		return v
	}
	for _, inner := range m {
		return inner
	}
	return v
}
