package salesforce

import (
	"context"

	"google.golang.org/grpc/metadata"

	pb "github.com/bettyarega/Flash-CDC/pkg/proto"
)

// Session is the authenticated identity attached to every broker RPC.
type Session struct {
	AccessToken string
	InstanceURL string
	TenantID    string
}

// SessionContext attaches the broker's expected auth metadata.
func SessionContext(ctx context.Context, s Session) context.Context {
	return metadata.AppendToOutgoingContext(ctx,
		"accesstoken", s.AccessToken,
		"tenantid", s.TenantID,
		"instanceurl", s.InstanceURL,
	)
}

// ProbeTopic checks a topic is visible to the session and returns its schema
// id. Fail-fast classification always applies: a probe exists to surface
// configuration problems.
func ProbeTopic(ctx context.Context, pub pb.PubSubClient, s Session, topicName string) (string, error) {
	info, err := pub.GetTopic(SessionContext(ctx, s), &pb.TopicRequest{TopicName: topicName})
	if err != nil {
		return "", classifyRPC(err, "GetTopic", true, true)
	}
	if info.GetSchemaId() == "" {
		return "", fatalf("topic %s has no schema id", topicName)
	}
	return info.GetSchemaId(), nil
}
