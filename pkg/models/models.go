package models

import (
	"time"
)

// GrantType identifies the OAuth flow used against the login endpoint.
type GrantType string

const (
	GrantPassword          GrantType = "password"
	GrantClientCredentials GrantType = "client_credentials"
)

// Client is one tenant's listener configuration. Rows are written by the
// admin API; this service only reads them.
type Client struct {
	ID                int64     `json:"id"`
	ClientName        string    `json:"client_name"`
	LoginURL          string    `json:"login_url"`
	OAuthGrantType    GrantType `json:"oauth_grant_type"`
	OAuthClientID     string    `json:"oauth_client_id"`
	OAuthClientSecret string    `json:"-"`
	OAuthUsername     string    `json:"oauth_username,omitempty"`
	OAuthPassword     string    `json:"-"`
	TopicName         string    `json:"topic_name"`
	WebhookURL        string    `json:"webhook_url"`
	PubSubHost        string    `json:"pubsub_host,omitempty"`
	TenantID          string    `json:"tenant_id,omitempty"`
	FlowBatchSize     int32     `json:"flow_batch_size"`
	IsActive          bool      `json:"is_active"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// ReplayOffset is the durable cursor for one (client, topic) subscription.
// The replay id is opaque broker bytes, stored base64-encoded.
type ReplayOffset struct {
	ClientID      int64     `json:"client_id"`
	TopicName     string    `json:"topic_name"`
	LastReplayB64 string    `json:"last_replay_b64,omitempty"`
	LastCommitTS  time.Time `json:"last_commit_ts,omitempty"`
	UpdatedAt     time.Time `json:"updated_at,omitempty"`
}

// ReplayMode selects where a (re)connected subscription starts.
type ReplayMode string

const (
	ReplayStored   ReplayMode = "stored"
	ReplayLatest   ReplayMode = "latest"
	ReplayEarliest ReplayMode = "earliest"
	ReplayCustom   ReplayMode = "custom"
	ReplaySince    ReplayMode = "since"
)

// ReplayHint is an operator-supplied override for the next (re)connection.
type ReplayHint struct {
	Mode         ReplayMode `json:"mode"`
	SinceMinutes int        `json:"since_minutes,omitempty"`
	ReplayIDB64  string     `json:"replay_id_b64,omitempty"`
}

// Listener lifecycle states.
const (
	StatusStopped  = "stopped"
	StatusStarting = "starting"
	StatusRunning  = "running"
	StatusStopping = "stopping"
	StatusError    = "error"
)

// ListenerStatus is a point-in-time snapshot of one listener.
type ListenerStatus struct {
	ClientID          int64      `json:"client_id"`
	Topic             string     `json:"topic,omitempty"`
	Status            string     `json:"status"`
	Running           bool       `json:"running"`
	StartedAt         *time.Time `json:"started_at,omitempty"`
	LastBeat          *time.Time `json:"last_beat,omitempty"`
	LastError         string     `json:"last_error,omitempty"`
	FailCount         int        `json:"fail_count"`
	EventsReceived    int64      `json:"events_received"`
	LastEventAt       int64      `json:"last_event_at,omitempty"`
	LastWebhookStatus int        `json:"last_webhook_status,omitempty"`
	SchemaID          string     `json:"schema_id,omitempty"`
	LastReplayB64     string     `json:"last_replay_b64,omitempty"`
	ReplayStart       string     `json:"replay_start,omitempty"`
}
