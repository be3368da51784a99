package listener

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/bettyarega/Flash-CDC/internal/salesforce"
	"github.com/bettyarega/Flash-CDC/internal/webhook"
	"github.com/bettyarega/Flash-CDC/pkg/config"
	"github.com/bettyarega/Flash-CDC/pkg/logging"
	"github.com/bettyarega/Flash-CDC/pkg/models"
	pb "github.com/bettyarega/Flash-CDC/pkg/proto"
)

// Settings are process-wide streaming knobs shared by every listener.
type Settings struct {
	DefaultPubSubHost string
	FilterField       string
	HeartbeatInterval time.Duration
	IdleReset         time.Duration
	FailFastNotFound  bool
	FailFastAuth      bool
}

// SettingsFromEnv reads the streaming knobs with their production defaults.
func SettingsFromEnv() Settings {
	return Settings{
		DefaultPubSubHost: config.GetEnv("PUBSUB_DEFAULT_HOST", "api.pubsub.salesforce.com:7443"),
		FilterField:       config.GetEnv("FILTER_FIELD", salesforce.DefaultFilterField),
		HeartbeatInterval: config.GetEnvSeconds("HEARTBEAT_SECONDS", salesforce.DefaultHeartbeatInterval),
		IdleReset:         config.GetEnvSeconds("IDLE_RESET_SECONDS", salesforce.DefaultIdleReset),
		FailFastNotFound:  config.GetEnvBool("FAIL_FAST_NOT_FOUND", true),
		FailFastAuth:      config.GetEnvBool("FAIL_FAST_AUTH", true),
	}
}

// NewConnectionProbe returns a function that authenticates a client and
// checks its topic is reachable, without opening a subscription. Used by the
// control surface's test endpoint.
func NewConnectionProbe(clients ClientSource, settings Settings, logger logging.Logger) func(ctx context.Context, clientID int64) (string, error) {
	return func(ctx context.Context, clientID int64) (string, error) {
		client, err := clients.GetClient(ctx, clientID)
		if err != nil {
			return "", err
		}
		if client == nil {
			return "", ErrClientNotFound
		}

		auth := salesforce.NewAuthenticator(salesforce.OAuthConfig{
			LoginURL:     client.LoginURL,
			GrantType:    client.OAuthGrantType,
			ClientID:     client.OAuthClientID,
			ClientSecret: client.OAuthClientSecret,
			Username:     client.OAuthUsername,
			Password:     client.OAuthPassword,
		}, client.ClientName, logger)
		if err := auth.Authenticate(ctx); err != nil {
			return "", err
		}

		tenantID := client.TenantID
		if tenantID == "" {
			tenantID = auth.OrgID
		}
		host := client.PubSubHost
		if host == "" {
			host = settings.DefaultPubSubHost
		}
		conn, err := salesforce.DialBroker(host)
		if err != nil {
			return "", err
		}
		defer conn.Close()

		return salesforce.ProbeTopic(ctx, pb.NewPubSubClient(conn), salesforce.Session{
			AccessToken: auth.AccessToken,
			InstanceURL: auth.InstanceURL,
			TenantID:    tenantID,
		}, client.TopicName)
	}
}

// Metrics are the optional per-listener stream counters. Any field may be
// nil.
type Metrics struct {
	EventsReceived *prometheus.CounterVec // labels: client_id
	WebhookPosts   *prometheus.CounterVec // labels: client_id, status
	Connects       *prometheus.CounterVec // labels: client_id
}

// NewStreamRunner wires one full connection attempt: OAuth, broker channel,
// schema cache and the stream engine. Returned errors keep their
// fatal/transient classification for the supervisor.
func NewStreamRunner(offsets OffsetStore, dispatcher *webhook.Dispatcher, settings Settings, metrics *Metrics, logger logging.Logger) Runner {
	return func(ctx context.Context, client models.Client, start salesforce.ReplayStart, state *State) error {
		clientLabel := strconv.FormatInt(client.ID, 10)
		if metrics != nil && metrics.Connects != nil {
			metrics.Connects.WithLabelValues(clientLabel).Inc()
		}
		auth := salesforce.NewAuthenticator(salesforce.OAuthConfig{
			LoginURL:     client.LoginURL,
			GrantType:    client.OAuthGrantType,
			ClientID:     client.OAuthClientID,
			ClientSecret: client.OAuthClientSecret,
			Username:     client.OAuthUsername,
			Password:     client.OAuthPassword,
		}, client.ClientName, logger)
		if err := auth.Authenticate(ctx); err != nil {
			return err
		}

		tenantID := client.TenantID
		if tenantID == "" {
			tenantID = auth.OrgID
		}
		host := client.PubSubHost
		if host == "" {
			host = settings.DefaultPubSubHost
		}

		conn, err := salesforce.DialBroker(host)
		if err != nil {
			return err
		}
		defer conn.Close()

		pub := pb.NewPubSubClient(conn)
		schemas := salesforce.NewSchemaCache(pub, logger)

		hooks := state.Hooks()
		if metrics != nil {
			baseEvent := hooks.EventReceived
			baseStatus := hooks.WebhookStatus
			hooks.EventReceived = func(commitMS int64) {
				if metrics.EventsReceived != nil {
					metrics.EventsReceived.WithLabelValues(clientLabel).Inc()
				}
				baseEvent(commitMS)
			}
			hooks.WebhookStatus = func(status int) {
				if metrics.WebhookPosts != nil {
					metrics.WebhookPosts.WithLabelValues(clientLabel, strconv.Itoa(status)).Inc()
				}
				baseStatus(status)
			}
		}

		engine := salesforce.NewEngine(salesforce.EngineConfig{
			Client:            client,
			AccessToken:       auth.AccessToken,
			InstanceURL:       auth.InstanceURL,
			TenantID:          tenantID,
			Start:             start,
			FilterField:       settings.FilterField,
			HeartbeatInterval: settings.HeartbeatInterval,
			IdleReset:         settings.IdleReset,
			FailFastNotFound:  settings.FailFastNotFound,
			FailFastAuth:      settings.FailFastAuth,
		}, pub, schemas, offsets, dispatcher, hooks, logger)

		return engine.Run(ctx)
	}
}
