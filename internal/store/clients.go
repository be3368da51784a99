package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/bettyarega/Flash-CDC/pkg/config"
	"github.com/bettyarega/Flash-CDC/pkg/logging"
	"github.com/bettyarega/Flash-CDC/pkg/models"
)

// schemaName is the Postgres schema holding the flash tables, shared with
// the admin API.
func schemaName() string {
	return config.GetEnv("DB_SCHEMA", "flash")
}

// ClientStore reads tenant listener configurations. Rows are owned by the
// admin API; this service never writes them.
type ClientStore struct {
	db     *sql.DB
	schema string
	logger logging.Logger
}

func NewClientStore(db *sql.DB, logger logging.Logger) *ClientStore {
	return &ClientStore{db: db, schema: schemaName(), logger: logger}
}

const clientColumns = `id, client_name, login_url, oauth_grant_type, oauth_client_id,
	       oauth_client_secret, COALESCE(oauth_username, ''), COALESCE(oauth_password, ''),
	       topic_name, webhook_url, COALESCE(pubsub_host, ''), COALESCE(tenant_id, ''),
	       flow_batch_size, is_active, created_at, updated_at`

// GetClient fetches a single client row by id.
func (s *ClientStore) GetClient(ctx context.Context, clientID int64) (*models.Client, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+clientColumns+`
		FROM `+s.schema+`.clients
		WHERE id = $1
	`, clientID)

	client, err := scanClient(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load client %d: %w", clientID, err)
	}
	return client, nil
}

// ListActiveClients returns every client with the active flag set.
func (s *ClientStore) ListActiveClients(ctx context.Context) ([]models.Client, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+clientColumns+`
		FROM `+s.schema+`.clients
		WHERE is_active = true
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("list active clients: %w", err)
	}
	defer rows.Close()

	var clients []models.Client
	for rows.Next() {
		client, err := scanClient(rows)
		if err != nil {
			s.logger.WithError(err).Error("Failed to scan client row")
			continue
		}
		clients = append(clients, *client)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list active clients: %w", err)
	}
	return clients, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanClient(row rowScanner) (*models.Client, error) {
	var c models.Client
	var grant string
	err := row.Scan(
		&c.ID, &c.ClientName, &c.LoginURL, &grant, &c.OAuthClientID,
		&c.OAuthClientSecret, &c.OAuthUsername, &c.OAuthPassword,
		&c.TopicName, &c.WebhookURL, &c.PubSubHost, &c.TenantID,
		&c.FlowBatchSize, &c.IsActive, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.OAuthGrantType = models.GrantType(grant)
	return &c, nil
}
