package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/sirupsen/logrus"

	"github.com/bettyarega/Flash-CDC/pkg/models"
)

func clientRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "client_name", "login_url", "oauth_grant_type", "oauth_client_id",
		"oauth_client_secret", "oauth_username", "oauth_password",
		"topic_name", "webhook_url", "pubsub_host", "tenant_id",
		"flow_batch_size", "is_active", "created_at", "updated_at",
	})
}

func TestGetClient(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery("SELECT id, client_name, login_url").
		WithArgs(int64(7)).
		WillReturnRows(clientRows().AddRow(
			int64(7), "acme", "https://login.salesforce.com", "password", "consumer-key",
			"consumer-secret", "ops@acme.example", "hunter2",
			"/data/AccountChangeEvent", "https://hooks.acme.example/cdc", "api.pubsub.salesforce.com:7443", "00Dxx0000001gER",
			int32(100), true, now, now,
		))

	s := NewClientStore(db, logrus.New())
	client, err := s.GetClient(context.Background(), 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if client == nil {
		t.Fatal("expected client, got nil")
	}
	if client.OAuthGrantType != models.GrantPassword {
		t.Fatalf("expected password grant, got %s", client.OAuthGrantType)
	}
	if client.TopicName != "/data/AccountChangeEvent" {
		t.Fatalf("unexpected topic: %s", client.TopicName)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet SQL expectations: %v", err)
	}
}

func TestGetClientMissing(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT id, client_name, login_url").
		WithArgs(int64(99)).
		WillReturnRows(clientRows())

	s := NewClientStore(db, logrus.New())
	client, err := s.GetClient(context.Background(), 99)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if client != nil {
		t.Fatalf("expected nil client, got %+v", client)
	}
}

func TestListActiveClients(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery("SELECT id, client_name, login_url").
		WillReturnRows(clientRows().
			AddRow(int64(1), "acme", "https://login.salesforce.com", "password", "key-1",
				"secret-1", "a@acme.example", "pw", "/data/AccountChangeEvent",
				"https://hooks.acme.example/a", "", "", int32(100), true, now, now).
			AddRow(int64(2), "globex", "https://login.salesforce.com", "client_credentials", "key-2",
				"secret-2", "b@globex.example", "pw", "/data/OrderChangeEvent",
				"https://hooks.globex.example/b", "", "", int32(250), true, now, now))

	s := NewClientStore(db, logrus.New())
	clients, err := s.ListActiveClients(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(clients) != 2 {
		t.Fatalf("expected 2 clients, got %d", len(clients))
	}
	if clients[1].OAuthGrantType != models.GrantClientCredentials {
		t.Fatalf("unexpected grant type: %s", clients[1].OAuthGrantType)
	}
}

func TestOffsetLoadStored(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT last_replay_b64").
		WithArgs(int64(7), "/data/AccountChangeEvent").
		WillReturnRows(sqlmock.NewRows([]string{"last_replay_b64"}).AddRow("AAEC"))

	s := NewOffsetStore(db, logrus.New())
	got, err := s.Load(context.Background(), 7, "/data/AccountChangeEvent")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "AAEC" {
		t.Fatalf("expected AAEC, got %q", got)
	}
}

func TestOffsetSaveUpsert(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("INSERT INTO flash.listener_offsets").
		WithArgs(int64(7), "/data/AccountChangeEvent", "AAEC", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	s := NewOffsetStore(db, logrus.New())
	if err := s.Save(context.Background(), 7, "/data/AccountChangeEvent", "AAEC", 1700000000000); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet SQL expectations: %v", err)
	}
}

func TestOffsetSaveFallsBackToMemory(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("INSERT INTO flash.listener_offsets").
		WillReturnError(errors.New("connection refused"))
	mock.ExpectQuery("SELECT last_replay_b64").
		WillReturnError(errors.New("connection refused"))

	s := NewOffsetStore(db, logrus.New())
	if err := s.Save(context.Background(), 7, "/data/AccountChangeEvent", "AAEC", 0); err != nil {
		t.Fatalf("save should swallow durable failures, got %v", err)
	}

	got, err := s.Load(context.Background(), 7, "/data/AccountChangeEvent")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "AAEC" {
		t.Fatalf("expected in-memory fallback AAEC, got %q", got)
	}
}

func TestOffsetClear(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("INSERT INTO flash.listener_offsets").
		WillReturnError(errors.New("down"))
	mock.ExpectExec("DELETE FROM flash.listener_offsets").
		WithArgs(int64(7), "/data/AccountChangeEvent").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT last_replay_b64").
		WillReturnRows(sqlmock.NewRows([]string{"last_replay_b64"}))

	s := NewOffsetStore(db, logrus.New())
	_ = s.Save(context.Background(), 7, "/data/AccountChangeEvent", "AAEC", 0)
	if err := s.Clear(context.Background(), 7, "/data/AccountChangeEvent"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := s.Load(context.Background(), 7, "/data/AccountChangeEvent")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "" {
		t.Fatalf("expected cleared cursor, got %q", got)
	}
}
