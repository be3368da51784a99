package notify

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

type fakeMailer struct {
	to, subject, body string
	calls             int
	err               error
}

func (f *fakeMailer) SendMail(ctx context.Context, to, subject, body string) error {
	f.calls++
	f.to, f.subject, f.body = to, subject, body
	return f.err
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

func TestListenerErrorSendsMail(t *testing.T) {
	mailer := &fakeMailer{}
	n := NewNotifier(mailer, "ops@example.com", quietLogger())

	n.ListenerError(context.Background(), 7, "acme", "/data/AccountChangeEvent", "OAuth failed (400): invalid_grant")

	if mailer.calls != 1 {
		t.Fatalf("calls = %d, want 1", mailer.calls)
	}
	if mailer.subject != "Listener Error: acme (ID: 7)" {
		t.Fatalf("unexpected subject: %s", mailer.subject)
	}
	if !strings.Contains(mailer.body, "invalid_grant") || !strings.Contains(mailer.body, "/data/AccountChangeEvent") {
		t.Fatalf("body missing detail: %s", mailer.body)
	}
}

func TestListenerErrorDisabled(t *testing.T) {
	n := NewNotifier(nil, "", quietLogger())
	if n.Enabled() {
		t.Fatal("notifier without mailer must be disabled")
	}
	// Must not panic.
	n.ListenerError(context.Background(), 7, "acme", "/topic", "boom")
}

func TestListenerErrorSwallowsSendFailure(t *testing.T) {
	mailer := &fakeMailer{err: errors.New("smtp down")}
	n := NewNotifier(mailer, "ops@example.com", quietLogger())
	n.ListenerError(context.Background(), 7, "acme", "/topic", "boom")
	if mailer.calls != 1 {
		t.Fatalf("calls = %d, want 1", mailer.calls)
	}
}
