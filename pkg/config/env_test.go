package config

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func TestGetEnvDefaults(t *testing.T) {
	if got := GetEnv("FLASHCDC_TEST_UNSET", "fallback"); got != "fallback" {
		t.Fatalf("expected fallback, got %q", got)
	}
	t.Setenv("FLASHCDC_TEST_SET", "value")
	if got := GetEnv("FLASHCDC_TEST_SET", "fallback"); got != "value" {
		t.Fatalf("expected value, got %q", got)
	}
}

func TestGetEnvInt(t *testing.T) {
	t.Setenv("FLASHCDC_TEST_INT", "42")
	if got := GetEnvInt("FLASHCDC_TEST_INT", 7); got != 42 {
		t.Fatalf("expected 42, got %d", got)
	}
	t.Setenv("FLASHCDC_TEST_INT", "not-a-number")
	if got := GetEnvInt("FLASHCDC_TEST_INT", 7); got != 7 {
		t.Fatalf("expected default 7, got %d", got)
	}
}

func TestGetEnvBool(t *testing.T) {
	t.Setenv("FLASHCDC_TEST_BOOL", "true")
	if !GetEnvBool("FLASHCDC_TEST_BOOL", false) {
		t.Fatal("expected true")
	}
	t.Setenv("FLASHCDC_TEST_BOOL", "garbage")
	if !GetEnvBool("FLASHCDC_TEST_BOOL", true) {
		t.Fatal("expected default true on parse failure")
	}
}

func TestGetEnvSeconds(t *testing.T) {
	t.Setenv("FLASHCDC_TEST_SECS", "90")
	if got := GetEnvSeconds("FLASHCDC_TEST_SECS", time.Minute); got != 90*time.Second {
		t.Fatalf("expected 90s, got %s", got)
	}
	t.Setenv("FLASHCDC_TEST_SECS", "-5")
	if got := GetEnvSeconds("FLASHCDC_TEST_SECS", time.Minute); got != time.Minute {
		t.Fatalf("expected default 1m for non-positive value, got %s", got)
	}
}

func TestGetLogLevel(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	if got := GetLogLevel(); got != logrus.DebugLevel {
		t.Fatalf("expected debug, got %v", got)
	}
	t.Setenv("LOG_LEVEL", "")
	if got := GetLogLevel(); got != logrus.InfoLevel {
		t.Fatalf("expected info default, got %v", got)
	}
}
