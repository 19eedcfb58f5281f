package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"fourwins/game/lobby"
	"fourwins/game/notify"
)

func TestConstants(t *testing.T) {
	if Version == "" {
		t.Error("Version should not be empty")
	}
	if AppName == "" {
		t.Error("AppName should not be empty")
	}
}

func TestFlagDefaults(t *testing.T) {
	if *port != 8080 {
		t.Errorf("Expected default port 8080, got %d", *port)
	}
	if *host != "localhost" {
		t.Errorf("Expected default host localhost, got %s", *host)
	}
	if *turnTime != lobby.DefaultTurnTime {
		t.Errorf("Expected default turn time %v, got %v", lobby.DefaultTurnTime, *turnTime)
	}
	if *challengeTimeout != lobby.DefaultChallengeTimeout {
		t.Errorf("Expected default challenge timeout %v, got %v", lobby.DefaultChallengeTimeout, *challengeTimeout)
	}
	if *flushDelay != notify.DefaultDelay {
		t.Errorf("Expected default flush delay %v, got %v", notify.DefaultDelay, *flushDelay)
	}
	if *debug {
		t.Error("Debug should default to false")
	}
	if *ngrokEnabled {
		t.Error("Ngrok should default to disabled")
	}
}

func TestBuildServer(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	apiServer := buildServer(ctx)
	if apiServer == nil {
		t.Fatal("buildServer returned nil")
	}

	// The wired server must answer its health check.
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	apiServer.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("health check status = %d, want 200", w.Code)
	}

	// Cancelling the context must stop the background loops without
	// panics; give them a moment to notice.
	cancel()
	time.Sleep(20 * time.Millisecond)
}
