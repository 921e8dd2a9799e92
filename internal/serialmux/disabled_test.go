package serialmux

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestDisabledSerialMux(t *testing.T) {
	d := NewDisabledSerialMux()

	id, ch := d.Subscribe()
	if err := d.SendCommand("S1"); err != nil {
		t.Errorf("SendCommand: %v", err)
	}
	if err := d.Initialize(); err != nil {
		t.Errorf("Initialize: %v", err)
	}

	d.Unsubscribe(id)
	if _, ok := <-ch; ok {
		t.Error("channel should be closed after Unsubscribe")
	}

	_, ch2 := d.Subscribe()
	if err := d.Close(); err != nil {
		t.Fatal(err)
	}
	if _, ok := <-ch2; ok {
		t.Error("channel should be closed after Close")
	}
	if err := d.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}

	_, late := d.Subscribe()
	if _, ok := <-late; ok {
		t.Error("subscribing after Close should return a closed channel")
	}
}

func TestDisabledSerialMux_Monitor(t *testing.T) {
	d := NewDisabledSerialMux()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := d.Monitor(ctx); err != context.DeadlineExceeded {
		t.Errorf("Monitor() = %v, want deadline exceeded", err)
	}
}

func TestDisabledSerialMux_AdminRoutes(t *testing.T) {
	mux := http.NewServeMux()
	NewDisabledSerialMux().AttachAdminRoutes(mux)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/debug/serial-disabled", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "serial disabled" {
		t.Errorf("got %d %q", rec.Code, rec.Body.String())
	}
}
