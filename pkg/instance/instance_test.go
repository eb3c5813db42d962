package instance

import "testing"

func TestIDPrefersEnv(t *testing.T) {
	t.Setenv("SERVICEHUB_INSTANCE_ID", "cron-7")
	if got := ID(); got != "cron-7" {
		t.Fatalf("expected env id got %q", got)
	}
}

func TestIDFallsBack(t *testing.T) {
	t.Setenv("SERVICEHUB_INSTANCE_ID", "")
	if got := ID(); got == "" {
		t.Fatalf("expected non-empty fallback id")
	}
}
