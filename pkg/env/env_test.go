package env

import "testing"

func TestGetFallsBackOnBlank(t *testing.T) {
	t.Setenv("BOMCATALOG_TEST_VALUE", "   ")
	if got := Get("BOMCATALOG_TEST_VALUE", "json"); got != "json" {
		t.Fatalf("expected fallback, got %q", got)
	}
	t.Setenv("BOMCATALOG_TEST_VALUE", " console ")
	if got := Get("BOMCATALOG_TEST_VALUE", "json"); got != "console" {
		t.Fatalf("expected trimmed value, got %q", got)
	}
}

func TestInstanceIDPrefersExplicitSetting(t *testing.T) {
	t.Setenv(instanceIDKey, "cron-a")
	if got := InstanceID(); got != "cron-a" {
		t.Fatalf("expected cron-a, got %q", got)
	}
	t.Setenv(instanceIDKey, "")
	if got := InstanceID(); got == "" {
		t.Fatal("expected non-empty fallback id")
	}
}
