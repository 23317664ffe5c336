package config

import (
	"strings"
	"testing"
)

func lookupFrom(env map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func emailJSEnv() map[string]string {
	return map[string]string{
		"DESTINATION_EMAIL":   "triage@example.org",
		"EMAILJS_SERVICE_ID":  "service_bugs",
		"EMAILJS_TEMPLATE_ID": "template_bug_report",
		"EMAILJS_PUBLIC_KEY":  "pub",
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := load(lookupFrom(emailJSEnv()))
	if err != nil {
		t.Fatalf("load returned an error: %v", err)
	}

	if cfg.Port != "8080" || cfg.Env != "development" || !cfg.IsDevelopment() {
		t.Errorf("unexpected server defaults: %+v", cfg)
	}
	if cfg.Transport != TransportEmailJS {
		t.Errorf("expected emailjs transport, got %s", cfg.Transport)
	}
	if cfg.RateLimitPerMinute != 10 || cfg.MaxUploadSizeMB != 50 || cfg.SMTPPort != 587 {
		t.Errorf("unexpected numeric defaults: %+v", cfg)
	}
	if cfg.StripMetadata {
		t.Error("metadata stripping should be off by default")
	}
}

func TestLoadOverrides(t *testing.T) {
	env := map[string]string{
		"DESTINATION_EMAIL":     "triage@example.org",
		"TRANSPORT":             "SMTP",
		"SMTP_HOST":             "mail.example.org",
		"SMTP_PORT":             "2525",
		"SMTP_FROM_EMAIL":       "noreply@example.org",
		"RATE_LIMIT_PER_MINUTE": "3",
		"STRIP_METADATA":        "true",
		"TIMEZONE":              "UTC",
		"ENV":                   "production",
	}
	cfg, err := load(lookupFrom(env))
	if err != nil {
		t.Fatalf("load returned an error: %v", err)
	}

	if cfg.Transport != TransportSMTP || cfg.SMTPPort != 2525 || cfg.RateLimitPerMinute != 3 {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if !cfg.StripMetadata || !cfg.IsProduction() {
		t.Errorf("expected production with stripping, got %+v", cfg)
	}
	loc, err := cfg.Location()
	if err != nil || loc.String() != "UTC" {
		t.Errorf("expected UTC location, got %v %v", loc, err)
	}
}

func TestLoadInvalidNumberFallsBack(t *testing.T) {
	env := emailJSEnv()
	env["SMTP_PORT"] = "not-a-port"
	cfg, err := load(lookupFrom(env))
	if err != nil {
		t.Fatalf("load returned an error: %v", err)
	}
	if cfg.SMTPPort != 587 {
		t.Errorf("expected fallback port, got %d", cfg.SMTPPort)
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(env map[string]string)
		wantErr string
	}{
		{"missing destination", func(env map[string]string) { delete(env, "DESTINATION_EMAIL") }, "DESTINATION_EMAIL"},
		{"missing public key", func(env map[string]string) { delete(env, "EMAILJS_PUBLIC_KEY") }, "EMAILJS_PUBLIC_KEY"},
		{"missing template", func(env map[string]string) { delete(env, "EMAILJS_TEMPLATE_ID") }, "EMAILJS_TEMPLATE_ID"},
		{"smtp without host", func(env map[string]string) { env["TRANSPORT"] = "smtp" }, "SMTP_HOST"},
		{"unknown transport", func(env map[string]string) { env["TRANSPORT"] = "pigeon" }, "TRANSPORT"},
		{"zero rate limit", func(env map[string]string) { env["RATE_LIMIT_PER_MINUTE"] = "0" }, "RATE_LIMIT_PER_MINUTE"},
		{"bad timezone", func(env map[string]string) { env["TIMEZONE"] = "Mars/Olympus" }, "TIMEZONE"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env := emailJSEnv()
			tc.mutate(env)
			_, err := load(lookupFrom(env))
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("expected %q in error, got %v", tc.wantErr, err)
			}
		})
	}
}
