package objectstore

import "testing"

func TestConfigFromEnvDefaults(t *testing.T) {
	cfg, err := ConfigFromEnv()
	if err != nil {
		t.Fatalf("ConfigFromEnv() err=%v", err)
	}
	if cfg.BucketSuites == "" {
		t.Fatalf("expected default suites bucket")
	}
}

func TestConfigValidateRejectsScheme(t *testing.T) {
	cfg := Config{
		Endpoint:     "http://localhost:9000",
		AccessKey:    "a",
		SecretKey:    "b",
		Region:       "us-east-1",
		BucketSuites: "suites",
	}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for endpoint with scheme")
	}
}
