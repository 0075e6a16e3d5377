package config

import (
	"strings"
	"testing"
	"time"
)

func workerConfig() *Config {
	return &Config{
		MongoURI:          "mongodb://localhost:27017",
		MongoDatabaseName: "clinicbook",
		MongoConnTimeout:  10 * time.Second,

		Port: "8080",

		RequestTimeout: 30 * time.Second,
		MaxRequestSize: 1 << 20,

		ReadTimeout:     5 * time.Second,
		WriteTimeout:    10 * time.Second,
		IdleTimeout:     60 * time.Second,
		ShutdownTimeout: 10 * time.Second,

		BusinessDayStart: "09:00",
		BusinessDayEnd:   "18:00",
		SlotDurationMin:  30,

		BookingEventsTopic: "appointments.booked",
	}
}

func TestValidateWorker_AuthSettingsOptional(t *testing.T) {
	cfg := workerConfig()

	if err := cfg.ValidateWorker(); err != nil {
		t.Errorf("worker config must not require auth settings, got %v", err)
	}
	if err := cfg.Validate(); err == nil {
		t.Error("full validation must still require a JWT secret")
	} else if !strings.Contains(err.Error(), "JWTSecret") {
		t.Errorf("expected a JWTSecret error, got %v", err)
	}
}

func TestValidate_FullConfigPasses(t *testing.T) {
	cfg := workerConfig()
	cfg.JWTSecret = "test-secret"
	cfg.AccessTokenTTL = 15 * time.Minute
	cfg.RefreshTokenTTL = 24 * time.Hour

	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidateWorker_CoreChecksStillApply(t *testing.T) {
	cfg := workerConfig()
	cfg.Port = "not-a-port"
	cfg.BusinessDayEnd = "25:99"

	err := cfg.ValidateWorker()
	if err == nil {
		t.Fatal("expected core validation failures")
	}
	for _, want := range []string{"Port", "BusinessDayEnd"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error missing %s check: %v", want, err)
		}
	}
}
