package config

import (
	"errors"
	"testing"
	"time"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestLoad_Defaults(t *testing.T) {
	s, err := load(envMap(nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if s.APIURL != DefaultAPIURL {
		t.Errorf("expected default API URL, got %s", s.APIURL)
	}
	if s.PollInterval != DefaultPollInterval {
		t.Errorf("expected poll interval %v, got %v", DefaultPollInterval, s.PollInterval)
	}
	if s.ProbeTimeout != 10*time.Second {
		t.Errorf("expected probe timeout 10s, got %v", s.ProbeTimeout)
	}
	if s.UseGPU {
		t.Error("GPU should be disabled by default")
	}
	if s.GPUEnv() != nil {
		t.Error("GPUEnv should be nil when GPU is disabled")
	}
}

func TestLoad_Overrides(t *testing.T) {
	s, err := load(envMap(map[string]string{
		"API_URL":                        "http://coord:9000/",
		"TASK_POLL_INTERVAL":             "15",
		"USE_GPU":                        "true",
		"TF_FORCE_UNIFIED_MEMORY":        "0",
		"XLA_PYTHON_CLIENT_MEM_FRACTION": "2.5",
		"WALLET_ADDRESS":                 "0xABC",
		"MIRROR_PROBE_TIMEOUT":           "3s",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if s.APIBase() != "http://coord:9000" {
		t.Errorf("expected trimmed base, got %s", s.APIBase())
	}
	if s.PollInterval != 15*time.Second {
		t.Errorf("expected 15s, got %v", s.PollInterval)
	}
	if s.ProbeTimeout != 3*time.Second {
		t.Errorf("expected 3s, got %v", s.ProbeTimeout)
	}
	if s.WalletAddress != "0xABC" {
		t.Errorf("expected wallet 0xABC, got %s", s.WalletAddress)
	}

	env := s.GPUEnv()
	want := []string{"TF_FORCE_UNIFIED_MEMORY=0", "XLA_PYTHON_CLIENT_MEM_FRACTION=2.5"}
	if len(env) != len(want) {
		t.Fatalf("expected %v, got %v", want, env)
	}
	for i := range want {
		if env[i] != want[i] {
			t.Errorf("env[%d]: expected %s, got %s", i, want[i], env[i])
		}
	}
}

func TestLoad_Invalid(t *testing.T) {
	for _, env := range []map[string]string{
		{"TASK_POLL_INTERVAL": "soon"},
		{"TASK_POLL_INTERVAL": "0"},
		{"USE_GPU": "maybe"},
		{"MIRROR_PROBE_TIMEOUT": "-1s"},
		{"XLA_PYTHON_CLIENT_MEM_FRACTION": "lots"},
	} {
		if _, err := load(envMap(env)); !errors.Is(err, ErrInvalidSetting) {
			t.Errorf("%v: expected ErrInvalidSetting, got %v", env, err)
		}
	}
}
