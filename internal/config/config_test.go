package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("API_PORT", "")
	t.Setenv("USE_QUEUE", "")
	t.Setenv("OLLAMA_MODEL", "")
	t.Setenv("LLM_TEMPERATURE", "")
	t.Setenv("ENHANCE_WORKERS", "")
	t.Setenv("API_RATE_LIMIT_RPS", "")

	cfg := Load()
	if cfg.APIPort != "8080" {
		t.Fatalf("expected default api port 8080, got %q", cfg.APIPort)
	}
	if cfg.UseQueue {
		t.Fatalf("expected queue disabled by default")
	}
	if cfg.OllamaModel != "llama3.1:8b" {
		t.Fatalf("expected default model, got %q", cfg.OllamaModel)
	}
	if cfg.LLMTemperature != 0.3 {
		t.Fatalf("expected default temperature 0.3, got %v", cfg.LLMTemperature)
	}
	if cfg.EnhanceWorkers != 3 {
		t.Fatalf("expected default enhance workers 3, got %d", cfg.EnhanceWorkers)
	}
	if cfg.APIRateLimitRPS != 20 {
		t.Fatalf("expected default rate limit 20 rps, got %d", cfg.APIRateLimitRPS)
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	t.Setenv("API_PORT", "9999")
	t.Setenv("USE_QUEUE", "true")
	t.Setenv("NATS_SUBJECT", "jobs.custom")
	t.Setenv("LLM_TEMPERATURE", "0.7")
	t.Setenv("LLM_MAX_TOKENS", "512")
	t.Setenv("ENHANCE_WORKERS", "8")

	cfg := Load()
	if cfg.APIPort != "9999" {
		t.Fatalf("expected port override, got %q", cfg.APIPort)
	}
	if !cfg.UseQueue {
		t.Fatalf("expected queue enabled")
	}
	if cfg.NATSSubject != "jobs.custom" {
		t.Fatalf("expected subject override, got %q", cfg.NATSSubject)
	}
	if cfg.LLMTemperature != 0.7 {
		t.Fatalf("expected temperature 0.7, got %v", cfg.LLMTemperature)
	}
	if cfg.LLMMaxTokens != 512 {
		t.Fatalf("expected max tokens 512, got %d", cfg.LLMMaxTokens)
	}
	if cfg.EnhanceWorkers != 8 {
		t.Fatalf("expected enhance workers 8, got %d", cfg.EnhanceWorkers)
	}
}

func TestLoadFallsBackOnUnparseableValues(t *testing.T) {
	t.Setenv("LLM_MAX_TOKENS", "not-a-number")
	t.Setenv("USE_QUEUE", "definitely")
	t.Setenv("LLM_TEMPERATURE", "warm")

	cfg := Load()
	if cfg.LLMMaxTokens != 2048 {
		t.Fatalf("expected fallback max tokens, got %d", cfg.LLMMaxTokens)
	}
	if cfg.UseQueue {
		t.Fatalf("expected fallback queue flag")
	}
	if cfg.LLMTemperature != 0.3 {
		t.Fatalf("expected fallback temperature, got %v", cfg.LLMTemperature)
	}
}
