package judge

import (
	"strings"
	"testing"
)

func TestNewProvider(t *testing.T) {
	tests := []struct {
		name      string
		config    Config
		wantNil   bool
		wantErr   bool
		errSubstr string
	}{
		{
			name:    "disabled",
			config:  Config{Provider: ""},
			wantNil: true,
		},
		{
			name:   "openai",
			config: Config{Provider: "openai", APIKey: "sk-test"},
		},
		{
			name:   "openai mixed case",
			config: Config{Provider: "OpenAI", APIKey: "sk-test"},
		},
		{
			name:      "openai without key",
			config:    Config{Provider: "openai"},
			wantErr:   true,
			errSubstr: "API key",
		},
		{
			name:   "ollama",
			config: Config{Provider: "ollama", Model: "mistral"},
		},
		{
			name:      "unknown",
			config:    Config{Provider: "bard"},
			wantErr:   true,
			errSubstr: "unknown judge provider",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewProvider(tt.config)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				if !strings.Contains(err.Error(), tt.errSubstr) {
					t.Errorf("error %q does not contain %q", err, tt.errSubstr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantNil != (p == nil) {
				t.Errorf("provider nil = %v, want %v", p == nil, tt.wantNil)
			}
		})
	}
}

func TestOllamaProvider_Defaults(t *testing.T) {
	p, err := NewOllamaProvider(Config{Provider: "ollama"})
	if err != nil {
		t.Fatalf("NewOllamaProvider: %v", err)
	}
	if p.baseURL != "http://localhost:11434" {
		t.Errorf("unexpected default base URL: %s", p.baseURL)
	}
	if p.Name() != "ollama" {
		t.Errorf("unexpected name: %s", p.Name())
	}
}
