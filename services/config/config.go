// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config loads service configuration. Secrets and endpoints
// come from the environment (with .env support for local development);
// tunables come from config.yaml.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ConfigurationError marks a misconfiguration that must stop startup.
// It is never used for runtime failures.
type ConfigurationError struct {
	Message string
}

// Error implements the error interface for ConfigurationError.
func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s", e.Message)
}

// IsConfigurationError checks if an error is a ConfigurationError.
func IsConfigurationError(err error) bool {
	_, ok := err.(*ConfigurationError)
	return ok
}

// Config is the full service configuration.
type Config struct {
	Server    ServerConfig
	Weaviate  WeaviateConfig
	LLM       LLMConfig
	Embedding EmbeddingConfig
	Chunking  ChunkingConfig
	Retrieval RetrievalConfig
	Ingestion IngestionConfig
}

// ServerConfig configures the HTTP service.
type ServerConfig struct {
	Port      int
	UploadDir string
}

// WeaviateConfig locates the vector index.
type WeaviateConfig struct {
	Host   string
	Scheme string
}

// LLMConfig selects and tunes the LLM backend. Backend and credentials
// come from the environment; sampling tunables from config.yaml.
type LLMConfig struct {
	Backend     string
	Temperature float32
	MaxTokens   int
	Streaming   bool
}

// EmbeddingConfig selects the embedding backend.
type EmbeddingConfig struct {
	Provider string
	Model    string
}

// ChunkingConfig tunes the text splitter.
type ChunkingConfig struct {
	ChunkSize    int
	ChunkOverlap int
}

// RetrievalConfig tunes the retrieval gateway.
type RetrievalConfig struct {
	TopK           int
	ScoreThreshold float64
}

// IngestionConfig tunes document ingestion.
type IngestionConfig struct {
	MaskPII   bool
	MaskChar  string
	MaxFileMB int64
	WatchDir  bool
}

// yamlFile mirrors config.yaml. Pointer fields distinguish "absent"
// from zero so defaults survive a sparse file.
type yamlFile struct {
	Server struct {
		Port      *int    `yaml:"port"`
		UploadDir *string `yaml:"upload_dir"`
	} `yaml:"server"`
	LLM struct {
		Temperature *float32 `yaml:"temperature"`
		MaxTokens   *int     `yaml:"max_tokens"`
		Streaming   *bool    `yaml:"streaming"`
	} `yaml:"llm"`
	Chunking struct {
		ChunkSize    *int `yaml:"chunk_size"`
		ChunkOverlap *int `yaml:"chunk_overlap"`
	} `yaml:"chunking"`
	Retrieval struct {
		TopK           *int     `yaml:"top_k"`
		ScoreThreshold *float64 `yaml:"score_threshold"`
	} `yaml:"retrieval"`
	Ingestion struct {
		MaskPII   *bool   `yaml:"mask_pii"`
		MaskChar  *string `yaml:"mask_char"`
		MaxFileMB *int64  `yaml:"max_file_mb"`
		WatchDir  *bool   `yaml:"watch_dir"`
	} `yaml:"ingestion"`
}

// Load builds the configuration.
//
// # Description
//
// Loads .env if present, reads the YAML file at path (an explicitly
// named file must exist; the default "config.yaml" may be absent, in
// which case built-in defaults apply), overlays environment variables
// and validates the result.
//
// # Outputs
//
//   - *Config: the effective configuration.
//   - error: *ConfigurationError on a missing file or failed validation.
func Load(path string) (*Config, error) {
	// .env is a local development convenience; absence is fine.
	_ = godotenv.Load()

	explicit := path != ""
	if path == "" {
		path = "config.yaml"
	}

	var file yamlFile
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, &ConfigurationError{Message: fmt.Sprintf("invalid yaml in %s: %v", path, err)}
		}
	case os.IsNotExist(err) && !explicit:
		// fall through to defaults
	default:
		return nil, &ConfigurationError{Message: fmt.Sprintf("cannot read %s: %v", path, err)}
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:      intOr(file.Server.Port, 8080),
			UploadDir: stringOr(file.Server.UploadDir, "./uploads"),
		},
		Weaviate: WeaviateConfig{
			Host:   envOr("WEAVIATE_HOST", "localhost:8081"),
			Scheme: envOr("WEAVIATE_SCHEME", "http"),
		},
		LLM: LLMConfig{
			Backend:     envOr("LLM_BACKEND_TYPE", "ollama"),
			Temperature: float32Or(file.LLM.Temperature, 0.7),
			MaxTokens:   intOr(file.LLM.MaxTokens, 2000),
			Streaming:   boolOr(file.LLM.Streaming, true),
		},
		Embedding: EmbeddingConfig{
			Provider: envOr("EMBEDDING_PROVIDER", "ollama"),
			Model:    os.Getenv("EMBEDDING_MODEL"),
		},
		Chunking: ChunkingConfig{
			ChunkSize:    intOr(file.Chunking.ChunkSize, 1000),
			ChunkOverlap: intOr(file.Chunking.ChunkOverlap, 200),
		},
		Retrieval: RetrievalConfig{
			TopK:           intOr(file.Retrieval.TopK, 5),
			ScoreThreshold: float64Or(file.Retrieval.ScoreThreshold, 0.7),
		},
		Ingestion: IngestionConfig{
			MaskPII:   boolOr(file.Ingestion.MaskPII, true),
			MaskChar:  stringOr(file.Ingestion.MaskChar, "*"),
			MaxFileMB: int64Or(file.Ingestion.MaxFileMB, 50),
			WatchDir:  boolOr(file.Ingestion.WatchDir, true),
		},
	}

	if port := os.Getenv("PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return nil, &ConfigurationError{Message: fmt.Sprintf("invalid PORT %q", port)}
		}
		cfg.Server.Port = p
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate enforces the credential requirements of the selected
// backends. Failing here is fatal at startup only.
func (c *Config) validate() error {
	if c.LLM.Backend == "openai" && os.Getenv("OPENAI_API_KEY") == "" {
		return &ConfigurationError{Message: "OPENAI_API_KEY not set for LLM backend openai"}
	}
	if c.LLM.Backend == "ollama" && os.Getenv("OLLAMA_BASE_URL") == "" {
		return &ConfigurationError{Message: "OLLAMA_BASE_URL not set for LLM backend ollama"}
	}
	if c.Embedding.Provider == "openai" && os.Getenv("OPENAI_API_KEY") == "" {
		return &ConfigurationError{Message: "OPENAI_API_KEY not set for embedding provider openai"}
	}
	if c.Embedding.Provider == "ollama" && os.Getenv("OLLAMA_BASE_URL") == "" {
		return &ConfigurationError{Message: "OLLAMA_BASE_URL not set for embedding provider ollama"}
	}
	if c.Chunking.ChunkOverlap >= c.Chunking.ChunkSize {
		return &ConfigurationError{Message: fmt.Sprintf(
			"chunk_overlap %d must be smaller than chunk_size %d",
			c.Chunking.ChunkOverlap, c.Chunking.ChunkSize)}
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func intOr(v *int, fallback int) int {
	if v != nil {
		return *v
	}
	return fallback
}

func int64Or(v *int64, fallback int64) int64 {
	if v != nil {
		return *v
	}
	return fallback
}

func float32Or(v *float32, fallback float32) float32 {
	if v != nil {
		return *v
	}
	return fallback
}

func float64Or(v *float64, fallback float64) float64 {
	if v != nil {
		return *v
	}
	return fallback
}

func boolOr(v *bool, fallback bool) bool {
	if v != nil {
		return *v
	}
	return fallback
}

func stringOr(v *string, fallback string) string {
	if v != nil {
		return *v
	}
	return fallback
}
