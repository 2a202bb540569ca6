package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Pipeline is the YAML form of the tunable ingestion and answer settings.
// Zero values leave the environment configuration untouched.
type Pipeline struct {
	Chunking   ChunkingSettings   `yaml:"chunking"`
	Retrieval  RetrievalSettings  `yaml:"retrieval"`
	Grounding  GroundingSettings  `yaml:"grounding"`
	Generation GenerationSettings `yaml:"generation"`
}

type ChunkingSettings struct {
	ChunkSize    int `yaml:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap"`
}

type RetrievalSettings struct {
	TopK            int `yaml:"top_k"`
	MaxContextChars int `yaml:"max_context_chars"`
}

type GroundingSettings struct {
	Threshold *float64 `yaml:"threshold"`
	UseModel  *bool    `yaml:"use_model"`
	Model     string   `yaml:"model"`
}

type GenerationSettings struct {
	Model          string `yaml:"model"`
	PromptTemplate string `yaml:"prompt_template"`
}

// LoadPipeline reads a pipeline YAML file.
func LoadPipeline(path string) (*Pipeline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pipeline file: %w", err)
	}

	var p Pipeline
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse pipeline file %s: %w", path, err)
	}

	return &p, nil
}

// ApplyPipeline overlays the non-zero pipeline settings on c.
func (c *Config) ApplyPipeline(p *Pipeline) {
	if p == nil {
		return
	}

	if p.Chunking.ChunkSize > 0 {
		c.ChunkSize = p.Chunking.ChunkSize
	}
	if p.Chunking.ChunkOverlap > 0 {
		c.ChunkOverlap = p.Chunking.ChunkOverlap
	}
	if p.Retrieval.TopK > 0 {
		c.TopK = p.Retrieval.TopK
	}
	if p.Retrieval.MaxContextChars > 0 {
		c.MaxContextChars = p.Retrieval.MaxContextChars
	}
	if p.Grounding.Threshold != nil {
		c.GroundingThreshold = *p.Grounding.Threshold
	}
	if p.Grounding.UseModel != nil {
		c.ModelGroundingEnabled = *p.Grounding.UseModel
	}
	if p.Grounding.Model != "" {
		c.GroundingModel = p.Grounding.Model
	}
	if p.Generation.Model != "" {
		c.ChatModel = p.Generation.Model
	}
	if p.Generation.PromptTemplate != "" {
		c.PromptTemplate = p.Generation.PromptTemplate
	}
}
