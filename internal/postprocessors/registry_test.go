package postprocessors

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/paperqa/internal/core/domain"
	"github.com/custodia-labs/paperqa/internal/core/ports/driven"
)

func mockBuilder(name string) BuilderFunc {
	return func(_ map[string]any) (driven.PostProcessor, error) {
		return &mockProcessor{name: name}, nil
	}
}

func TestRegistry_RegisterAndBuild(t *testing.T) {
	r := NewRegistry()
	assert.Empty(t, r.Names())
	assert.False(t, r.Has("test"))

	r.Register("test", func(cfg map[string]any) (driven.PostProcessor, error) {
		name := "default"
		if n, ok := cfg["name"].(string); ok {
			name = n
		}
		return &mockProcessor{name: name}, nil
	})

	assert.True(t, r.Has("test"))
	proc, err := r.Build("test", map[string]any{"name": "custom"})
	require.NoError(t, err)
	assert.Equal(t, "custom", proc.Name())
}

func TestRegistry_Build_UnknownProcessor(t *testing.T) {
	_, err := NewRegistry().Build("unknown", nil)
	assert.ErrorIs(t, err, ErrUnknownProcessor)
}

func TestRegistry_Names_Sorted(t *testing.T) {
	r := NewRegistry()
	r.Register("beta", mockBuilder("beta"))
	r.Register("alpha", mockBuilder("alpha"))

	assert.Equal(t, []string{"alpha", "beta"}, r.Names())
}

func TestRegistry_BuildPipeline(t *testing.T) {
	r := NewRegistry()
	r.Register("a", mockBuilder("a"))
	r.Register("b", mockBuilder("b"))

	p, err := r.BuildPipeline(domain.PipelineConfig{Processors: []string{"b", "a"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, p.Names())

	_, err = r.BuildPipeline(domain.PipelineConfig{Processors: []string{"a", "missing"}})
	assert.ErrorIs(t, err, ErrUnknownProcessor)

	_, err = r.BuildPipeline(domain.PipelineConfig{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRegisterDefaults(t *testing.T) {
	r := NewRegistry()
	RegisterDefaults(r)

	assert.Equal(t, []string{"chunker"}, r.Names())
}

func TestBuildChunker_AppliesConfig(t *testing.T) {
	proc, err := buildChunker(map[string]any{
		"chunk_size": int64(120),
		"overlap":    float64(0),
		"min_length": 10,
	})
	require.NoError(t, err)
	assert.Equal(t, "chunker", proc.Name())

	text := strings.Repeat("Short sentence about vectors. ", 20)
	chunks, err := proc.Process(context.Background(), &domain.Document{ID: "d", Content: text}, nil)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)
	for _, c := range chunks {
		assert.True(t, strings.HasPrefix(c.Content, "Short sentence"), "overlap 0 must not seed: %q", c.Content)
	}
}

func TestBuildChunker_NilConfigUsesDefaults(t *testing.T) {
	proc, err := buildChunker(nil)
	require.NoError(t, err)
	assert.Equal(t, "chunker", proc.Name())
}

func TestDefaultPipeline(t *testing.T) {
	p, err := DefaultPipeline(domain.DefaultPipelineConfig())
	require.NoError(t, err)
	assert.Equal(t, []string{"chunker"}, p.Names())

	text := strings.Repeat("Retrieval augmented generation grounds answers in papers. ", 60)
	chunks, err := p.Process(context.Background(), &domain.Document{ID: "doc", Content: text})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(chunks), 2)
}

func TestIntFromConfig(t *testing.T) {
	tests := []struct {
		name   string
		cfg    map[string]any
		want   int
		wantOK bool
	}{
		{"int value", map[string]any{"size": 100}, 100, true},
		{"int64 value", map[string]any{"size": int64(200)}, 200, true},
		{"float64 value", map[string]any{"size": float64(300)}, 300, true},
		{"zero value", map[string]any{"size": 0}, 0, true},
		{"string value", map[string]any{"size": "400"}, 0, false},
		{"missing key", map[string]any{"other": 100}, 0, false},
		{"nil config", nil, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := intFromConfig(tt.cfg, "size")
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantOK, ok)
		})
	}
}
