package ai

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/scholar/internal/adapters/driven/embedding/hashing"
	"github.com/custodia-labs/scholar/internal/core/domain"
)

// ollamaServer answers every request with status and body.
func ollamaServer(t *testing.T, status int, body string) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv.URL
}

// deadURL is an address nothing listens on any more.
func deadURL() string {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	return srv.URL
}

func TestCreateEmbeddingService_Unconfigured(t *testing.T) {
	for name, s := range map[string]*domain.EmbeddingSettings{
		"nil":              nil,
		"empty":            {},
		"openai no key":    {Provider: domain.AIProviderOpenAI},
		"unknown provider": {Provider: "unknown", APIKey: "k"},
	} {
		t.Run(name, func(t *testing.T) {
			svc, err := CreateEmbeddingService(s)
			assert.NoError(t, err)
			assert.Nil(t, svc)
		})
	}
}

func TestCreateEmbeddingService_Providers(t *testing.T) {
	tests := []struct {
		name     string
		settings domain.EmbeddingSettings
		dims     int
	}{
		{"hashing explicit", domain.EmbeddingSettings{Provider: domain.AIProviderHashing, Dimensions: 64}, 64},
		{"hashing default", domain.EmbeddingSettings{Provider: domain.AIProviderHashing}, hashing.DefaultDimensions},
		{"ollama known model", domain.EmbeddingSettings{Provider: domain.AIProviderOllama, Model: "mxbai-embed-large"}, 1024},
		{"ollama unknown model", domain.EmbeddingSettings{Provider: domain.AIProviderOllama, Model: "custom"}, 768},
		{"ollama explicit wins", domain.EmbeddingSettings{Provider: domain.AIProviderOllama, Model: "custom", Dimensions: 512}, 512},
		{"openai small", domain.EmbeddingSettings{Provider: domain.AIProviderOpenAI, APIKey: "k", Model: "text-embedding-3-small"}, 1536},
		{"openai large", domain.EmbeddingSettings{Provider: domain.AIProviderOpenAI, APIKey: "k", Model: "text-embedding-3-large"}, 3072},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := CreateEmbeddingService(&tt.settings)
			require.NoError(t, err)
			require.NotNil(t, svc)
			defer svc.Close()
			assert.Equal(t, tt.dims, svc.Dimensions())
		})
	}
}

func TestDimensions_Precedence(t *testing.T) {
	s := &domain.EmbeddingSettings{Model: "nomic-embed-text"}
	assert.Equal(t, 768, dimensions(s, 1))

	s.Dimensions = 42
	assert.Equal(t, 42, dimensions(s, 1))

	assert.Equal(t, 7, dimensions(&domain.EmbeddingSettings{Model: "mystery"}, 7))
}

func TestCreateAndValidateEmbeddingService(t *testing.T) {
	t.Run("reachable", func(t *testing.T) {
		url := ollamaServer(t, http.StatusOK, `{"models":[{"name":"nomic-embed-text:latest"}]}`)

		svc, err := CreateAndValidateEmbeddingService(&domain.EmbeddingSettings{
			Provider: domain.AIProviderOllama, Model: "nomic-embed-text", BaseURL: url,
		})
		require.NoError(t, err)
		require.NotNil(t, svc)
		svc.Close()
	})

	t.Run("unreachable", func(t *testing.T) {
		svc, err := CreateAndValidateEmbeddingService(&domain.EmbeddingSettings{
			Provider: domain.AIProviderOllama, Model: "nomic-embed-text", BaseURL: deadURL(),
		})
		assert.Nil(t, svc)
		assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
		assert.ErrorContains(t, err, "scholar settings embedding")
	})

	t.Run("unconfigured", func(t *testing.T) {
		svc, err := CreateAndValidateEmbeddingService(&domain.EmbeddingSettings{Provider: domain.AIProviderOpenAI})
		assert.NoError(t, err)
		assert.Nil(t, svc)
	})
}

func TestInitialise(t *testing.T) {
	t.Run("configured provider is used", func(t *testing.T) {
		result := Initialise(&domain.EmbeddingSettings{Provider: domain.AIProviderHashing, Dimensions: 32})
		defer result.Close()

		assert.False(t, result.FellBack)
		assert.Empty(t, result.Warnings)
		assert.Equal(t, 32, result.EmbeddingService.Dimensions())
	})

	t.Run("missing key falls back", func(t *testing.T) {
		result := Initialise(&domain.EmbeddingSettings{Provider: domain.AIProviderOpenAI})
		defer result.Close()

		assert.True(t, result.FellBack)
		assert.Equal(t, hashing.ModelName, result.EmbeddingService.ModelName())
		require.Len(t, result.Warnings, 1)
		assert.Contains(t, result.Warnings[0], "openai")
	})

	t.Run("nil settings fall back", func(t *testing.T) {
		result := Initialise(nil)
		defer result.Close()

		assert.True(t, result.FellBack)
		assert.Equal(t, []string{"no embedding provider is configured"}, result.Warnings)
	})

	t.Run("failing provider falls back", func(t *testing.T) {
		url := ollamaServer(t, http.StatusInternalServerError, "")

		result := Initialise(&domain.EmbeddingSettings{
			Provider: domain.AIProviderOllama, Model: "nomic-embed-text", BaseURL: url,
		})
		defer result.Close()

		assert.True(t, result.FellBack)
		assert.Len(t, result.Warnings, 1)
	})

	t.Run("close without a service", func(t *testing.T) {
		(&InitResult{}).Close()
	})
}
