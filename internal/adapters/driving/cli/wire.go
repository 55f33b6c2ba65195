package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/scholar/internal/adapters/driven/ai"
	configfile "github.com/custodia-labs/scholar/internal/adapters/driven/config/file"
	corpusfile "github.com/custodia-labs/scholar/internal/adapters/driven/corpus/file"
	"github.com/custodia-labs/scholar/internal/adapters/driven/storage/jsonfile"
	"github.com/custodia-labs/scholar/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/scholar/internal/adapters/driven/storage/redis"
	"github.com/custodia-labs/scholar/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/scholar/internal/core/domain"
	"github.com/custodia-labs/scholar/internal/core/ports/driven"
	"github.com/custodia-labs/scholar/internal/core/services"
	"github.com/custodia-labs/scholar/internal/index"
	"github.com/custodia-labs/scholar/internal/index/sparse"
	"github.com/custodia-labs/scholar/internal/logger"
	"github.com/custodia-labs/scholar/internal/normalisers"
	"github.com/custodia-labs/scholar/internal/postprocessors"
)

// openAIKeyEnv supplies the OpenAI key when none is configured.
const openAIKeyEnv = "OPENAI_API_KEY"

// wireServices is the composition root. It builds every driven adapter from
// the stored settings and assigns the driving services used by commands.
func wireServices(cmd *cobra.Command) error {
	start := time.Now()
	defer logger.Elapsed("wire services", start)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	configStore, err := configfile.NewConfigStore(configDir)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	settingsSvc := services.NewSettingsService(configStore, ai.NewConfigValidator())
	settingsService = settingsSvc

	settings, err := settingsSvc.Get()
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	if settings.Embedding.APIKey == "" && settings.Embedding.Provider == domain.AIProviderOpenAI {
		settings.Embedding.APIKey = os.Getenv(openAIKeyEnv)
	}

	embedding := ai.Initialise(&settings.Embedding)
	for _, w := range embedding.Warnings {
		logger.Warn("%s; using the offline hashing embedder", w)
	}
	closeFuncs = append(closeFuncs, func() error {
		embedding.Close()
		return nil
	})

	manager := index.NewManager(embedding.EmbeddingService, sparse.Options{
		MaxFeatures: settings.Sparse.MaxFeatures,
		MinN:        settings.Sparse.MinN,
		MaxN:        settings.Sparse.MaxN,
	})

	store, err := sqlite.NewStore(dataDir)
	if err != nil {
		return fmt.Errorf("open corpus store: %w", err)
	}
	closeFuncs = append(closeFuncs, store.Close)

	pipeline, err := postprocessors.NewDefaultPipeline(settings.Ingest)
	if err != nil {
		return fmt.Errorf("build ingest pipeline: %w", err)
	}

	indexSvc := services.NewIndexService(store.DocumentStore(), manager, pipeline,
		corpusfile.NewReader(), normalisers.NewDefaultReader())
	n, err := indexSvc.Load(ctx)
	if err != nil {
		return fmt.Errorf("load corpus: %w", err)
	}
	logger.Debug("Indexed %d stored documents", n)
	indexService = indexSvc

	searchService = services.NewSearchService(manager, settings.Search)

	convStore, err := openConversationStore(settings, store)
	if err != nil {
		return err
	}
	closeFuncs = append(closeFuncs, convStore.Close)

	convSvc := services.NewConversationService(convStore, settings.Conversation)
	if err := convSvc.Load(ctx); err != nil {
		logger.Warn("Loading conversations failed, starting empty: %v", err)
	}
	conversationService = convSvc

	return nil
}

// openConversationStore selects the conversation backend.
func openConversationStore(settings *domain.AppSettings, store *sqlite.Store) (driven.ConversationStore, error) {
	switch settings.Conversation.Backend {
	case domain.BackendSQLite:
		return store.ConversationStore(), nil
	case domain.BackendRedis:
		s, err := redis.NewConversationStore(settings.Redis)
		if err != nil {
			return nil, fmt.Errorf("open redis conversation store: %w", err)
		}
		return s, nil
	case domain.BackendMemory:
		return memory.NewConversationStore(), nil
	default:
		path := settings.Conversation.Path
		if path == "" && dataDir != "" {
			path = filepath.Join(dataDir, jsonfile.FileName)
		}
		s, err := jsonfile.NewConversationStore(path)
		if err != nil {
			return nil, fmt.Errorf("open conversation file: %w", err)
		}
		return s, nil
	}
}
