package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/scholar/internal/core/domain"
	"github.com/custodia-labs/scholar/internal/core/ports/driven"
)

var _ driven.AIConfigValidator = (*ConfigValidator)(nil)

// probeText is embedded once to confirm the model returns vectors of the
// advertised width.
const probeText = "scholar connectivity probe"

// ConfigValidator checks embedding settings before they are saved. It pings
// the provider and embeds one probe text, so a model that answers with a
// different vector width than configured is caught here rather than on the
// next index rebuild.
type ConfigValidator struct {
	timeout time.Duration
	create  func(*domain.EmbeddingSettings) (driven.EmbeddingService, error)
}

// NewConfigValidator creates a validator using the provider factory.
func NewConfigValidator() *ConfigValidator {
	return &ConfigValidator{timeout: pingTimeout, create: CreateEmbeddingService}
}

// WithTimeout bounds the ping and probe together.
func (v *ConfigValidator) WithTimeout(d time.Duration) *ConfigValidator {
	if d > 0 {
		v.timeout = d
	}
	return v
}

// ValidateEmbedding returns nil for settings with nothing to check, such as
// an unset provider or OpenAI without a key.
func (v *ConfigValidator) ValidateEmbedding(settings *domain.EmbeddingSettings) error {
	if settings == nil || !settings.IsConfigured() {
		return nil
	}

	svc, err := v.create(settings)
	if err != nil {
		return err
	}
	if svc == nil {
		return nil
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), v.timeout)
	defer cancel()

	if err := svc.Ping(ctx); err != nil {
		return err
	}

	vec, err := svc.Embed(ctx, probeText)
	if err != nil {
		return fmt.Errorf("probe embedding with %s: %w", svc.ModelName(), err)
	}
	if want := svc.Dimensions(); want > 0 && len(vec) != want {
		return fmt.Errorf("model %s returned %d dimensions, configured for %d: %w",
			svc.ModelName(), len(vec), want, domain.ErrInvalidInput)
	}
	return nil
}
