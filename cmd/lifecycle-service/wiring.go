package main

import (
	"os"

	"caterrides-core/internal/logger"
	"caterrides-core/internal/models"
	"caterrides-core/internal/pass"
)

// noopPublisher stands in for Kafka when streaming is disabled; the business
// operations never depend on publish succeeding.
type noopPublisher struct{}

func (noopPublisher) PublishApplicationSubmitted(models.Application) error { return nil }
func (noopPublisher) PublishApplicationDecided(models.Application) error   { return nil }
func (noopPublisher) PublishApplicationWithdrawn(models.Application) error { return nil }

func newPassGenerator(log *logger.Logger) *pass.Generator {
	secret := os.Getenv("PASS_SECRET_KEY")
	if secret == "" {
		log.Warn("SERVER", "PASS_SECRET_KEY not set, using development default")
		secret = "dev-pass-secret"
	}
	return pass.NewGenerator(secret)
}
