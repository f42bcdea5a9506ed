package main

import (
	"log"

	"motorreach/internal/config"
	"motorreach/internal/provider"
)

// newProviderClient selects the configured messaging provider client
func newProviderClient(cfg *config.Config) provider.Client {
	if cfg.Provider.Mock {
		log.Printf("Using mock provider (success rate %.2f)", cfg.Provider.SuccessRate)
		return provider.NewMockClient(cfg.Provider.SuccessRate)
	}

	log.Println("Using Twilio provider")
	return provider.NewTwilioClient(
		cfg.Provider.BaseURL,
		cfg.Provider.AccountID,
		cfg.Provider.AuthToken,
		cfg.Provider.FromNumber,
	)
}
