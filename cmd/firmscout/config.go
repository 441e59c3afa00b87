// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"time"

	"github.com/spf13/viper"

	"github.com/meshintel/firmscout/pkg/types"
)

// engineConfig assembles the engine configuration from viper, applying the
// documented defaults for anything the config file leaves unset. The API key
// comes from secrets, never from the config file.
func engineConfig() types.EngineConfig {
	viper.SetDefault("service.base_url", "")
	viper.SetDefault("service.timeout", 15*time.Second)
	viper.SetDefault("service.user_agent", "firmscout/"+version)
	viper.SetDefault("service.max_retries", 5)
	viper.SetDefault("service.rate_limit_rps", 0.0)

	viper.SetDefault("credits.unit_cost", 5)
	viper.SetDefault("credits.max_batch_size", 50)

	viper.SetDefault("progress.tick_interval", 500*time.Millisecond)
	viper.SetDefault("progress.tick_step", 3)
	viper.SetDefault("progress.soft_cap", 90)
	viper.SetDefault("progress.poll_interval", 2*time.Second)
	viper.SetDefault("progress.poll_budget", 90*time.Second)

	viper.SetDefault("store.data_dir", ".firmscout")

	viper.SetDefault("collection.suppression_passes", 3)
	viper.SetDefault("collection.list_limit", 500)

	return types.EngineConfig{
		Service: types.SearchServiceConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   viper.GetDuration("service.timeout"),
				UserAgent: viper.GetString("service.user_agent"),
			},
			BaseURL:      viper.GetString("service.base_url"),
			APIKey:       apiKey(),
			MaxRetries:   viper.GetInt("service.max_retries"),
			RateLimitRPS: viper.GetFloat64("service.rate_limit_rps"),
		},
		Credits: types.CreditConfig{
			UnitCost:     viper.GetInt("credits.unit_cost"),
			MaxBatchSize: viper.GetInt("credits.max_batch_size"),
		},
		Progress: types.ProgressConfig{
			TickInterval: viper.GetDuration("progress.tick_interval"),
			TickStep:     viper.GetInt("progress.tick_step"),
			SoftCap:      viper.GetInt("progress.soft_cap"),
			PollInterval: viper.GetDuration("progress.poll_interval"),
			PollBudget:   viper.GetDuration("progress.poll_budget"),
		},
		Store: types.StoreConfig{
			DataDir: viper.GetString("store.data_dir"),
		},
		Collection: types.CollectionConfig{
			SuppressionPasses: viper.GetInt("collection.suppression_passes"),
			ListLimit:         viper.GetInt("collection.list_limit"),
		},
	}
}
