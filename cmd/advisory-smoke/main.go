package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/songkhoe/backend/internal/advisory"
	"github.com/songkhoe/backend/internal/config"
	"github.com/songkhoe/backend/internal/llm"
	"github.com/songkhoe/backend/internal/vitals"
	"github.com/songkhoe/backend/pkg/model"
)

func main() {
	recordsPath := pflag.StringP("records", "r", "", "JSON file holding an array of health records (defaults to a generated week)")
	days := pflag.IntP("days", "d", 7, "number of generated days when no records file is given")
	timeout := pflag.Duration("timeout", 0, "override ai.timeout")
	pflag.Parse()

	logger, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}
	if *timeout > 0 {
		cfg.AI.Timeout = *timeout
	}

	var records []model.HealthRecord
	if *recordsPath != "" {
		records, err = loadRecords(afero.NewOsFs(), *recordsPath)
		if err != nil {
			logger.Fatal("Failed to read records", zap.Error(err))
		}
	} else {
		if err := validateDays(*days); err != nil {
			logger.Fatal("Invalid --days", zap.Error(err))
		}
		records = sampleWeek(*days, time.Now())
	}

	backend, err := llm.NewBackend(cfg.AI, logger)
	if err != nil {
		logger.Fatal("Failed to initialize completion backend", zap.Error(err))
	}

	client := advisory.New(backend, logger,
		advisory.WithWindow(cfg.AI.Window),
		advisory.WithTimeout(cfg.AI.Timeout),
		advisory.WithModel(cfg.AI.Model),
	)

	logger.Info("=== Requesting advisories ===",
		zap.String("provider", cfg.AI.Provider),
		zap.String("model", cfg.AI.Model),
		zap.Bool("configured", client.Configured()),
		zap.Int("record_count", len(records)),
	)

	start := time.Now()
	entries := client.RequestAdvisories(context.Background(), records)
	logger.Info("Advisories received",
		zap.Int("count", len(entries)),
		zap.Duration("elapsed", time.Since(start)),
	)

	out, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		logger.Fatal("Failed to encode advisories", zap.Error(err))
	}
	fmt.Println(string(out))
}

func loadRecords(fs afero.Fs, path string) ([]model.HealthRecord, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, err
	}

	var records []model.HealthRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return records, nil
}

// maxSampleDays keeps generated measurements inside the form's valid ranges
const maxSampleDays = 14

func validateDays(days int) error {
	if days < 1 || days > maxSampleDays {
		return fmt.Errorf("days must be between 1 and %d, got %d", maxSampleDays, days)
	}
	return nil
}

// sampleWeek generates one record per day ending today with a slowly rising blood pressure
func sampleWeek(days int, now time.Time) []model.HealthRecord {
	records := make([]model.HealthRecord, 0, days)
	for i := days - 1; i >= 0; i-- {
		in := vitals.Defaults()
		in.Systolic += float64((days - i) * 4)
		in.Steps -= (days - i) * 300
		in.SleepDuration -= float64(days-i) * 0.2
		in.ExpenseAmount = 50000
		in.ExpenseNote = "thuốc huyết áp"

		day := now.AddDate(0, 0, -i)
		records = append(records, vitals.NewRecord(in, fmt.Sprintf("%d", day.UnixMilli()), day))
	}
	return records
}
