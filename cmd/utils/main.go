package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/appetiteclub/apt"

	"github.com/cafetab/cafetab/cmd/utils/internal/commands"
)

const (
	appName    = "cafetab-utils"
	appVersion = "0.1.0"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	config, err := apt.LoadConfig("UTILS", os.Args[2:])
	if err != nil {
		log.Fatalf("Cannot load config: %v", err)
	}

	logLevel, _ := config.GetString("log.level")
	if logLevel == "" {
		logLevel = "info"
	}
	logger := apt.NewLogger(logLevel)

	ctx := context.Background()
	command := os.Args[1]

	switch command {
	case "seed-demo":
		if err := commands.SeedDemo(ctx, config, logger); err != nil {
			log.Fatalf("Demo seeding failed: %v", err)
		}
		logger.Info("Demo seeding completed successfully")

	case "clear-demo":
		if err := commands.ClearDemo(ctx, config, logger); err != nil {
			log.Fatalf("Clear demo data failed: %v", err)
		}
		logger.Info("Demo data cleared successfully")

	case "reset-db":
		if err := commands.ResetDB(ctx, config, logger); err != nil {
			log.Fatalf("Database reset failed: %v", err)
		}
		logger.Info("Database reset completed successfully")

	case "version":
		fmt.Printf("%s version %s\n", appName, appVersion)

	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Printf(`%s - maintenance utilities

Usage:
  utils <command> [options]

Commands:
  seed-demo    Seed a demo menu, tables and an active billing period
  clear-demo   Remove demo data
  reset-db     Drop the database (destructive)
  version      Print version

Options:
  --mongo.url  MongoDB connection string (default mongodb://localhost:27017)
  --log.level  Log level (default info)
`, appName)
}
