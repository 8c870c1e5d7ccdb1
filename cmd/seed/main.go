package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"cropcast/database"
	"cropcast/internal/config"
	"cropcast/internal/reference"
	"cropcast/internal/repository"
	"cropcast/internal/services"
	"cropcast/internal/utils"

	"github.com/joho/godotenv"
)

func init() {
	// Load .env file from project root
	if err := godotenv.Load(); err != nil {
		// Try loading from parent directory (in case running from cmd/seed/)
		if err := godotenv.Load("../../.env"); err != nil {
			log.Printf("Warning: No .env file found: %v", err)
		}
	}
}

func main() {
	checkCmd := flag.NewFlagSet("check", flag.ExitOnError)

	seedCmd := flag.NewFlagSet("seed", flag.ExitOnError)
	seedUser := seedCmd.Uint("user", 1, "Owner of the demo sessions")
	seedCrops := seedCmd.String("crops", "", "Comma separated crop names (required)")
	seedRegion := seedCmd.String("region", "서울", "Region recorded on the sessions")
	seedCount := seedCmd.Int("count", utils.DefaultDemoSessions, "Number of demo sessions to create")

	deleteCmd := flag.NewFlagSet("delete", flag.ExitOnError)
	deleteUser := deleteCmd.Uint("user", 0, "Delete every session of this user (required)")

	if len(os.Args) < 2 {
		printHelp()
		os.Exit(1)
	}

	cfg := config.LoadConfig()

	switch os.Args[1] {
	case "check":
		checkCmd.Parse(os.Args[2:])

		tables, regions := loadReference(cfg)
		crops := tables.Crops()
		log.Printf("Loaded %d crops and %d regions", len(crops), len(regions.List()))

		problems := utils.CheckReferenceTables(crops, regions.List())
		for _, p := range problems {
			log.Printf("  - %s", p)
		}
		if len(problems) > 0 {
			os.Exit(1)
		}
		log.Println("Reference tables look good")

	case "seed":
		seedCmd.Parse(os.Args[2:])

		var crops []string
		for _, name := range strings.Split(*seedCrops, ",") {
			if name = strings.TrimSpace(name); name != "" {
				crops = append(crops, name)
			}
		}
		if len(crops) == 0 {
			log.Fatal("--crops is required")
		}

		tables, regions := loadReference(cfg)
		if _, ok := regions.Lookup(*seedRegion); !ok {
			log.Fatalf("Unknown region %s", *seedRegion)
		}

		repo := connectRepository(cfg)
		ids, err := utils.SeedDemoSessions(repo, services.NewIncomeService(tables), *seedUser, crops, *seedRegion, *seedCount)
		if err != nil {
			log.Fatalf("Error seeding sessions: %v", err)
		}
		for _, id := range ids {
			fmt.Println(id)
		}

	case "delete":
		deleteCmd.Parse(os.Args[2:])
		if *deleteUser == 0 {
			log.Fatal("--user is required")
		}

		repo := connectRepository(cfg)
		if _, err := utils.DeleteUserSessions(repo, *deleteUser); err != nil {
			log.Fatalf("Error deleting sessions: %v", err)
		}

	case "help":
		printHelp()

	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		printHelp()
		os.Exit(1)
	}
}

func loadReference(cfg *config.Config) (*reference.Tables, *config.Regions) {
	tables, err := reference.LoadTables(cfg.CropIncomeTable, cfg.CropCodeTable)
	if err != nil {
		log.Fatalf("Failed to load reference tables: %v", err)
	}
	regions, err := config.LoadRegions(cfg.RegionsFile)
	if err != nil {
		log.Fatalf("Failed to load regions: %v", err)
	}
	return tables, regions
}

func connectRepository(cfg *config.Config) repository.PredictionSessionRepository {
	if err := database.ConnectDatabase(cfg.DSN()); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.MigrateDatabase(); err != nil {
		log.Fatalf("Failed to run database migrations: %v", err)
	}
	return repository.NewPredictionSessionRepository(database.DB)
}

func printHelp() {
	fmt.Println("Cropcast data tool")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  go run cmd/seed/main.go <command> [options]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  check    Load the reference tables and report crops that cannot be predicted")
	fmt.Println("  seed     Store demo sessions built from the income tables")
	fmt.Println("  delete   Delete every session of a user")
	fmt.Println("  help     Show this help message")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  go run cmd/seed/main.go check")
	fmt.Println("  go run cmd/seed/main.go seed --user=1 --crops=감자,배추 --count=3")
	fmt.Println("  go run cmd/seed/main.go delete --user=1")
}
