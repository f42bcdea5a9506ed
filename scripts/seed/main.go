package main

import (
	"database/sql"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"motorreach/internal/config"
)

// ANSI color codes for terminal output
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
)

// Command-line flags
var (
	contactsCount  = flag.Int("contacts", 20, "Number of contacts to create")
	campaignsCount = flag.Int("campaigns", 2, "Number of campaigns to create")
	clearData      = flag.Bool("clear", false, "Clear existing data before inserting")
	showHelp       = flag.Bool("help", false, "Show usage information")
)

var firstNames = []string{
	"Ana", "Luis", "María", "Carlos", "Sofía", "Jorge", "Lucía", "Miguel",
	"Elena", "Pedro", "Valeria", "Diego", "Carmen", "Andrés", "Gabriela",
}

var lastNames = []string{
	"García", "Hernández", "López", "Ramírez", "Martínez", "Torres",
	"Flores", "Rivera", "Gómez", "Díaz",
}

var vehicleCatalog = []struct {
	Make  string
	Model string
}{
	{"Toyota", "Corolla"},
	{"Toyota", "RAV4"},
	{"Nissan", "Versa"},
	{"Nissan", "Sentra"},
	{"Mazda", "CX-5"},
	{"Mazda", "3"},
	{"Honda", "Civic"},
	{"Volkswagen", "Jetta"},
}

var campaignTemplates = []string{
	"Hola {{nombre}}, ¿sigues interesado en tu {{marca}} {{modelo}} {{anio}}? Responde BAJA para no recibir más mensajes.",
	"{{nombre}}, tenemos una promoción en unidades {{marca}}. Escríbenos para más detalles.",
}

func main() {
	flag.Parse()

	if *showHelp {
		printUsage()
		os.Exit(0)
	}

	// Load .env file (ignore error if not present)
	_ = godotenv.Load()

	printInfo("=== MotorReach Database Seeder ===\n")

	cfg, err := config.Load()
	if err != nil {
		printError(fmt.Sprintf("Failed to load configuration: %v", err))
		os.Exit(1)
	}

	printInfo("Connecting to database...")
	db, err := sql.Open("postgres", cfg.GetDatabaseDSN())
	if err != nil {
		printError(fmt.Sprintf("Failed to open database connection: %v", err))
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		printError(fmt.Sprintf("Failed to ping database: %v", err))
		os.Exit(1)
	}
	printSuccess("✓ Connected to database\n")

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	if *clearData {
		printWarning("Clearing existing data...")
		if err := clearTables(db); err != nil {
			printError(fmt.Sprintf("Failed to clear data: %v", err))
			os.Exit(1)
		}
		printSuccess("✓ Existing data cleared\n")
	}

	contactIDs, err := seedContacts(db, rng, *contactsCount)
	if err != nil {
		printError(fmt.Sprintf("Failed to seed contacts: %v", err))
		os.Exit(1)
	}
	printSuccess(fmt.Sprintf("✓ Created %d contacts with vehicles", len(contactIDs)))

	if err := seedCampaigns(db, rng, *campaignsCount); err != nil {
		printError(fmt.Sprintf("Failed to seed campaigns: %v", err))
		os.Exit(1)
	}
	printSuccess(fmt.Sprintf("✓ Created %d campaigns", *campaignsCount))

	printInfo("\n✨ Seeding completed successfully!")
}

func clearTables(db *sql.DB) error {
	// Reverse dependency order
	tables := []string{"messages", "campaign_recipients", "campaigns", "opt_outs", "vehicles", "contacts"}
	for _, table := range tables {
		if _, err := db.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	return nil
}

func seedContacts(db *sql.DB, rng *rand.Rand, count int) ([]int, error) {
	ids := make([]int, 0, count)

	for i := 0; i < count; i++ {
		name := firstNames[rng.Intn(len(firstNames))] + " " + lastNames[rng.Intn(len(lastNames))]
		phone := fmt.Sprintf("+52155%08d", rng.Intn(100000000))

		var id int
		err := db.QueryRow(
			`INSERT INTO contacts (phone, name, status) VALUES ($1, $2, 'active')
			 ON CONFLICT (phone) DO UPDATE SET name = EXCLUDED.name
			 RETURNING id`,
			phone, name,
		).Scan(&id)
		if err != nil {
			return nil, fmt.Errorf("failed to insert contact: %w", err)
		}

		vehicle := vehicleCatalog[rng.Intn(len(vehicleCatalog))]
		year := 2015 + rng.Intn(10)
		price := float64(180000 + rng.Intn(400000))

		_, err = db.Exec(
			`INSERT INTO vehicles (contact_id, make, model, year, price, link)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			id, vehicle.Make, vehicle.Model, year, price,
			fmt.Sprintf("https://example.com/autos/%d", id),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to insert vehicle: %w", err)
		}

		ids = append(ids, id)
	}

	return ids, nil
}

func seedCampaigns(db *sql.DB, rng *rand.Rand, count int) error {
	for i := 0; i < count; i++ {
		template := campaignTemplates[rng.Intn(len(campaignTemplates))]
		name := fmt.Sprintf("Campaña de prueba %d", i+1)

		_, err := db.Exec(
			`INSERT INTO campaigns (name, template, status) VALUES ($1, $2, 'draft')`,
			name, template,
		)
		if err != nil {
			return fmt.Errorf("failed to insert campaign: %w", err)
		}
	}

	return nil
}

// Helper functions for colored output

func printSuccess(msg string) {
	fmt.Printf("%s%s%s\n", colorGreen, msg, colorReset)
}

func printError(msg string) {
	fmt.Fprintf(os.Stderr, "%s%s%s\n", colorRed, msg, colorReset)
}

func printInfo(msg string) {
	fmt.Printf("%s%s%s\n", colorCyan, msg, colorReset)
}

func printWarning(msg string) {
	fmt.Printf("%s%s%s\n", colorYellow, msg, colorReset)
}

func printUsage() {
	printInfo("=== MotorReach Database Seeder ===\n")
	fmt.Println("Usage: go run ./scripts/seed [flags]")
	fmt.Println("\nFlags:")
	flag.PrintDefaults()
	fmt.Println("\nExamples:")
	fmt.Println("  go run ./scripts/seed")
	fmt.Println("  go run ./scripts/seed -contacts 50 -campaigns 5")
	fmt.Println("  go run ./scripts/seed -clear")
}
