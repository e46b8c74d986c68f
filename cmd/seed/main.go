// Command seed loads the tier ladder and reward catalog from a program file
// and can mint an operator token for the admin API.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"loyalty/internal/config"
	"loyalty/internal/models"
	"loyalty/internal/repositories"
	"loyalty/internal/utils"
)

func main() {
	programPath := flag.String("program", "", "program file (defaults to PROGRAM_FILE)")
	adminRef := flag.String("admin", "", "also print an admin token for this operator")
	tokenTTL := flag.Duration("token-ttl", 24*time.Hour, "admin token lifetime")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *programPath == "" {
		*programPath = cfg.ProgramFile
	}

	program, err := config.LoadProgramFile(*programPath)
	if err != nil {
		log.Fatal(err)
	}

	db, err := repositories.Open(cfg.DB)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer repositories.Close(db)

	store := repositories.NewStore(db, cfg.DB.TxMaxAttempts)
	if err := repositories.SeedProgram(context.Background(), store, program); err != nil {
		log.Fatalf("Failed to seed program: %v", err)
	}
	log.Printf("✅ Seeded %d tiers and %d rewards from %s", len(program.Tiers), len(program.Rewards), *programPath)

	if *adminRef != "" {
		token, err := utils.GenerateAdminToken(cfg.JWTSecret, *adminRef,
			[]string{models.PermissionReadAdmin, models.PermissionWriteAdmin}, *tokenTTL)
		if err != nil {
			log.Fatalf("Failed to sign admin token: %v", err)
		}
		fmt.Println(token)
	}
}
