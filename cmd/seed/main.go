package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/exam-mentor/backend/internal/config"
	"github.com/exam-mentor/backend/internal/content"
	"github.com/exam-mentor/backend/internal/database"
	"github.com/exam-mentor/backend/internal/models"
	"github.com/exam-mentor/backend/internal/store"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
)

var (
	bundlePath   string
	demoEmail    string
	demoPassword string
	skipDemo     bool
)

func main() {
	root := &cobra.Command{
		Use:   "seed",
		Short: "Load exam content and a demo student into the database",
		RunE:  runSeed,
	}
	root.Flags().StringVarP(&bundlePath, "bundle", "b", "", "content bundle (.json, .yaml); the built-in bundle when empty")
	root.Flags().StringVar(&demoEmail, "demo-email", "student@exammentor.dev", "email of the demo student")
	root.Flags().StringVar(&demoPassword, "demo-password", "student123", "password of the demo student")
	root.Flags().BoolVar(&skipDemo, "no-demo", false, "do not create the demo student")

	validate := &cobra.Command{
		Use:   "validate [bundle]",
		Short: "Check a content bundle without touching the database",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			b, err := readBundle(path)
			if err != nil {
				return err
			}
			concepts := 0
			for _, t := range b.Topics {
				concepts += len(t.Concepts)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok: %d topics, %d concepts, %d questions\n",
				len(b.Topics), concepts, b.QuestionCount())
			return nil
		},
	}
	root.AddCommand(validate)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func readBundle(path string) (*content.Bundle, error) {
	if path == "" {
		return content.Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read bundle: %w", err)
	}
	return content.ParseBundle(path, data)
}

func runSeed(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	b, err := readBundle(bundlePath)
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	st := store.New(db)
	err = st.InTx(ctx, func(tx *store.Store) error {
		res, err := content.Load(ctx, tx, b)
		if err != nil {
			return err
		}
		if res.Skipped {
			log.Println("[seed] database already seeded")
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("load content: %w", err)
	}

	if !skipDemo {
		if err := ensureDemoStudent(ctx, st, cfg.Engine.DefaultDailyMinutes); err != nil {
			return err
		}
	}

	log.Println("[seed] done")
	return nil
}

func ensureDemoStudent(ctx context.Context, st *store.Store, dailyMinutes int) error {
	email := strings.ToLower(strings.TrimSpace(demoEmail))
	existing, err := st.GetUserByEmail(ctx, email)
	if err != nil {
		return err
	}
	if existing != nil {
		log.Printf("[seed] demo student %s already exists", email)
		return nil
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(demoPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	u := models.User{
		Email:        email,
		Name:         "Demo Student",
		Password:     string(hashed),
		Level:        models.LevelAverage,
		DailyMinutes: dailyMinutes,
	}
	if err := st.CreateUser(ctx, &u); err != nil {
		return err
	}
	log.Printf("[seed] created demo student %s (id %d)", email, u.ID)
	return nil
}
