package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/kondate-dev/kondate/internal/config"
	"github.com/kondate-dev/kondate/internal/recipe"
	"github.com/kondate-dev/kondate/internal/store"
)

var importCmd = &cobra.Command{
	Use:   "import <recipe.json>",
	Short: "Import a scraped recipe",
	Long: `Import a recipe from a JSON file produced by a scraper.
The file must contain a recipe object with at least title, sourceUrl,
ingredients, and steps. The import becomes version 1 and the default.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runImport(args[0])
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
}

func runImport(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	var r recipe.Recipe
	if err := json.Unmarshal(data, &r); err != nil {
		return fmt.Errorf("invalid recipe JSON: %w", err)
	}
	if r.Title == "" || r.SourceURL == "" {
		return fmt.Errorf("recipe requires title and sourceUrl")
	}
	if r.ScrapedAt.IsZero() {
		r.ScrapedAt = time.Now().UTC()
	}

	cfg, err := config.DefaultConfig()
	if err != nil {
		return err
	}
	if err := cfg.EnsureHome(); err != nil {
		return err
	}

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer st.Close()

	recipeID, versionID, err := st.CreateRecipe(context.Background(), r)
	if err != nil {
		return err
	}

	fmt.Printf("Imported %q\n  recipe:  %s\n  version: %s\n", r.Title, recipeID, versionID)
	return nil
}
