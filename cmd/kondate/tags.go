package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kondate-dev/kondate/internal/config"
	"github.com/kondate-dev/kondate/internal/store"
)

var tagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "List the tag vocabulary",
	Long: `List the tags known to this kondate instance. The vocabulary
constrains which tags the editing model may apply.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.DefaultConfig()
		if err != nil {
			return err
		}

		st, err := store.Open(cfg.DBPath)
		if err != nil {
			return err
		}
		defer st.Close()

		tags, err := st.LoadTags(context.Background())
		if err != nil {
			return err
		}
		if len(tags) == 0 {
			fmt.Println("No tags yet. Import a recipe to seed the vocabulary.")
			return nil
		}
		for _, tag := range tags {
			fmt.Println(tag)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tagsCmd)
}
