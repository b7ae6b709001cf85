package main

import (
	"fmt"

	"daily_quest/internal/catalog"
	"daily_quest/internal/repository"
	"daily_quest/internal/service"

	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import [catalog.json]",
	Short: "Reconcile stored quests with a catalog file and exit",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfg.Catalog.Path
		if len(args) == 1 {
			path = args[0]
		}

		quests, err := catalog.Load(path)
		if err != nil {
			return err
		}

		repo, err := repository.New(cfg.Database)
		if err != nil {
			return err
		}
		defer repo.Close()

		loc, err := cfg.Location()
		if err != nil {
			return err
		}

		qs := service.NewQuestService(repo, service.QuestConfig{
			TutorialID: cfg.Quests.TutorialID,
			Location:   loc,
		})
		result, err := qs.ImportCatalog(cmd.Context(), quests)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "imported %d quests from %s: %d inserted, %d updated\n",
			len(quests), path, result.Inserted, result.Updated)
		return nil
	},
}
