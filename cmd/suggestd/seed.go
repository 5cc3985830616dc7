package main

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/mkoval/suggestd/internal/config"
	"github.com/mkoval/suggestd/internal/storage"
	"github.com/mkoval/suggestd/internal/suggest"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load a demo catalog into the data directory",
	Long:  "Load demo blocks, categories, users and topics, plus a little search history, for local exploration. Operates directly on the data directory.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		store, err := storage.Open(cfg.Storage.DataDir)
		if err != nil {
			return fmt.Errorf("opening storage: %w", err)
		}
		defer store.Close()

		if err := seedCatalog(cmd.Context(), store); err != nil {
			return err
		}

		printSuccess("Demo catalog loaded into %s", cfg.Storage.DataDir)
		return nil
	},
}

func seedCatalog(ctx context.Context, store *storage.Store) error {
	now := time.Now().UTC()

	blocks := []storage.Block{
		{Title: "Math Basics", Visibility: "public", CreatorID: "demo-teacher", UsageCount: 42},
		{Title: "Linear Algebra Intro", Visibility: "public", CreatorID: "demo-teacher", UsageCount: 31},
		{Title: "Fractions Practice", Visibility: "public", CreatorID: "demo-teacher", UsageCount: 27},
		{Title: "Cell Division", Visibility: "public", CreatorID: "demo-teacher", UsageCount: 19},
		{Title: "Draft Quiz", Visibility: "private", CreatorID: "demo-teacher", UsageCount: 2},
	}
	for _, b := range blocks {
		b.ID = uuid.NewString()
		b.CreatedAt = now
		if err := store.InsertBlock(ctx, b); err != nil {
			return fmt.Errorf("seeding block %q: %w", b.Title, err)
		}
	}

	categories := []storage.Category{
		{Name: "Mathematics", UsageCount: 120},
		{Name: "Biology", UsageCount: 75},
		{Name: "History", UsageCount: 40},
	}
	for _, c := range categories {
		c.ID = uuid.NewString()
		if err := store.InsertCategory(ctx, c); err != nil {
			return fmt.Errorf("seeding category %q: %w", c.Name, err)
		}
	}

	users := []storage.User{
		{Username: "ada", DisplayName: "Ada Lovelace", Roles: "instructor"},
		{Username: "alan", DisplayName: "Alan Turing", Roles: "student"},
		{Username: "grace", DisplayName: "Grace Hopper", Roles: "admin,instructor"},
	}
	for _, u := range users {
		u.ID = uuid.NewString()
		if err := store.InsertUser(ctx, u); err != nil {
			return fmt.Errorf("seeding user %q: %w", u.Username, err)
		}
	}

	topics := []storage.Topic{
		{Tag: "algebra", UsageCount: 88},
		{Tag: "photosynthesis", UsageCount: 54},
		{Tag: "world-war-ii", UsageCount: 33},
	}
	for _, t := range topics {
		t.ID = uuid.NewString()
		if err := store.InsertTopic(ctx, t); err != nil {
			return fmt.Errorf("seeding topic %q: %w", t.Tag, err)
		}
	}

	// A little search history so trending has something to show: two distinct
	// users per query, inside the trending window.
	recorder := suggest.NewRecorder(store)
	for _, q := range []string{"algebra", "photosynthesis"} {
		recorder.Record(ctx, "demo-user-1", q, "all", 5)
		recorder.Record(ctx, "demo-user-2", q, "all", 3)
	}

	return nil
}
