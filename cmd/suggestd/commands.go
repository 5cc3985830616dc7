package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mkoval/suggestd/internal/config"
	"github.com/mkoval/suggestd/internal/quick"
	"github.com/mkoval/suggestd/internal/storage"
	"github.com/mkoval/suggestd/internal/suggest"
)

// --- suggest ---

var suggestCmd = &cobra.Command{
	Use:   "suggest [query]",
	Short: "Get ranked search suggestions",
	Long: `Get ranked search suggestions for a partial query.

Examples:
  suggestd suggest math
  suggestd suggest "linear alg" --context blocks --user u1
  suggestd suggest --limit 5          (no query: trending only)`,
	RunE: func(cmd *cobra.Command, args []string) error {
		query := strings.Join(args, " ")
		contextName, _ := cmd.Flags().GetString("context")
		userID, _ := cmd.Flags().GetString("user")
		limit, _ := cmd.Flags().GetInt("limit")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.post(cmd.Context(), "/suggest", map[string]any{
			"query":   query,
			"context": contextName,
			"user_id": userID,
			"limit":   limit,
		})
		if err != nil {
			return err
		}

		var result suggest.Response
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		if len(result.Suggestions) == 0 && len(result.Trending) == 0 {
			fmt.Println("No suggestions.")
			return nil
		}

		for _, c := range result.Suggestions {
			printCandidate(c)
		}
		if len(result.Trending) > 0 {
			fmt.Printf("\n%s\n", colorize(colorBold, "Trending:"))
			for _, c := range result.Trending {
				printCandidate(c)
			}
		}
		return nil
	},
}

func printCandidate(c suggest.Candidate) {
	label := c.CategoryLabel
	if label == "" {
		label = string(c.SourceType)
	}
	fmt.Printf("  %-40s %s [%.2f]\n", c.Text, colorize(colorCyan, label), c.Score)
}

func init() {
	suggestCmd.Flags().String("context", "", "search context: all, blocks, users, or topics")
	suggestCmd.Flags().String("user", "", "requesting user ID for personalized suggestions")
	suggestCmd.Flags().Int("limit", suggest.DefaultLimit, "maximum number of suggestions")
}

// --- trending ---

var trendingCmd = &cobra.Command{
	Use:   "trending",
	Short: "List trending searches",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		// An empty query returns trending only.
		resp, err := client.post(cmd.Context(), "/suggest", map[string]any{
			"query": "",
			"limit": limit,
		})
		if err != nil {
			return err
		}

		var result suggest.Response
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		if len(result.Trending) == 0 {
			fmt.Println("Nothing is trending yet.")
			return nil
		}

		for i, c := range result.Trending {
			fmt.Printf("%2d. %s\n", i+1, c.Text)
		}
		return nil
	},
}

func init() {
	trendingCmd.Flags().Int("limit", suggest.DefaultLimit, "maximum number of trending queries")
}

// --- quick ---

var quickCmd = &cobra.Command{
	Use:   "quick <prefix>",
	Short: "Exact-prefix autocomplete from the catalog index",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		prefix := strings.Join(args, " ")
		contextName, _ := cmd.Flags().GetString("context")
		limit, _ := cmd.Flags().GetInt("limit")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.post(cmd.Context(), "/quick", map[string]any{
			"prefix":  prefix,
			"context": contextName,
			"limit":   limit,
		})
		if err != nil {
			return err
		}

		var entries []quick.Entry
		if err := decodeJSON(resp, &entries); err != nil {
			return err
		}

		if len(entries) == 0 {
			fmt.Println("No matches.")
			return nil
		}

		for _, e := range entries {
			fmt.Printf("  %-40s %s\n", e.Text, colorize(colorCyan, string(e.SourceType)))
		}
		return nil
	},
}

func init() {
	quickCmd.Flags().String("context", "", "search context: all, blocks, users, or topics")
	quickCmd.Flags().Int("limit", suggest.DefaultLimit, "maximum number of matches")
}

// --- history ---

var historyCmd = &cobra.Command{
	Use:   "history <user-id>",
	Short: "Show a user's recent searches",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), fmt.Sprintf("/history?user_id=%s&limit=%d", args[0], limit))
		if err != nil {
			return err
		}

		var entries []storage.SearchEntry
		if err := decodeJSON(resp, &entries); err != nil {
			return err
		}

		if len(entries) == 0 {
			fmt.Println("No search history.")
			return nil
		}

		for _, e := range entries {
			fmt.Printf("  %s  %-30s %s (x%d)\n",
				e.LastSearched.Format("2006-01-02 15:04"),
				e.Query,
				colorize(colorCyan, e.Context),
				e.SearchCount,
			)
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().Int("limit", 20, "maximum number of history entries")
}

// --- record ---

var recordCmd = &cobra.Command{
	Use:   "record <user-id> <query>",
	Short: "Record an executed search",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		userID := args[0]
		query := strings.Join(args[1:], " ")
		contextName, _ := cmd.Flags().GetString("context")
		results, _ := cmd.Flags().GetInt("results")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.post(cmd.Context(), "/record-search", map[string]any{
			"user_id":       userID,
			"query":         query,
			"context":       contextName,
			"results_count": results,
		})
		if err != nil {
			return err
		}
		resp.Body.Close()

		if resp.StatusCode >= 400 {
			return fmt.Errorf("server returned %d", resp.StatusCode)
		}

		printSuccess("Recorded search %q for user %s", query, userID)
		return nil
	},
}

func init() {
	recordCmd.Flags().String("context", "", "search context the query ran in")
	recordCmd.Flags().Int("results", 0, "number of results the search returned")
}

// --- purge ---

var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete search history past retention",
	Long:  "Delete search history older than the retention window. Operates directly on the data directory.",
	RunE: func(cmd *cobra.Command, args []string) error {
		days, _ := cmd.Flags().GetInt("days")
		confirm, _ := cmd.Flags().GetBool("confirm")
		if !confirm {
			printWarning("This will delete search history older than %d days. Use --confirm to proceed.", days)
			return nil
		}

		cfg, err := config.Load()
		if err != nil {
			return err
		}

		store, err := storage.Open(cfg.Storage.DataDir)
		if err != nil {
			return fmt.Errorf("opening storage: %w", err)
		}
		defer store.Close()

		purged, err := suggest.NewRecorder(store).PurgeOlderThan(cmd.Context(), days)
		if err != nil {
			return err
		}

		printSuccess("Purged %d history rows", purged)
		return nil
	},
}

func init() {
	purgeCmd.Flags().Int("days", suggest.DefaultRetentionDays, "delete history older than this many days")
	purgeCmd.Flags().Bool("confirm", false, "confirm history purge")
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		keys := config.ShowAll(cfg)
		for _, k := range keys {
			fmt.Printf("  %s = %s\n", colorize(colorBold, k.Key), k.Value)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		if err := config.SetKey(key, value); err != nil {
			return err
		}

		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
