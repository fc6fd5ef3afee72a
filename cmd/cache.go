package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	domainCache "github.com/AzielCF/az-gym/domains/cache"
	"github.com/AzielCF/az-gym/pkg/timeutils"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and clear cached API responses",
}

var cacheKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List cached keys",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		keys := container.cache.Keys(ctx)
		if scoped, _ := cmd.Flags().GetBool("scoped"); scoped {
			keys = scopedKeys(ctx, container.cache, keys)
		}
		for _, key := range keys {
			fmt.Fprintln(cmd.OutOrStdout(), key)
		}
		return nil
	},
}

var cacheShowCmd = &cobra.Command{
	Use:   "show <key>",
	Short: "Show a cached entry for the current tenant and user",
	Long: `Show a cached entry. The key is scoped by --tenant and --user-id the same
way the app scopes it (app_config by tenant only). --raw uses the key as given.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		key := args[0]
		if raw, _ := cmd.Flags().GetBool("raw"); !raw {
			key = container.cache.KeyFor(ctx, key)
		}

		out := cmd.OutOrStdout()
		entry, ok := container.cache.Entry(ctx, key, container.cache.FetchDefaults().MaxAge)
		if !ok {
			fmt.Fprintf(out, "%s: not cached\n", key)
			return nil
		}
		fmt.Fprintf(out, "key: %s\nage: %s\nstale: %v\ndata: %s\n",
			key, timeutils.FormatCacheAge(entry.Age), entry.IsStale, entry.Data)
		return nil
	},
}

// scopedKeys keeps the keys that belong to the configured identity, i.e. the
// ones KeyFor would produce for their base.
func scopedKeys(ctx context.Context, cache domainCache.ICacheUsecase, keys []string) []string {
	out := make([]string, 0, len(keys))
	for _, key := range keys {
		base, _, _ := strings.Cut(key, ":")
		if cache.KeyFor(ctx, base) == key {
			out = append(out, key)
		}
	}
	return out
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear cached responses",
	Long: `Clear cached responses. By default every cached key is removed.
--user keeps the tenant app config; --leaderboard removes only leaderboard variants.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		user, _ := cmd.Flags().GetBool("user")
		leaderboard, _ := cmd.Flags().GetBool("leaderboard")
		if user && leaderboard {
			return fmt.Errorf("--user and --leaderboard are mutually exclusive")
		}

		ctx := cmd.Context()
		before := len(container.cache.Keys(ctx))
		switch {
		case user:
			container.cache.ClearUser(ctx)
		case leaderboard:
			container.cache.ClearLeaderboard(ctx)
		default:
			container.cache.ClearAll(ctx)
		}
		after := len(container.cache.Keys(ctx))

		fmt.Fprintf(cmd.OutOrStdout(), "removed %d keys\n", before-after)
		return nil
	},
}

func init() {
	cacheClearCmd.Flags().Bool("user", false, "clear user data but keep the app config")
	cacheClearCmd.Flags().Bool("leaderboard", false, "clear only leaderboard entries")

	cacheKeysCmd.Flags().Bool("scoped", false, "list only keys scoped to --tenant/--user-id")
	cacheShowCmd.Flags().Bool("raw", false, "do not scope the key")

	cacheCmd.AddCommand(cacheKeysCmd, cacheShowCmd, cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}
