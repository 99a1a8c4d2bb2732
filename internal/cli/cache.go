package cli

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/matzehuels/stateviz/pkg/cache"
	"github.com/matzehuels/stateviz/pkg/errors"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the layout and artifact cache",
		Long: `Layouts are cached by graph and layout options, artifacts by layout,
format, active states and theme. Scripts are always re-evaluated.`,
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cacheStatsCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

func (c *CLI) cacheClearCommand() *cobra.Command {
	var kind string
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove cached layouts and artifacts",
		RunE: func(cmd *cobra.Command, args []string) error {
			if kind != "" && kind != "layout" && kind != "artifact" {
				return errors.New(errors.ErrCodeInvalidInput, "invalid kind: %q (must be layout or artifact)", kind)
			}
			fc, ok, err := c.openFileCache()
			if err != nil || !ok {
				return err
			}
			n, err := fc.Clear(kind)
			if err != nil {
				return fmt.Errorf("clear cache: %w", err)
			}
			printSuccess("Removed %s", plural(n, "entry"))
			printDetail("Directory: %s", fc.Dir())
			return nil
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "", "only remove this kind: layout or artifact")
	return cmd
}

func (c *CLI) cacheStatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show what the cache holds",
		RunE: func(cmd *cobra.Command, args []string) error {
			fc, ok, err := c.openFileCache()
			if err != nil || !ok {
				return err
			}
			st, err := fc.Stats()
			if err != nil {
				return fmt.Errorf("read cache: %w", err)
			}
			kinds := make([]string, 0, len(st.Entries))
			for k := range st.Entries {
				kinds = append(kinds, k)
			}
			sort.Strings(kinds)
			for _, k := range kinds {
				printKeyValue(k, plural(st.Entries[k], "entry"))
			}
			printKeyValue("size", fmt.Sprintf("%.1f KiB", float64(st.Bytes)/1024))
			if st.Expired > 0 {
				printKeyValue("expired", plural(st.Expired, "entry"))
			}
			printKeyValue("directory", fc.Dir())
			return nil
		},
	}
}

func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache directory path",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := c.cacheDir()
			if err != nil {
				return fmt.Errorf("get cache dir: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), dir)
			return nil
		},
	}
}

// openFileCache opens the cache directory without creating it. It reports
// false when there is nothing cached yet.
func (c *CLI) openFileCache() (*cache.FileCache, bool, error) {
	dir, err := c.cacheDir()
	if err != nil {
		return nil, false, fmt.Errorf("get cache dir: %w", err)
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		printInfo("Cache is empty")
		return nil, false, nil
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		return nil, false, err
	}
	return fc.(*cache.FileCache), true, nil
}

// cacheDir returns the configured cache directory or the XDG default.
func (c *CLI) cacheDir() (string, error) {
	if c.Config.Cache.Dir != "" {
		return c.Config.Cache.Dir, nil
	}
	return cacheDir()
}
