/*
Copyright © 2025 Valentyn Solomko <valentyn.solomko@gmail.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/valpere/potran/internal/cache"
)

var cacheFilePath string

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the translation cache",
	Long:  `Inspect and clear the persistent JSON translation cache.`,
}

func openCache() (*cache.Cache, error) {
	path := cacheFilePath
	if path == "" {
		var err error
		if path, err = cache.DefaultPath(); err != nil {
			return nil, fmt.Errorf("failed to resolve cache path: %w", err)
		}
	}
	return cache.New(path), nil
}

var cacheListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all cached translations",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := openCache()
		if err != nil {
			return err
		}

		entries := c.Snapshot()
		if len(entries) == 0 {
			fmt.Println("Cache is empty.")
			return nil
		}

		keys := make([]string, 0, len(entries))
		for k := range entries {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "PAIR\tSOURCE\tTRANSLATION\tCACHED AT")
		for _, key := range keys {
			rec := entries[key]
			// Keys are "source|target|normalized text".
			parts := strings.SplitN(key, "|", 3)
			if len(parts) != 3 {
				continue
			}
			fmt.Fprintf(w, "%s→%s\t%s\t%s\t%s\n",
				parts[0], parts[1], truncate(parts[2], 40), truncate(rec.Translation, 40),
				rec.Timestamp.Format("2006-01-02 15:04"))
		}
		return w.Flush()
	},
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := openCache()
		if err != nil {
			return err
		}

		pairs := make(map[string]int)
		for key := range c.Snapshot() {
			parts := strings.SplitN(key, "|", 3)
			if len(parts) == 3 {
				pairs[parts[0]+"→"+parts[1]]++
			}
		}

		fmt.Printf("Cache file: %s\n", c.Path())
		fmt.Printf("Entries: %d\n", c.Len())
		if len(pairs) > 0 {
			keys := make([]string, 0, len(pairs))
			for k := range pairs {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Printf("  %s: %d\n", k, pairs[k])
			}
		}
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all cached translations",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := openCache()
		if err != nil {
			return err
		}

		n := c.Len()
		c.Clear()
		if err := c.Flush(); err != nil {
			return fmt.Errorf("failed to persist cache: %w", err)
		}
		fmt.Printf("Removed %d cached translation(s).\n", n)
		return nil
	},
}

var cachePathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the cache file location",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := openCache()
		if err != nil {
			return err
		}
		fmt.Println(c.Path())
		return nil
	},
}

// truncate shortens s to max runes, not bytes, so accented characters are
// never cut mid-sequence.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}

func init() {
	rootCmd.AddCommand(cacheCmd)

	cacheCmd.PersistentFlags().StringVar(&cacheFilePath, "cache", "", "Cache file path (default ~/.potran/translation_cache.json)")

	cacheCmd.AddCommand(cacheListCmd)
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cachePathCmd)
}
