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
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/valpere/potran/internal/catalog"
	"github.com/valpere/potran/internal/pofile"
)

var (
	mergeOutput          string
	mergeIncludeObsolete bool
	mergeLanguage        string
	mergeCompileMO       bool
)

var mergeCmd = &cobra.Command{
	Use:   "merge <file-or-dir>...",
	Short: "Merge .po files into one deduplicated catalog",
	Long: `Merge entries from multiple .po files into a single output file.

Duplicate msgids are collapsed: the first occurrence wins, later
occurrences contribute their translation only when the first had none, and
references and comments are accumulated. Entries are written sorted by
msgid so the output is stable across runs.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files, err := collectPOFiles(args)
		if err != nil {
			return err
		}
		if len(files) == 0 {
			return fmt.Errorf("no .po files found")
		}

		result := <-catalog.LoadAsync(files, mergeIncludeObsolete, func(done, total int) {
			fmt.Fprintf(os.Stderr, "\rLoading %d/%d", done, total)
		})
		fmt.Fprintln(os.Stderr)
		if result.Err != nil {
			return fmt.Errorf("failed to load catalogs: %w", result.Err)
		}
		cat := result.Catalog

		metadata := map[string]string{
			"PO-Revision-Date": time.Now().Format("2006-01-02 15:04-0700"),
		}
		if mergeLanguage != "" {
			metadata["Language"] = mergeLanguage
		}

		if err := ensureParentDir(mergeOutput); err != nil {
			return err
		}
		if err := cat.Export(mergeOutput, metadata); err != nil {
			return fmt.Errorf("failed to write %s: %w", mergeOutput, err)
		}

		fmt.Printf("Merged %d file(s) into %s: %d unique entries across %d module(s)\n",
			len(files), mergeOutput, cat.Len(), len(cat.Modules()))

		if mergeCompileMO {
			moPath := strings.TrimSuffix(mergeOutput, filepath.Ext(mergeOutput)) + ".mo"
			merged, err := pofile.ParseFile(mergeOutput)
			if err != nil {
				return fmt.Errorf("failed to reload %s: %w", mergeOutput, err)
			}
			if err := merged.SaveMO(moPath); err != nil {
				return fmt.Errorf("failed to compile %s: %w", moPath, err)
			}
			fmt.Printf("Compiled %s\n", moPath)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(mergeCmd)

	mergeCmd.Flags().StringVarP(&mergeOutput, "output", "o", "merged.po", "Output file")
	mergeCmd.Flags().BoolVar(&mergeIncludeObsolete, "include-obsolete", false, "Keep #~ obsolete entries")
	mergeCmd.Flags().StringVar(&mergeLanguage, "language", "", "Language header for the merged file")
	mergeCmd.Flags().BoolVar(&mergeCompileMO, "compile-mo", false, "Also compile the merged catalog to a binary .mo file")
}
