package cli

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mgpai22/lecsub/internal/catalog"
	"github.com/mgpai22/lecsub/internal/fetch"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "List the videos the catalog returns for a lecture",
	Long: `Run the catalog query and print the resulting work items without
processing them. Useful for checking the query and base URL before "run".

Examples:
  lecsub catalog --lecture 42
  lecsub catalog --driver sqlite --dsn lectures.db --lecture 7`,
	Args: cobra.NoArgs,
	Annotations: map[string]string{
		annotationConfig: configLenient,
	},
	RunE: runCatalogList,
}

func init() {
	rootCmd.AddCommand(catalogCmd)
	addCatalogFlags(catalogCmd)
}

func addCatalogFlags(cmd *cobra.Command) {
	cmd.Flags().String("driver", "", "Catalog database driver (pgx, sqlite)")
	cmd.Flags().String("dsn", "", "Catalog connection string (or set LECSUB_DATABASE_URL)")
	cmd.Flags().Int64("lecture", 0, "Lecture id passed to the catalog query")
	cmd.Flags().String("base-url", "", "Base URL for relative video locators")
}

func loadCatalog(cmd *cobra.Command) ([]catalog.Item, error) {
	c := cfg.Catalog
	if c.DSN == "" {
		return nil, errors.New("catalog dsn is not set: use --dsn, catalog.dsn or LECSUB_DATABASE_URL")
	}

	cat, err := catalog.Open(cmd.Context(), c.Driver, c.DSN, c.Query, c.BaseURL)
	if err != nil {
		return nil, err
	}
	defer cat.Close()

	items, err := cat.Items(cmd.Context(), c.LectureID)
	if err != nil {
		return nil, err
	}
	logger.Debugw("catalog loaded", "driver", c.Driver, "lecture", c.LectureID, "items", len(items))
	return items, nil
}

func runCatalogList(cmd *cobra.Command, args []string) error {
	items, err := loadCatalog(cmd)
	if err != nil {
		return err
	}

	rows := make([][]string, 0, len(items))
	for _, item := range items {
		kind := "file"
		if fetch.IsRemote(item.Locator) {
			kind = "remote"
		}
		rows = append(rows, []string{
			strconv.Itoa(item.Position),
			item.Name,
			kind,
			item.Locator,
		})
	}

	fmt.Fprint(cmd.OutOrStdout(), renderTable(
		[]string{"#", "Name", "Source", "Locator"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft},
	))
	fmt.Fprintf(cmd.OutOrStdout(), "%d items\n", len(items))
	return nil
}
