package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/amaumene/catalogarr/internal/config"
	"github.com/amaumene/catalogarr/internal/models"
	"github.com/spf13/cobra"
)

func newRecordsCommand() *cobra.Command {
	var unpublished bool

	cmd := &cobra.Command{
		Use:   "records <movies|series|shows>",
		Short: "List catalog records of a collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			collection, err := models.ParseCollection(args[0])
			if err != nil {
				return err
			}

			db, err := openDatabase()
			if err != nil {
				return err
			}
			defer db.Close()

			records, err := db.ListRecords(collection)
			if err != nil {
				return fmt.Errorf("failed to list records: %w", err)
			}
			if unpublished {
				records = filterUnpublished(records)
			}

			printRecords(cmd.OutOrStdout(), records)
			return nil
		},
	}

	cmd.Flags().BoolVar(&unpublished, "unpublished", false, "Only list records not yet published")
	return cmd
}

func filterUnpublished(records []models.Record) []models.Record {
	var pending []models.Record
	for _, r := range records {
		if !r.Base().Published {
			pending = append(pending, r)
		}
	}
	return pending
}

func printRecords(w io.Writer, records []models.Record) {
	if len(records) == 0 {
		fmt.Fprintln(w, "No records")
		return
	}

	rows := make([][]string, 0, len(records))
	for _, r := range records {
		base := r.Base()
		rows = append(rows, []string{
			base.ID,
			base.Name,
			base.YearLabel(),
			strconv.Itoa(len(base.MediaFiles)),
			strconv.Itoa(base.Views),
			strconv.Itoa(base.Downloads),
			strconv.FormatBool(base.Published),
		})
	}
	renderTable(w, []string{"ID", "Name", "Year", "Files", "Views", "Downloads", "Published"}, rows, 3, 4, 5)
}

// openDatabase opens the configured catalog database
func openDatabase() (*models.Database, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	db, err := models.NewDatabase(cfg.DatabaseFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s (is the server running?): %w", cfg.DatabaseFile, err)
	}
	return db, nil
}
