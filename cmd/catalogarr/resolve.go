package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/amaumene/catalogarr/internal/models"
	"github.com/spf13/cobra"
)

func newResolveCommand() *cobra.Command {
	var count bool

	cmd := &cobra.Command{
		Use:   "resolve <media-id>",
		Short: "Resolve a media-<id> deep link to its source channel post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDatabase()
			if err != nil {
				return err
			}
			defer db.Close()

			return resolve(cmd.OutOrStdout(), db, args[0], count)
		},
	}

	cmd.Flags().BoolVar(&count, "count", false, "Count the lookup as a download")
	return cmd
}

func resolve(w io.Writer, db *models.Database, deepLink string, count bool) error {
	id, err := models.ParseDeepLink(deepLink)
	if err != nil {
		return fmt.Errorf("%q: %w", deepLink, err)
	}

	link, err := db.ResolveMediaLink(id)
	if err != nil {
		return err
	}

	name := "(record missing)"
	if rec, err := db.FindRecord(link.RecordID); err == nil {
		name = rec.Base().Name
	}

	if count {
		if err := db.IncrementCounter(link.RecordID, models.CounterDownloads); err != nil {
			return fmt.Errorf("failed to count download: %w", err)
		}
	}

	renderTable(w, []string{"Media", "Record", "Title", "Channel", "Message", "Link"}, [][]string{{
		link.ID,
		link.RecordID,
		name,
		strconv.FormatInt(link.ChannelID, 10),
		strconv.Itoa(link.MessageID),
		models.ChannelLink(link.ChannelID, link.MessageID),
	}}, 4)
	return nil
}
