/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"errors"
	"fmt"

	"github.com/Seednode/truthordare/content"
	"github.com/spf13/cobra"
)

type importConfig struct {
	db   string
	from string
}

func (c *importConfig) validate() error {
	if c.from == "" {
		return errors.New("--from is required")
	}
	if c.db == "" {
		return errors.New("--db is required")
	}
	return nil
}

func newImportCmd() *cobra.Command {
	v := newViper()
	icfg := &importConfig{}

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Load a YAML or JSON content file into a sqlite content database.",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := icfg.validate(); err != nil {
				return err
			}

			doc, err := content.ReadDocument(icfg.from)
			if err != nil {
				return err
			}

			store, err := content.OpenSQLite(icfg.db)
			if err != nil {
				return err
			}
			defer store.Close()

			n, err := store.Import(cmd.Context(), doc)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d prompts in %d categories and %d items into %s\n",
				n, len(doc.Categories), len(doc.Items), icfg.db)

			return nil
		},
	}

	fs := cmd.Flags()

	fs.StringVar(&icfg.from, "from", "", "content file to read, .yaml/.yml or .json (env: TRUTHORDARE_FROM)")
	fs.StringVar(&icfg.db, "db", "", "sqlite database to write (env: TRUTHORDARE_DB)")

	bindFlags(fs, v)

	return cmd
}
