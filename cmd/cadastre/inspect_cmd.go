package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/stwalsh4118/cadastre/internal/extractor"
	"github.com/stwalsh4118/cadastre/internal/models"
	"gopkg.in/yaml.v3"
)

// inspection is the printed form of one document.
type inspection struct {
	File    string          `json:"file" yaml:"file"`
	Counts  map[string]int  `json:"counts" yaml:"counts"`
	Records *models.Records `json:"records" yaml:"records"`
}

func newInspectCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "inspect <file.xml>",
		Short: "Extract one XML document and print its records without a database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := extractor.ExtractFile(args[0])
			if err != nil {
				return err
			}

			doc := inspection{
				File:    args[0],
				Counts:  make(map[string]int, len(models.LoadOrder)),
				Records: records,
			}
			for _, k := range models.LoadOrder {
				doc.Counts[string(k)] = records.Len(k)
			}
			return writeInspection(cmd.OutOrStdout(), format, doc)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "yaml", "output format: yaml or json")
	return cmd
}

func writeInspection(w io.Writer, format string, doc inspection) error {
	switch format {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	default:
		return fmt.Errorf("unknown format %q: use yaml or json", format)
	}
}
