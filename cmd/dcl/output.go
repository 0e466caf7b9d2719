package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

const (
	outputText = "text"
	outputJSON = "json"
	outputYAML = "yaml"
	outputTOML = "toml"
)

func validateOutput(format string) error {
	switch format {
	case outputText, outputJSON, outputYAML, outputTOML:
		return nil
	default:
		return fmt.Errorf("unsupported output format %q: use text, json, yaml or toml", format)
	}
}

// writeStructured encodes value in a machine-readable format. TOML needs a
// table at the top level, so values are wrapped under key.
func writeStructured(w io.Writer, format, key string, value any) error {
	switch format {
	case outputJSON:
		data, err := json.MarshalIndent(value, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	case outputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(value); err != nil {
			return err
		}
		return enc.Close()
	case outputTOML:
		enc := toml.NewEncoder(w)
		enc.SetIndentTables(true)
		return enc.Encode(map[string]any{key: value})
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}
