package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/beevik/etree"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/fivetwenty-io/restkit/internal/constants"
	"github.com/fivetwenty-io/restkit/pkg/restkit"
)

const defaultJSONIndent = "  "

// printResult writes a parsed payload in the format selected by --output.
// XML trees and raw responses are written as they came from the server.
func printResult(w io.Writer, payload any) error {
	switch value := payload.(type) {
	case nil:
		return nil
	case *etree.Element:
		doc := etree.NewDocument()
		doc.SetRoot(value.Copy())
		doc.Indent(2)

		_, err := doc.WriteTo(w)

		return err
	case *restkit.Response:
		_, err := w.Write(value.Body)
		if err == nil && len(value.Body) > 0 && value.Body[len(value.Body)-1] != '\n' {
			_, err = fmt.Fprintln(w)
		}

		return err
	}

	output := strings.ToLower(viper.GetString("output"))

	switch output {
	case "", constants.FormatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", defaultJSONIndent)

		return encoder.Encode(payload)
	case constants.FormatYAML:
		encoder := yaml.NewEncoder(w)
		defer func() { _ = encoder.Close() }()

		return encoder.Encode(payload)
	case constants.FormatTable:
		return printTable(w, payload)
	default:
		return fmt.Errorf("%w: %s", constants.ErrUnknownOutput, output)
	}
}

// printTable renders objects as key/value rows and lists of objects as one
// row per item. Anything else falls back to JSON.
func printTable(w io.Writer, payload any) error {
	switch value := payload.(type) {
	case map[string]any:
		table := tablewriter.NewWriter(w)
		table.Header("Property", "Value")

		for _, key := range sortedKeys(value) {
			_ = table.Append(key, cell(value[key]))
		}

		return renderTable(table)
	case []any:
		columns := listColumns(value)
		if len(columns) == 0 {
			break
		}

		header := make([]any, len(columns))
		for i, column := range columns {
			header[i] = column
		}

		table := tablewriter.NewWriter(w)
		table.Header(header...)

		for _, item := range value {
			object, _ := item.(map[string]any)
			row := make([]string, len(columns))

			for i, column := range columns {
				row[i] = cell(object[column])
			}

			_ = table.Append(row)
		}

		return renderTable(table)
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", defaultJSONIndent)

	return encoder.Encode(payload)
}

func renderTable(table *tablewriter.Table) error {
	err := table.Render()
	if err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}

func listColumns(items []any) []string {
	seen := make(map[string]bool)

	for _, item := range items {
		object, ok := item.(map[string]any)
		if !ok {
			return nil
		}

		for key := range object {
			seen[key] = true
		}
	}

	columns := make([]string, 0, len(seen))
	for key := range seen {
		columns = append(columns, key)
	}

	sort.Strings(columns)

	return columns
}

func sortedKeys(object map[string]any) []string {
	keys := make([]string, 0, len(object))
	for key := range object {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	return keys
}

func cell(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case map[string]any, []any:
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}

		return string(raw)
	default:
		return fmt.Sprint(v)
	}
}
