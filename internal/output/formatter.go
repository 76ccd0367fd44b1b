package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"
)

const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

// Formatter renders command results for the terminal.
type Formatter interface {
	Format(data any) (string, error)
}

// NewFormatter returns the formatter for format. Unknown names are an error
// so a typo in -o does not silently fall back to a table.
func NewFormatter(format string) (Formatter, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", FormatTable:
		return TableFormatter{}, nil
	case FormatJSON:
		return JSONFormatter{}, nil
	case FormatYAML:
		return YAMLFormatter{}, nil
	default:
		return nil, fmt.Errorf("unknown output format %q (want table, json or yaml)", format)
	}
}

// TableFormatter prints structs and maps as key/value rows and slices of
// structs as a column table headed by field names.
type TableFormatter struct{}

func (TableFormatter) Format(data any) (string, error) {
	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 4, 2, ' ', 0)

	v := reflect.ValueOf(data)
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return "<nil>\n", nil
		}
		v = v.Elem()
	}

	switch v.Kind() {
	case reflect.Slice, reflect.Array:
		if v.Len() == 0 {
			return "(none)\n", nil
		}
		if elem := indirect(v.Index(0)); elem.Kind() == reflect.Struct {
			fields := visibleFields(elem.Type())
			headers := make([]string, len(fields))
			for i, f := range fields {
				headers[i] = strings.ToUpper(fieldLabel(f))
			}
			fmt.Fprintln(w, strings.Join(headers, "\t"))
			for i := 0; i < v.Len(); i++ {
				row := indirect(v.Index(i))
				vals := make([]string, len(fields))
				for j, f := range fields {
					vals[j] = cell(row.FieldByIndex(f.Index))
				}
				fmt.Fprintln(w, strings.Join(vals, "\t"))
			}
			break
		}
		for i := 0; i < v.Len(); i++ {
			fmt.Fprintln(w, cell(v.Index(i)))
		}
	case reflect.Struct:
		for _, f := range visibleFields(v.Type()) {
			fmt.Fprintf(w, "%s:\t%s\n", fieldLabel(f), cell(v.FieldByIndex(f.Index)))
		}
	case reflect.Map:
		keys := make([]string, 0, v.Len())
		byKey := make(map[string]reflect.Value, v.Len())
		for _, k := range v.MapKeys() {
			name := fmt.Sprint(k.Interface())
			keys = append(keys, name)
			byKey[name] = v.MapIndex(k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(w, "%s:\t%s\n", k, cell(byKey[k]))
		}
	default:
		fmt.Fprintln(w, cell(v))
	}

	if err := w.Flush(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func indirect(v reflect.Value) reflect.Value {
	for (v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface) && !v.IsNil() {
		v = v.Elem()
	}
	return v
}

func visibleFields(t reflect.Type) []reflect.StructField {
	var out []reflect.StructField
	for _, f := range reflect.VisibleFields(t) {
		if !f.IsExported() || f.Anonymous || f.Tag.Get("json") == "-" {
			continue
		}
		out = append(out, f)
	}
	return out
}

// fieldLabel prefers the json tag name so table, json and yaml output use
// the same keys.
func fieldLabel(f reflect.StructField) string {
	if name, _, _ := strings.Cut(f.Tag.Get("json"), ","); name != "" {
		return name
	}
	return f.Name
}

func cell(v reflect.Value) string {
	if !v.IsValid() {
		return ""
	}
	if b, ok := v.Interface().([]byte); ok {
		return fmt.Sprintf("% x", b)
	}
	return fmt.Sprintf("%v", v.Interface())
}

type JSONFormatter struct{}

func (JSONFormatter) Format(data any) (string, error) {
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", fmt.Errorf("format json: %w", err)
	}
	return string(b) + "\n", nil
}

type YAMLFormatter struct{}

func (YAMLFormatter) Format(data any) (string, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(data); err != nil {
		return "", fmt.Errorf("format yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("format yaml: %w", err)
	}
	return buf.String(), nil
}
