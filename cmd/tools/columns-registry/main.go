// cmd/tools/columns-registry/main.go
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"fieldsales-console/pkg/columns"
)

const defaultPath = "pkg/columns/columns.json"

func main() {
	addCmd := flag.NewFlagSet("add", flag.ExitOnError)
	updateCmd := flag.NewFlagSet("update", flag.ExitOnError)
	validateCmd := flag.NewFlagSet("validate", flag.ExitOnError)
	listCmd := flag.NewFlagSet("list", flag.ExitOnError)

	// Add command flags
	addPath := addCmd.String("path", defaultPath, "Path to registry file")
	entityAdd := addCmd.String("entity", "", "Entity (e.g., visits)")
	key := addCmd.String("key", "", "JSON key of the column (e.g., storeName)")
	header := addCmd.String("header", "", "Header shown in lists and exports (e.g., Customer Name)")
	kind := addCmd.String("kind", columns.KindString, "Kind (string, number, date, time)")
	searchable := addCmd.Bool("searchable", false, "Matched by the list text filter")
	sortable := addCmd.Bool("sortable", false, "Offered as a sort column")
	visible := addCmd.Bool("default", false, "Visible before the user toggles columns")
	derived := addCmd.Bool("derived", false, "Computed by the console, not sent by the backend")

	// Update command flags
	updatePath := updateCmd.String("path", defaultPath, "Path to registry file")
	entityUpdate := updateCmd.String("entity", "", "Entity of the column")
	keyUpdate := updateCmd.String("key", "", "Column key to update")
	field := updateCmd.String("field", "", "Field to update (header, kind, searchable, sortable, default, derived)")
	value := updateCmd.String("value", "", "New value for the field")

	validatePath := validateCmd.String("path", defaultPath, "Path to registry file")

	listPath := listCmd.String("path", defaultPath, "Path to registry file")
	entityList := listCmd.String("entity", "", "Only this entity")

	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "add":
		_ = addCmd.Parse(os.Args[2:])
		if *entityAdd == "" || *key == "" || *header == "" {
			fmt.Println("Error: entity, key, and header are required for add.")
			addCmd.Usage()
			os.Exit(1)
		}
		err := edit(*addPath, func(reg *columns.Registry) error {
			return reg.AddColumn(*entityAdd, columns.Column{
				Key:        *key,
				Header:     *header,
				Kind:       *kind,
				Searchable: *searchable,
				Sortable:   *sortable,
				Default:    *visible,
				Derived:    *derived,
			})
		})
		if err != nil {
			fmt.Printf("Error adding column: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Added column %s.%s\n", *entityAdd, *key)

	case "update":
		_ = updateCmd.Parse(os.Args[2:])
		if *entityUpdate == "" || *keyUpdate == "" || *field == "" {
			fmt.Println("Error: entity, key, and field are required for update.")
			updateCmd.Usage()
			os.Exit(1)
		}
		err := edit(*updatePath, func(reg *columns.Registry) error {
			return reg.UpdateColumn(*entityUpdate, *keyUpdate, *field, *value)
		})
		if err != nil {
			fmt.Printf("Error updating column: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Updated column %s.%s, field %s to %s\n", *entityUpdate, *keyUpdate, *field, *value)

	case "validate":
		_ = validateCmd.Parse(os.Args[2:])
		reg, err := columns.Load(*validatePath)
		if err != nil {
			fmt.Printf("Registry validation failed: %v\n", err)
			os.Exit(1)
		}
		n := 0
		for _, e := range reg.Entities {
			n += len(e.Columns)
		}
		fmt.Printf("Registry validation passed. Found %d entities, %d columns.\n", len(reg.Entities), n)

	case "list":
		_ = listCmd.Parse(os.Args[2:])
		reg, err := columns.Load(*listPath)
		if err != nil {
			fmt.Printf("Error loading registry: %v\n", err)
			os.Exit(1)
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ENTITY\tKEY\tHEADER\tKIND\tFLAGS")
		for _, e := range reg.Entities {
			if *entityList != "" && e.Name != *entityList {
				continue
			}
			for _, c := range e.Columns {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", e.Name, c.Key, c.Header, c.Kind, flags(c))
			}
		}
		_ = w.Flush()

	case "help":
		fallthrough
	default:
		help()
	}
}

// edit loads the registry at path, applies fn and writes it back.
func edit(path string, fn func(*columns.Registry) error) error {
	reg, err := columns.Load(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to load registry: %w", err)
		}
		reg = &columns.Registry{Version: "1"}
	}
	if err := fn(reg); err != nil {
		return err
	}
	return reg.Save(path)
}

func flags(c columns.Column) string {
	var out []string
	if c.Default {
		out = append(out, "default")
	}
	if c.Searchable {
		out = append(out, "searchable")
	}
	if c.Sortable {
		out = append(out, "sortable")
	}
	if c.Derived {
		out = append(out, "derived")
	}
	return strings.Join(out, ",")
}

func help() {
	fmt.Print(`
Usage: columns-registry <command> [flags]

Commands:
  add      Add a column to an entity
  update   Update one field of a column
  validate Validate the registry file
  list     Print the columns of every entity
  help     Show this help message

Examples:
  columns-registry add -entity visits -key city -header City -searchable -sortable
  columns-registry update -entity visits -key city -field default -value true
  columns-registry validate -path pkg/columns/columns.json

Use 'columns-registry <command> -h' for more information about a command.
`, "\n")
}
