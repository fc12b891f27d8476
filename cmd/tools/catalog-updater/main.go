// cmd/tools/catalog-updater/main.go
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"activities-service/internal/activities"
	"activities-service/internal/common/validation"
	"activities-service/pkg/catalog"
)

const defaultCatalogPath = "configs/activity-catalog.json"

func main() {
	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}
	if err := run(os.Args[1], os.Args[2:], os.Stdout, time.Now); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(command string, args []string, out io.Writer, now func() time.Time) error {
	switch command {
	case "init":
		fs := flag.NewFlagSet("init", flag.ContinueOnError)
		path := fs.String("path", defaultCatalogPath, "Path to catalog file")
		force := fs.Bool("force", false, "Overwrite an existing catalog")
		if err := fs.Parse(args); err != nil {
			return err
		}
		if err := initCatalog(*path, *force, now()); err != nil {
			return err
		}
		fmt.Fprintf(out, "Wrote built-in activities to %s\n", *path)

	case "add":
		fs := flag.NewFlagSet("add", flag.ContinueOnError)
		path := fs.String("path", defaultCatalogPath, "Path to catalog file")
		name := fs.String("name", "", "Activity name (e.g., Chess Club)")
		description := fs.String("description", "", "Description")
		schedule := fs.String("schedule", "", "Schedule (e.g., Fridays, 3:30 PM - 5:00 PM)")
		maxParticipants := fs.Int("max", 0, "Maximum participants")
		participants := fs.String("participants", "", "Comma separated initial participant emails")
		if err := fs.Parse(args); err != nil {
			return err
		}
		if *name == "" || *description == "" || *schedule == "" || *maxParticipants <= 0 {
			return errors.New("name, description, schedule and a positive max are required for add")
		}
		activity := catalog.Activity{
			Name:            *name,
			Description:     *description,
			Schedule:        *schedule,
			MaxParticipants: *maxParticipants,
			Participants:    splitList(*participants),
		}
		if err := addActivity(*path, activity, now()); err != nil {
			return err
		}
		fmt.Fprintf(out, "Added activity: %s\n", *name)

	case "update":
		fs := flag.NewFlagSet("update", flag.ContinueOnError)
		path := fs.String("path", defaultCatalogPath, "Path to catalog file")
		name := fs.String("name", "", "Activity name to update")
		field := fs.String("field", "", "Field to update (description, schedule, max_participants, participants)")
		value := fs.String("value", "", "New value for the field")
		if err := fs.Parse(args); err != nil {
			return err
		}
		if *name == "" || *field == "" {
			return errors.New("name and field are required for update")
		}
		if err := updateActivity(*path, *name, *field, *value, now()); err != nil {
			return err
		}
		fmt.Fprintf(out, "Updated activity %s, field %s to %s\n", *name, *field, *value)

	case "validate":
		fs := flag.NewFlagSet("validate", flag.ContinueOnError)
		path := fs.String("path", defaultCatalogPath, "Path to catalog file")
		if err := fs.Parse(args); err != nil {
			return err
		}
		c, err := catalog.Load(*path)
		if err != nil {
			return fmt.Errorf("catalog validation failed: %w", err)
		}
		fmt.Fprintf(out, "Catalog validation passed: %d activities.\n", len(c.Activities))

	case "list":
		fs := flag.NewFlagSet("list", flag.ContinueOnError)
		path := fs.String("path", defaultCatalogPath, "Path to catalog file")
		if err := fs.Parse(args); err != nil {
			return err
		}
		c, err := catalog.Load(*path)
		if err != nil {
			return err
		}
		listActivities(out, c)

	case "help":
		help()

	default:
		help()
		return fmt.Errorf("unknown command %q", command)
	}
	return nil
}

func initCatalog(path string, force bool, now time.Time) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists, use -force to overwrite", path)
	}
	return catalog.Save(activities.ToCatalog(activities.DefaultActivities(), now), path)
}

func addActivity(path string, activity catalog.Activity, now time.Time) error {
	c, err := catalog.Load(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to load catalog: %w", err)
		}
		c = &catalog.Catalog{Version: activities.CatalogVersion}
	}

	if c.Find(activity.Name) >= 0 {
		return fmt.Errorf("activity %s already exists", activity.Name)
	}

	c.Activities = append(c.Activities, activity)
	return save(c, path, now)
}

func updateActivity(path, name, field, value string, now time.Time) error {
	c, err := catalog.Load(path)
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}

	i := c.Find(name)
	if i < 0 {
		return fmt.Errorf("activity %s not found", name)
	}

	a := &c.Activities[i]
	switch field {
	case "description":
		a.Description = value
	case "schedule":
		a.Schedule = value
	case "max_participants":
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return fmt.Errorf("invalid max_participants value: %q", value)
		}
		a.MaxParticipants = n
	case "participants":
		a.Participants = splitList(value)
	default:
		return fmt.Errorf("unknown field: %s", field)
	}

	return save(c, path, now)
}

// save validates c the way the server will before writing it, so the tool
// never produces a catalog the server refuses to load.
func save(c *catalog.Catalog, path string, now time.Time) error {
	c.LastUpdated = now.UTC().Format(time.RFC3339)

	result, err := validation.ValidateGo(catalog.Schema, c)
	if err != nil {
		return err
	}
	if !result.Valid {
		return fmt.Errorf("catalog would be invalid: %s", result.Error())
	}
	if err := c.Validate(); err != nil {
		return fmt.Errorf("catalog would be invalid: %w", err)
	}
	return catalog.Save(c, path)
}

func listActivities(out io.Writer, c *catalog.Catalog) {
	sorted := append([]catalog.Activity{}, c.Activities...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	fmt.Fprintf(out, "Catalog %s (updated %s)\n", c.Version, c.LastUpdated)
	for _, a := range sorted {
		fmt.Fprintf(out, "  %-20s %2d/%-3d %s\n", a.Name, len(a.Participants), a.MaxParticipants, a.Schedule)
	}
}

func splitList(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func help() {
	fmt.Println("Usage: catalog-updater <command> [options]")
	fmt.Println("Commands:")
	fmt.Println("  init      Write the built-in activities to a new catalog file")
	fmt.Println("  add       Add a new activity to the catalog")
	fmt.Println("  update    Update a field of an existing activity")
	fmt.Println("  validate  Validate the catalog against its schema")
	fmt.Println("  list      List the activities in the catalog")
	fmt.Println("  help      Show this help message")
}
