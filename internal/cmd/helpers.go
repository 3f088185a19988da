package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"bugbook/internal/bugstorage"
)

// errNotInitialized is returned by commands that write when the project has
// no .bugbook directory.
var errNotInitialized = errors.New(`bugbook is not initialized in this directory (run "bugbook init")`)

// requireInit fails unless the storage root exists.
func requireInit(app *App) error {
	info, err := os.Stat(app.Root)
	if err != nil || !info.IsDir() {
		return errNotInitialized
	}
	return nil
}

// getBug loads a bug, turning storage errors into messages that name the ID.
func getBug(ctx context.Context, app *App, id string) (*bugstorage.Bug, error) {
	bug, err := app.Storage.Get(ctx, id)
	switch {
	case errors.Is(err, bugstorage.ErrInvalidID):
		return nil, fmt.Errorf("invalid bug ID format: %q (expected 1-8 hex characters)", id)
	case errors.Is(err, bugstorage.ErrNotFound):
		return nil, fmt.Errorf("bug with ID '%s' not found", id)
	case err != nil:
		return nil, fmt.Errorf("loading bug %s: %w", id, err)
	}
	return bug, nil
}

// cleanText length-checks and sanitises a free-text field. field names the
// input in the error.
func cleanText(field, s string) (string, error) {
	if err := bugstorage.CheckLength(s); err != nil {
		return "", fmt.Errorf("%s: %w", field, err)
	}
	return bugstorage.SanitizeInput(s), nil
}

// registerTag adds a category to the tag registry when it is new, noting the
// addition on stdout. It returns the sanitised tag, or DefaultTag when
// nothing usable is left.
func registerTag(ctx context.Context, app *App, name string) (string, error) {
	res, err := app.Tags.Add(ctx, name)
	if err != nil {
		return "", err
	}
	if res.Name == "" {
		if !app.JSON {
			fmt.Fprintf(app.Err, "Invalid tag name %q, using %q.\n", name, bugstorage.DefaultTag)
		}
		return bugstorage.DefaultTag, nil
	}
	if res.Added && !app.JSON {
		fmt.Fprintf(app.Out, "New tag '%s' created.\n", res.Name)
	}
	return res.Name, nil
}
