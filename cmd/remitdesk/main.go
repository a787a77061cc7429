package main

import (
	"context"
	"fmt"
	"os"

	configfile "github.com/brightvale-health/remitdesk/internal/adapters/driven/config/file"
	"github.com/brightvale-health/remitdesk/internal/adapters/driven/neofeed"
	storagefile "github.com/brightvale-health/remitdesk/internal/adapters/driven/storage/file"
	"github.com/brightvale-health/remitdesk/internal/adapters/driven/storage/sqlite"
	"github.com/brightvale-health/remitdesk/internal/adapters/driving/cli"
	"github.com/brightvale-health/remitdesk/internal/core/ports/driving"
	"github.com/brightvale-health/remitdesk/internal/core/services"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configStore, err := configfile.NewConfigStore("")
	if err != nil {
		return fmt.Errorf("opening config: %w", err)
	}

	neoStore, err := sqlite.NewStore(configStore.GetString("neo.data_dir"))
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer neoStore.Close()

	remitStore := storagefile.NewRemittanceStore(configStore.GetString("editor.backup_suffix"))

	editorFactory := func(path string) (driving.Editor, error) {
		watcher, err := storagefile.NewWatcher()
		if err != nil {
			return nil, fmt.Errorf("starting watcher: %w", err)
		}
		return services.NewEditorSession(context.Background(), remitStore, watcher, path)
	}

	collector := services.NewNEOCollector(neofeed.NewClient(""), neoStore)

	cli.Wire(editorFactory, collector, neoStore, configStore)
	return cli.Execute()
}
