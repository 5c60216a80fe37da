package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/wildbranch/wbl-catalog/pkg/config"
)

// configurationWatchCmd represents the configuration watch command
var configurationWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-validate the config file every time it changes",
	Long: `Watch wbl.yml and validate it whenever it is written.

This is an operator aid for editing the file. A running server does not
reload its configuration; restart it to apply changes.

Example:
  wblctl configuration watch`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
			os.Exit(1)
		}

		if err := watchConfiguration(cfg.ConfigFilePath()); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to watch configuration: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	configurationCmd.AddCommand(configurationWatchCmd)
}

func watchConfiguration(filename string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	// Editors often replace the file, so watch its directory.
	dir := filepath.Dir(filename)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch directory %s: %w", dir, err)
	}

	fmt.Printf("Watching %s for configuration changes\n", filename)
	reportConfiguration(os.Stdout, filename)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(filename) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			fmt.Printf("[%s] %s changed\n", time.Now().Format(time.RFC3339), filename)
			reportConfiguration(os.Stdout, filename)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(os.Stderr, "Watcher error: %v\n", err)
		case <-sigChan:
			fmt.Println("\nShutting down...")
			return nil
		}
	}
}

// reportConfiguration loads and validates filename with the current
// environment applied and writes the verdict to w
func reportConfiguration(w io.Writer, filename string) bool {
	cfg, err := config.LoadFile(filename)
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		fmt.Fprintf(w, "Configuration is invalid: %v\n", err)
		return false
	}
	fmt.Fprintln(w, "Configuration is valid")
	return true
}
