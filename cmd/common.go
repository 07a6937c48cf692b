package cmd

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/KaramelBytes/ecomenu/internal/ai"
	"github.com/KaramelBytes/ecomenu/internal/assistant"
	cfgpkg "github.com/KaramelBytes/ecomenu/internal/config"
	"github.com/KaramelBytes/ecomenu/internal/dataset"
)

func requireConfig() (*cfgpkg.Global, error) {
	if cfg != nil {
		return cfg, nil
	}
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	cfg = c
	return cfg, nil
}

// datasetPath picks the file to load: positional arg, then --data, then
// data_path, then the default location.
func datasetPath(args []string) string {
	switch {
	case len(args) > 0 && strings.TrimSpace(args[0]) != "":
		return args[0]
	case flagDataPath != "":
		return flagDataPath
	case cfg != nil && cfg.DataPath != "":
		return cfg.DataPath
	}
	return dataset.DefaultPath()
}

func loadTable(args []string) (*dataset.Table, error) {
	c, err := requireConfig()
	if err != nil {
		return nil, err
	}
	path := datasetPath(args)
	t, err := dataset.Load(path, c.DatasetOptions())
	if err != nil {
		var fae *dataset.FileAccessError
		if errors.As(err, &fae) && errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("dataset not found at %s: pass a file, use --data or 'ecomenu config set data_path <file>': %w", path, err)
		}
		return nil, err
	}
	return t, nil
}

func printWarnings(w io.Writer, t *dataset.Table) {
	for _, warn := range t.Warnings {
		fmt.Fprintf(w, "⚠ Warning: %s\n", warn)
	}
}

// newAssistant builds the chat assistant from the effective configuration.
// A missing API key is returned as *assistant.ConfigurationError.
func newAssistant() (*assistant.Assistant, error) {
	c, err := requireConfig()
	if err != nil {
		return nil, err
	}
	opts := c.AssistantOptions()
	if debug {
		opts.Debug = os.Stderr
	}
	return assistant.New(opts)
}

// chatError maps chat failures to actionable messages.
func chatError(err error) error {
	var (
		rse     *assistant.RemoteServiceError
		cfgErr  *assistant.ConfigurationError
		unreach *ai.UnreachableError
	)
	switch {
	case errors.As(err, &cfgErr):
		return err
	case errors.As(err, &unreach):
		return fmt.Errorf("endpoint unreachable at %s. Check your network and base_url: %w", unreach.Host, err)
	case errors.As(err, &rse):
		return fmt.Errorf("%s: %w", strings.TrimSuffix(rse.Hint(), "."), err)
	}
	return fmt.Errorf("chat failed: %w", err)
}
