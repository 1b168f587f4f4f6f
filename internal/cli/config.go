package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/likearthian/dbmodel"
)

// LoadConfig reads a connection config from a YAML file.
func LoadConfig(path string) (dbmodel.Config, error) {
	var cfg dbmodel.Config

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	return cfg, nil
}

// resolve merges the config file, if any, with flags given on the command
// line. Flags win.
func (o *RootOptions) resolve(cmd *cobra.Command) error {
	if o.ConfigFile == "" {
		return nil
	}

	fileCfg, err := LoadConfig(o.ConfigFile)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("driver") {
		fileCfg.Driver = o.Config.Driver
	}
	if flags.Changed("url") {
		fileCfg.URL = o.Config.URL
	}
	if flags.Changed("user") {
		fileCfg.User = o.Config.User
	}
	if flags.Changed("password") {
		fileCfg.Password = o.Config.Password
	}

	o.Config = fileCfg
	return nil
}

func (o *RootOptions) open(ctx context.Context) (*dbmodel.Connection, error) {
	if o.Config.Driver == "" {
		return nil, fmt.Errorf("no driver given, use --driver or --config")
	}
	return dbmodel.NewProvider(o.Config).Open(ctx)
}
