package config

import (
	"io"
	"os"
	"path/filepath"

	"github.com/kkyr/fig"
	"github.com/spf13/pflag"
)

const (
	EnvPrefix   = "KINGBALL"
	DefaultFile = "config.yaml"
)

// LoadConfig loads a configuration file into the given struct.
// The path param specifies a custom path to the configuration file,
// either a directory or a yaml file.
// Reads and puts environment variables with the prefix KINGBALL_.
// Params from the config should be in uppercase separated with _.
func LoadConfig(config any, path string) error {
	file, dirs := DefaultFile, []string{path}
	if path == "" {
		dirs = []string{".", "configs", "../configs", "../../configs"}
		if home, err := os.UserHomeDir(); err == nil {
			dirs = append(dirs, filepath.Join(home, ".kingball"))
		}
	} else if filepath.Ext(path) != "" {
		file, dirs = filepath.Base(path), []string{filepath.Dir(path)}
	}
	return fig.Load(config, fig.File(file), fig.Dirs(dirs...), fig.UseEnv(EnvPrefix))
}

// PathFlag reads the --conf flag ahead of the others, so the
// file loads before the flags override it.
func PathFlag() string {
	fs := pflag.NewFlagSet("conf", pflag.ContinueOnError)
	fs.ParseErrorsWhitelist.UnknownFlags = true
	fs.SetOutput(io.Discard)
	fs.Usage = func() {}
	path := fs.String("conf", "", "")
	_ = fs.Parse(os.Args[1:])
	return *path
}

func pathFlag(fs *pflag.FlagSet) { fs.String("conf", "", "Config file or directory") }
