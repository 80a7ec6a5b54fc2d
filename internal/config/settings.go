// Package config holds the application settings kept in settings.yaml next to
// the executable. A missing file means defaults, not an error.
package config

import (
	"os"

	"github.com/fpawel/vctool/internal/pkg/cfgfile"
	"gopkg.in/yaml.v3"
)

type Settings struct {
	// Addr is the listen address of the presentation API.
	Addr string `yaml:"addr"`
	// ExportFile is the default destination of a ledger export when the
	// caller names none.
	ExportFile string `yaml:"export_file"`
}

func Default() Settings {
	return Settings{
		Addr:       "127.0.0.1:7073",
		ExportFile: "virtual_condition.xlsx",
	}
}

func (x *Settings) Save() error {
	return file.Set(x)
}

func (x *Settings) Open() error {
	*x = Default()
	if _, err := os.Stat(file.Filename()); os.IsNotExist(err) {
		return nil
	}
	return file.Get(x)
}

var file = cfgfile.New("settings.yaml", yaml.Marshal, yaml.Unmarshal)
