package config

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// Dir is the directory holding the shipped config files.
var Dir = "infra/config"

// MustLoad decodes the shipped json config for the given key into v.
// It panics if the file is missing or malformed.
func MustLoad(key string, v interface{}) {
	file := filepath.Join(Dir, fmt.Sprintf("%s.json", key))
	if err := Load(file, v); err != nil {
		panic(fmt.Sprintf("could not load config for %s: %s", key, err.Error()))
	}
}

// Load decodes the config file at the given path into v.
// Files with a .yaml or .yml extension are decoded as yaml, everything else as json.
func Load(file string, v interface{}) error {
	b, err := ioutil.ReadFile(file)
	if err != nil {
		return fmt.Errorf("could not load config '%s': %w", file, err)
	}
	switch strings.ToLower(filepath.Ext(file)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, v)
	default:
		err = json.Unmarshal(b, v)
	}
	if err != nil {
		return fmt.Errorf("could not unmarshal config '%s': %w", file, err)
	}
	log.Info().Str("file", file).Msg("loaded config")
	return nil
}
