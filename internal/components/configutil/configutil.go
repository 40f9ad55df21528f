// Package configutil reads json5 config files, merging an optional local override
// file over them.
package configutil

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"dario.cat/mergo"
	"github.com/titanous/json5"
)

// Validator is implemented by configs that can check themselves after being read.
type Validator interface {
	Validate() error
}

// Defaulter is implemented by configs that fill in unset optional fields.
type Defaulter interface {
	SetDefaults()
}

// LocalPath returns the path of the override file for `name`,
// "dir/config.json5" becomes "dir/config.local.json5".
func LocalPath(name string) string {
	ext := filepath.Ext(name)
	return strings.TrimSuffix(name, ext) + ".local" + ext
}

// readFile unmarshals the file at `path` into `out`, a missing or empty file
// leaves `out` untouched and returns false.
func readFile(path string, out any) (bool, error) {
	content, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if len(content) == 0 {
		return false, nil
	}
	err = json5.Unmarshal(content, out)
	if err != nil {
		return false, fmt.Errorf("parse %s: %w", path, err)
	}
	return true, nil
}

// ReadConfig reads the config file `name` (which includes its extension) and merges
// `LocalPath(name)` over it, non-zero values of the local file win.
//
// If T implements Defaulter its defaults are applied after the merge, if it
// implements Validator the merged config is validated. os.ErrNotExist is returned
// when neither file exists.
func ReadConfig[T any](name string) (T, error) {
	var out T

	found, err := readFile(name, &out)
	if err != nil {
		return out, err
	}

	local := LocalPath(name)
	var override T
	foundLocal, err := readFile(local, &override)
	if err != nil {
		return out, err
	}
	if foundLocal {
		err = mergo.Merge(&out, override, mergo.WithOverride)
		if err != nil {
			return out, fmt.Errorf("merge %s: %w", local, err)
		}
		slog.Info("merging config with local overrides", "local", local)
	}

	if !found && !foundLocal {
		return out, os.ErrNotExist
	}

	if d, ok := any(&out).(Defaulter); ok {
		d.SetDefaults()
	}
	if v, ok := any(&out).(Validator); ok {
		err = v.Validate()
		if err != nil {
			return out, fmt.Errorf("invalid config %s: %w", name, err)
		}
	}
	return out, nil
}

// ReadRecursively is ReadConfig, but a relative `name` is looked for in the working
// directory and then in every parent directory up to the root.
func ReadRecursively[T any](name string) (T, error) {
	if filepath.IsAbs(name) {
		return ReadConfig[T](name)
	}

	var empty T
	current, err := os.Getwd()
	if err != nil {
		return empty, err
	}

	for {
		config, err := ReadConfig[T](filepath.Join(current, name))
		if !errors.Is(err, os.ErrNotExist) {
			return config, err
		}

		parent := filepath.Dir(current)
		if parent == current {
			return empty, os.ErrNotExist
		}
		current = parent
	}
}
