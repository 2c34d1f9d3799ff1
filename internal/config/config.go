package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// DefaultKeyFile is where the API credential is read from unless configured.
const DefaultKeyFile = "api_key.json"

// ErrNoKey is returned when the credential file has no usable key field.
var ErrNoKey = errors.New(`missing "key" field`)

// Error is a configuration failure. It is always fatal.
type Error struct {
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Path == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// LoadAPIKey reads the credential file at path: a JSON object whose "key"
// field holds the API key.
func LoadAPIKey(path string) (string, error) {
	if path == "" {
		path = DefaultKeyFile
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", &Error{Path: path, Err: fmt.Errorf("credential file not found")}
		}
		return "", &Error{Path: path, Err: err}
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	if err := v.ReadInConfig(); err != nil {
		return "", &Error{Path: path, Err: fmt.Errorf("read credential file: %w", err)}
	}

	key := strings.TrimSpace(v.GetString("key"))
	if key == "" {
		return "", &Error{Path: path, Err: ErrNoKey}
	}
	return key, nil
}

// ResolveAPIKey returns override when it is set, otherwise the key from the
// credential file at path.
func ResolveAPIKey(override, path string) (string, error) {
	if key := strings.TrimSpace(override); key != "" {
		return key, nil
	}
	return LoadAPIKey(path)
}
