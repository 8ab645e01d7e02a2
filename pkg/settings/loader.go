package settings

import (
	"io/fs"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
)

// DefaultFile is the settings file name written by init.
const DefaultFile = "Recurve.toml"

// ErrExists is returned by Write when the settings file is already there.
var ErrExists = errors.New("settings: file already exists")

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load reads the TOML file at path over Default and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()

	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrapf(err, "settings: read %s", path)
	}

	var values map[string]any
	if err := toml.Unmarshal(raw, &values); err != nil {
		return cfg, errors.Wrapf(err, "settings: parse %s", path)
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &cfg,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return cfg, errors.Wrap(err, "settings: build decoder")
	}
	if err := dec.Decode(values); err != nil {
		return cfg, errors.Wrapf(err, "settings: decode %s", path)
	}

	return cfg, Validate(cfg)
}

// LoadOrDefault is Load, falling back to Default when path does not exist.
func LoadOrDefault(path string) (Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// Validate checks cfg against its struct tags.
func Validate(cfg Config) error {
	return errors.Wrap(validate.Struct(cfg), "settings: invalid")
}

// Write creates path and encodes cfg into it. It never overwrites.
func Write(path string, cfg Config) error {
	if err := Validate(cfg); err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return errors.Wrap(ErrExists, path)
		}
		return errors.Wrapf(err, "settings: create %s", path)
	}

	enc := toml.NewEncoder(f)
	enc.SetIndentTables(true)
	if err := enc.Encode(cfg); err != nil {
		_ = f.Close()
		return errors.Wrapf(err, "settings: encode %s", path)
	}
	return errors.Wrapf(f.Close(), "settings: close %s", path)
}
