package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/apidoc/internal/foundation/errors"
)

const exampleHeader = `# apidoc configuration.
# ${VAR} references are expanded from the environment, .env and .env.local.
`

// Init writes a configuration file holding every default.
func Init(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return errors.ConfigError("configuration file already exists (use --force to overwrite)").
			WithContext("path", path).
			UserAction().
			Build()
	}
	cfg := Default()
	cfg.Journal.Enabled = true
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.WrapError(err, errors.CategoryConfig, "failed to encode configuration").Build()
	}
	if err := os.WriteFile(path, append([]byte(exampleHeader), data...), 0o600); err != nil {
		return errors.FileSystemError("failed to write configuration file").WithCause(err).
			WithContext("path", path).
			Build()
	}
	return nil
}
