package config

import (
	"fmt"
	"os"
)

const exampleConfig = `# symdoc configuration
default_package: flame
roots:
  flame: ../packages/flame/lib
  flame_audio: ../packages/flame_audio/lib
filter_inherited: true

pages_dir: docs
output_dir: build
cache_dir: .symdoc
# workers defaults to the number of CPUs
# workers: 4

parser:
  command: [dart, run, dartdoc_json.dart, "{file}", --output, "{output}"]
  timeout: 2m

events:
  database: .symdoc/events.db
  # nats_url: ${NATS_URL}
  # subject: symdoc.builds

watch:
  debounce: 500ms
  sweep_interval: 5m

# metrics:
#   listen: 127.0.0.1:9108
`

// Init writes an example configuration file.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}
	if err := os.WriteFile(configPath, []byte(exampleConfig), 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
