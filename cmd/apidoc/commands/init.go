package commands

import (
	"fmt"
	"os"

	apperrors "git.home.luguber.info/inful/apidoc/internal/foundation/errors"
)

// InitCmd writes an example configuration file.
type InitCmd struct {
	Force bool `help:"Overwrite an existing configuration file"`
}

const exampleConfig = `# apidoc configuration
project: "API Documentation"

intake:
  # YAML symbol record files, globs allowed.
  record_files:
    - "records/*.yaml"
  # Go packages to extract symbols from, relative to this file.
  # go_packages:
  #   - "./..."

output:
  directory: "./docs-out"
  clean: false

render:
  formats:
    - markdown
  # include_non_public: true
  # page_height: 44
  # verify_links: true

watch:
  debounce: "500ms"
  # interval: "5m"

history:
  path: ".apidoc/history.db"

# events:
#   url: "nats://localhost:4222"
#   subject: "apidoc.runs"

# metrics:
#   listen: ":9105"

logging:
  level: info
  format: text
`

func (i *InitCmd) Run(_ *Global, cli *CLI) error {
	path := cli.Config
	if !i.Force {
		if _, err := os.Stat(path); err == nil {
			return apperrors.ConfigError(fmt.Sprintf("%s already exists, use --force to overwrite", path)).Build()
		}
	}
	if err := os.WriteFile(path, []byte(exampleConfig), 0o644); err != nil {
		return apperrors.WrapError(err, apperrors.CategoryConfig, "writing configuration file").Build()
	}
	fmt.Printf("wrote %s\n", path)
	return nil
}
