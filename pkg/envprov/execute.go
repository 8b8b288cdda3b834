package envprov

import "github.com/osvaldoandrade/envprov/internal/cli"

// Execute runs the envprov CLI entrypoint.
func Execute() int {
	return cli.Execute()
}
