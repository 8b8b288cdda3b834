package main

import (
	"os"

	"github.com/osvaldoandrade/envprov/pkg/envprov"
)

func main() {
	os.Exit(envprov.Execute())
}
