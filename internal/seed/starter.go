package seed

import (
	_ "embed"
)

//go:embed starter.yaml
var starterYAML []byte

// Starter returns the built-in starter catalog.
func Starter() (*File, error) {
	return ParseBytes(starterYAML)
}
