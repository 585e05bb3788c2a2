package config

import "os"

// ExpandEnv expands ${VAR}/$VAR references in raw YAML content using the
// standard library, before the content is parsed — identical to the
// teacher's pkg/config/envexpand.go. Missing variables expand to the
// empty string; validation is responsible for catching fields left empty
// by a missing variable.
func ExpandEnv(data []byte) []byte {
	return []byte(os.ExpandEnv(string(data)))
}
