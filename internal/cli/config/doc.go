// Package config defines the dayon-cli configuration.
//
//   - spec.go: CLIConfig struct (~/.dayon/config.yaml)
//   - loader.go: layered loading (file, .env, DAYON_ env, flags) and saving
//
// Secrets such as the token store passphrase and the Redis password are
// accepted from the environment but never written back to the file.
package config
