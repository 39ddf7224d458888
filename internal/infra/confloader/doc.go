// Package confloader loads layered configuration with koanf.
//
// Priority (highest to lowest):
//
//  1. Overrides passed to LoadMap (command-line flags)
//  2. Environment variables with the DAYON_ prefix
//  3. A .env file, when one is configured
//  4. The YAML configuration file
//  5. Defaults already present in the target struct
//
// Environment keys nest with a double underscore, so single underscores
// can appear inside key names:
//
//	DAYON_TOKEN_STORE__DRIVER=badger  ->  token_store.driver
//	DAYON_LOG__LEVEL=debug            ->  log.level
package confloader
