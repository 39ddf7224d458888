// Package main provides the entry point for dayon-cli.
//
// dayon-cli is a command-line client for the Dayon boarding-house
// marketplace. It keeps the API token in a local token store so that a
// login survives between invocations:
//
//	dayon-cli login -e me@example.com
//	dayon-cli property list --available
//	dayon-cli reservation create 3 -d "Two weeks from June"
//	dayon-cli shell
package main
