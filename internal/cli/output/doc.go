// Package output renders dayon-cli results.
//
//   - formatter.go: Format parsing, Formatter interface and Printer
//   - table.go: aligned tables; types implementing Tabular control their
//     own columns
//   - json.go, yaml.go: machine-readable output using the JSON field names
//   - spinner.go: progress animation, shown only on a terminal
//
// Status lines (success, warnings, errors) go to the error stream so that
// stdout stays parseable in json and yaml modes.
package output
