// Package tlsroots builds the TLS configuration used to reach the backend.
//
// System roots are always trusted. Extra CA bundles (a file or a directory
// of .pem, .crt and .cer files) can be added for self-hosted backends with
// a private CA.
package tlsroots
