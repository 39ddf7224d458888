// Package main provides the entry point for dayon-mockapi.
//
// dayon-mockapi serves an in-memory imitation of the marketplace API for
// local development and demos. It starts with a demo account
// (demo@dayon.test / password) and a few listings:
//
//	dayon-mockapi --addr 127.0.0.1:8000
//	dayon-cli --server http://127.0.0.1:8000/api login -e demo@dayon.test
package main
