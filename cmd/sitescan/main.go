// Package main provides the entry point for the sitescan CLI.
//
// sitescan loads a web page and inventories the third-party resources it
// pulls in: cookies, scripts, tracking pixels, iframes and network requests,
// each classified by privacy risk.
//
// Usage:
//
//	sitescan serve
//	sitescan scan https://example.com
//	sitescan compare old.json new.json
//
// See --help for all available options.
package main

func main() {
	Execute()
}
