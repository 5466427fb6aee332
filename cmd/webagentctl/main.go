// Command webagentctl administers a WebAgent deployment: schema migrations,
// user bootstrap and token issuance.
package main

import "os"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
