// Command davstore manages the local table-object store.
package main

import "github.com/mesh-intelligence/davstore/internal/cli"

func main() {
	cli.Execute()
}
