// Command csim replays a memory trace through a set-associative cache and
// prints the number of hits, misses, and evictions.
package main

import "github.com/sarchlab/csim/csim/cmd"

func main() {
	cmd.Execute()
}
