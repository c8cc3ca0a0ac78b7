// Command router runs the ETL router: the buffer manager, condition
// matcher, service registry, and load balancer that together ingest,
// route, and track delivery of records across pipeline stages.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
