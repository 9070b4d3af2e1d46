// Command bridge serves NAMASTE and ICD-11 terminology search and
// translation, and loads the NAMASTE mapping sheet into the terminology
// store.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
