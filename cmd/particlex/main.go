// Command particlex runs the ParticleX theme's build-time helpers.
package main

import "os"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
