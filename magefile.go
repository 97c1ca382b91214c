//go:build mage
// +build mage

package main

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/magefile/mage/mg"
)

// Default target to run when none is specified
// If not set, running mage will list available targets
var Default = Build

var commands = []string{"aggregate", "scan", "analyze", "coincidence", "convert", "nbcount"}

// Build compiles every command into ./bin
func Build() error {
	for _, name := range commands {
		mg.Deps(mg.F(BuildCommand, name))
	}
	fmt.Println("Compilation finished")
	return nil
}

// BuildCommand compiles one command with the HDF5 cgo flags from the
// environment.
func BuildCommand(name string) error {
	fmt.Printf("Building %s executable...\n", name)
	ldflags := os.Getenv("CGO_LDFLAGS")
	cflags := os.Getenv("CGO_CFLAGS")
	cmd := exec.Command("go", "build", "-o", "./bin/"+name, "./"+name)
	cmd.Env = append(os.Environ(),
		"CGO_ENABLED=1",
		fmt.Sprintf("CGO_LDFLAGS=%s", ldflags),
		fmt.Sprintf("CGO_CFLAGS=%s", cflags))
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// Test runs the library tests.
func Test() error {
	cmd := exec.Command("go", "test", "./pkg/...", "./internal/...")
	cmd.Env = append(os.Environ(), "CGO_ENABLED=1")
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
