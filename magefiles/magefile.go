//go:build mage

package main

import (
	"fmt"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

var Default = Build

// Build compiles the mmobj command.
func Build() error {
	mg.Deps(Vet)
	fmt.Println("Building mmobj...")
	return sh.RunV("go", "build", "-o", "bin/mmobj", "./cmd/mmobj")
}

// Test runs all package tests.
func Test() error {
	return sh.RunV("go", "test", "./...")
}

// Vet runs go vet.
func Vet() error {
	return sh.RunV("go", "vet", "./...")
}

// Install installs the mmobj command.
func Install() error {
	mg.Deps(Test)
	return sh.RunV("go", "install", "./cmd/mmobj")
}
