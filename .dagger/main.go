// azrelay CI/CD
//
// Package main provides reproducible builds, tests and release images locally
// and in GitHub actions.
package main

import (
	"context"

	"dagger/azrelay/internal/dagger"
)

// Azrelay is the main module for the azrelay CI/CD pipeline
type Azrelay struct {
	// Project source directory
	//
	// +private
	Source *dagger.Directory
}

// New creates a new azrelay CI/CD module instance
func New(
	// Project source directory.
	//
	// +defaultPath="/"
	// +ignore=[".git", ".direnv", ".devenv", "build", "tmp", "_examples"]
	source *dagger.Directory,
) *Azrelay {
	return &Azrelay{
		Source: source,
	}
}

// goContainer returns an Alpine-based Go container with the project source
// mounted. azrelay is pure Go, so CGO stays disabled.
//
// It is the shared foundation for tests and builds.
func (a *Azrelay) goContainer() *dagger.Container {
	return dag.Container().
		From("golang:1.25-alpine").
		WithEnvVariable("CGO_ENABLED", "0").
		WithMountedCache("/go/pkg/mod", dag.CacheVolume("go-mod")).
		WithMountedCache("/root/.cache/go-build", dag.CacheVolume("go-build")).
		WithWorkdir("/src").
		WithDirectory("/src", a.Source)
}

// Test runs the azrelay unit tests via "go test"
//
// +check
func (a *Azrelay) Test(ctx context.Context) (string, error) {
	return a.goContainer().
		WithExec([]string{"go", "test", "-v", "./..."}).
		Stdout(ctx)
}
