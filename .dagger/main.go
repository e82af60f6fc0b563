// Ragdesk CI
//
// Package main provides reproducible builds and tests locally and in GitHub actions.
package main

import (
	"context"

	"dagger/ragdesk/internal/dagger"
)

// Ragdesk is the CI module for the ragdesk CLI and development service.
type Ragdesk struct {
	// Project source directory
	//
	// +private
	Source *dagger.Directory
}

// New creates a new Ragdesk CI module instance
func New(
	// Project source directory.
	//
	// +defaultPath="/"
	// +ignore=[".git", ".ragdesk", "build", "tmp", "_examples"]
	source *dagger.Directory,
) *Ragdesk {
	return &Ragdesk{
		Source: source,
	}
}

// goContainer returns a Debian Bookworm-based Go container for platform with
// gcc and libsqlite3-dev installed, CGO enabled and the project source
// mounted. The SQLite history driver needs CGO, so builds run natively on
// each target platform instead of cross compiling.
func (r *Ragdesk) goContainer(platform dagger.Platform) *dagger.Container {
	return dag.Container(dagger.ContainerOpts{Platform: platform}).
		From("golang:1.25-bookworm").
		WithExec([]string{"apt-get", "update"}).
		WithExec([]string{"apt-get", "install", "-y", "gcc", "libsqlite3-dev"}).
		WithEnvVariable("CGO_ENABLED", "1").
		WithEnvVariable("PATH", "/go/bin:$PATH", dagger.ContainerWithEnvVariableOpts{Expand: true}).
		WithMountedCache("/go/pkg/mod", dag.CacheVolume("go-mod")).
		WithMountedCache("/root/.cache/go-build", dag.CacheVolume("go-build-"+string(platform))).
		WithWorkdir("/src").
		WithDirectory("/src", r.Source)
}

// Test runs the unit tests via "go test"
func (r *Ragdesk) Test(ctx context.Context) (string, error) {
	return r.goContainer("linux/amd64").
		WithExec([]string{"go", "test", "-v", "./..."}).
		Stdout(ctx)
}
