package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"dagger/ragdesk/internal/dagger"
)

// Build and return a directory of ragdesk binaries, one per linux platform
func (r *Ragdesk) Build(
	ctx context.Context,

	// Linker flags for go build
	// +optional
	// +default="-s -w"
	ldflags string,
) *dagger.Directory {
	platforms := []dagger.Platform{"linux/amd64", "linux/arm64"}

	outputs := dag.Directory()

	for _, platform := range platforms {
		path := string(platform) + "/"

		build := r.goContainer(platform).
			WithExec([]string{"go", "build", "-ldflags", ldflags, "-o", path, "./cli/ragdesk"})

		outputs = outputs.WithDirectory(path, build.Directory(path))
	}

	return outputs
}

// BuildRelease compiles versioned release binaries with embedded version info
func (r *Ragdesk) BuildRelease(
	ctx context.Context,

	// Version string of build
	version string,

	// Git commit SHA of build
	commit string,
) *dagger.Directory {
	const pkg = "github.com/papercomputeco/ragdesk/pkg/utils"

	ldflags := []string{
		"-s",
		"-w",
		fmt.Sprintf("-X '%s.Version=%s'", pkg, version),
		fmt.Sprintf("-X '%s.Sha=%s'", pkg, commit),
		fmt.Sprintf("-X '%s.Buildtime=%s'", pkg, time.Now().UTC().Format(time.RFC3339)),
	}

	return r.Build(ctx, strings.Join(ldflags, " "))
}
