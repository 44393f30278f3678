package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"dagger/azrelay/internal/dagger"
)

const versionPkg = "github.com/papercomputeco/azrelay/pkg/utils"

// Build and return directory of go binaries
func (a *Azrelay) Build(
	ctx context.Context,

	// Linker flags for go build
	// +optional
	// +default="-s -w"
	ldflags string,
) *dagger.Directory {
	// define build matrix
	gooses := []string{"linux", "darwin"}
	goarches := []string{"amd64", "arm64"}

	// create empty directory to put build artifacts
	outputs := dag.Directory()

	for _, goos := range gooses {
		for _, goarch := range goarches {
			// create directory for each OS and architecture
			path := fmt.Sprintf("%s/%s/", goos, goarch)

			build := a.goContainer().
				WithEnvVariable("GOOS", goos).
				WithEnvVariable("GOARCH", goarch).
				WithExec([]string{"go", "build", "-ldflags", ldflags, "-o", path, "./cli/azrelay"}).
				WithExec([]string{"go", "build", "-ldflags", ldflags, "-o", path, "./cli/azrelayd"})

			outputs = outputs.WithDirectory(path, build.Directory(path))
		}
	}

	return outputs
}

// BuildRelease compiles versioned release binaries with embedded version info
func (a *Azrelay) BuildRelease(
	ctx context.Context,

	// Version string of build
	version string,

	// Git commit SHA of build
	commit string,
) *dagger.Directory {
	buildtime := time.Now().UTC().Format(time.RFC3339)

	ldflags := []string{
		"-s",
		"-w",
		fmt.Sprintf("-X '%s.Version=%s'", versionPkg, version),
		fmt.Sprintf("-X '%s.Sha=%s'", versionPkg, commit),
		fmt.Sprintf("-X '%s.Buildtime=%s'", versionPkg, buildtime),
	}

	return a.Build(ctx, strings.Join(ldflags, " "))
}

// Image returns a minimal linux container running azrelayd on :8080 with the
// admin server on :9090.
func (a *Azrelay) Image(
	ctx context.Context,

	// Version string of build
	// +optional
	// +default="dev"
	version string,

	// Git commit SHA of build
	// +optional
	// +default="HEAD"
	commit string,

	// Target architecture
	// +optional
	// +default="amd64"
	arch string,
) *dagger.Container {
	bin := a.BuildRelease(ctx, version, commit).File(fmt.Sprintf("linux/%s/azrelayd", arch))

	return dag.Container(dagger.ContainerOpts{Platform: dagger.Platform("linux/" + arch)}).
		From("alpine:3.22").
		WithExec([]string{"apk", "add", "--no-cache", "ca-certificates"}).
		WithFile("/usr/local/bin/azrelayd", bin).
		WithEnvVariable("AZRELAY_LOG_JSON", "true").
		WithExposedPort(8080).
		WithExposedPort(9090).
		WithEntrypoint([]string{"/usr/local/bin/azrelayd"})
}
