package main

import (
	"context"
	"errors"
	"fmt"

	"dagger/ragdesk/internal/dagger"
)

// CheckGoModTidy fails when "go mod tidy" would change go.mod or go.sum.
//
// +check
func (r *Ragdesk) CheckGoModTidy(ctx context.Context) (string, error) {
	out, err := r.goContainer("linux/amd64").
		WithExec([]string{"cp", "go.mod", "go.mod.HEAD"}).
		WithExec([]string{"sh", "-c", "cp go.sum go.sum.HEAD 2>/dev/null || touch go.sum.HEAD"}).
		WithExec([]string{"go", "mod", "tidy"}).
		WithExec([]string{
			"sh", "-c",
			"diff -u go.mod.HEAD go.mod && diff -u go.sum.HEAD go.sum",
		}).
		Stdout(ctx)

	var e *dagger.ExecError
	if errors.As(err, &e) {
		return "", fmt.Errorf("go.mod or go.sum are not tidy: run 'go mod tidy'\n\n%s", e.Stdout)
	} else if err != nil {
		return "", fmt.Errorf("unexpected error: %w", err)
	}

	return fmt.Sprintf("go.mod and go.sum are tidy: %s", out), nil
}
