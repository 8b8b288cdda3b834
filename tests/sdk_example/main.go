package main

import (
	"context"
	"fmt"
	"os"

	"github.com/osvaldoandrade/envprov/pkg/envprovsdk"
)

func main() {
	manifest := os.Getenv("ENVPROV_MANIFEST")
	if manifest == "" {
		fmt.Fprintln(os.Stderr, "ENVPROV_MANIFEST is required (path to envprov.yaml)")
		os.Exit(1)
	}

	cfg := envprovsdk.DefaultConfig(manifest)
	cfg.Trace = os.Stderr

	ctx := context.Background()
	client, err := envprovsdk.Open(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open: %v\n", err)
		os.Exit(1)
	}
	defer client.Close()

	report, err := client.Up(ctx)
	for _, step := range report.Steps {
		fmt.Printf("%-40s %-8s %s\n", step.Label(), step.Status, step.Message)
	}
	if err != nil {
		if step, ok := envprovsdk.StepError(err); ok {
			fmt.Fprintf(os.Stderr, "failed at %s: %v\n", step.Label(), err)
		} else {
			fmt.Fprintf(os.Stderr, "up: %v\n", err)
		}
		return
	}
	fmt.Printf("run %s reached %s\n", report.RunID, report.Stage)

	status, err := client.Status(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "status: %v\n", err)
		return
	}
	for _, repo := range status.Repositories {
		fmt.Printf("repo %s head=%s sparse=%t\n", repo.Name, repo.Head, repo.Sparse)
	}
	fmt.Printf("environment %s usable=%t\n", status.Environment.Root, status.Environment.Usable)
}
