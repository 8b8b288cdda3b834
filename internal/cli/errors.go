package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
	historyapp "github.com/osvaldoandrade/envprov/internal/app/history"
	manifestapp "github.com/osvaldoandrade/envprov/internal/app/manifest"
	"github.com/osvaldoandrade/envprov/internal/app/paths"
	provisionapp "github.com/osvaldoandrade/envprov/internal/app/provision"
	"github.com/osvaldoandrade/envprov/internal/domain"
)

type ErrorKind string

const (
	KindInternal    ErrorKind = "internal"
	KindValidation  ErrorKind = "validation"
	KindNotFound    ErrorKind = "not_found"
	KindProvision   ErrorKind = "provision"
	KindInterrupted ErrorKind = "interrupted"
)

const (
	ExitInternal    = 1
	ExitInvalid     = 2
	ExitNotFound    = 3
	ExitProvision   = 5
	ExitInterrupted = 130
)

type ExitError struct {
	Code    int
	Kind    ErrorKind
	Message string
	// Step is the label of the failed provisioning step, if any.
	Step string
	Err  error
}

func (e ExitError) Error() string {
	return errorMessage(e)
}

func (e ExitError) Unwrap() error {
	return e.Err
}

func NormalizeError(err error) ExitError {
	if err == nil {
		return ExitError{Code: 0}
	}
	var exitErr ExitError
	if errors.As(err, &exitErr) {
		if exitErr.Code == 0 {
			exitErr.Code = ExitInternal
		}
		return exitErr
	}

	var stepErr *domain.ProvisionError
	switch {
	case errors.Is(err, context.Canceled):
		return ExitError{Code: ExitInterrupted, Kind: KindInterrupted, Err: err}
	case errors.As(err, &stepErr):
		step := domain.StepResult{Kind: stepErr.Kind, Target: stepErr.Target}.Label()
		return ExitError{Code: ExitProvision, Kind: KindProvision, Step: step, Err: err}
	case errors.Is(err, manifestapp.ErrManifestNotFound),
		errors.Is(err, historyapp.ErrRunNotFound),
		errors.Is(err, provisionapp.ErrEnvironmentMissing):
		return ExitError{Code: ExitNotFound, Kind: KindNotFound, Err: err}
	case errors.Is(err, manifestapp.ErrInvalidManifest),
		errors.Is(err, manifestapp.ErrInvalidOverlay),
		errors.Is(err, paths.ErrPathRequired),
		errors.Is(err, historyapp.ErrRunIDRequired),
		errors.Is(err, historyapp.ErrInvalidLimit),
		errors.Is(err, domain.ErrInvalidPolicy),
		errors.Is(err, domain.ErrInvalidGitBackend),
		errors.Is(err, domain.ErrRepoNameRequired),
		errors.Is(err, domain.ErrInvalidRepoName),
		errors.Is(err, domain.ErrRepoURLRequired),
		errors.Is(err, domain.ErrDuplicateRepo),
		errors.Is(err, domain.ErrSparsePathsRequired),
		errors.Is(err, domain.ErrInvalidSparsePath),
		errors.Is(err, domain.ErrPackageNameRequired),
		errors.Is(err, domain.ErrInvalidPackageName),
		errors.Is(err, domain.ErrDuplicatePackage),
		errors.Is(err, domain.ErrEnvPathRequired),
		errors.Is(err, domain.ErrUnsupportedVersion):
		return ExitError{Code: ExitInvalid, Kind: KindValidation, Err: err}
	default:
		return ExitError{Code: ExitInternal, Kind: KindInternal, Err: err}
	}
}

func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	return NormalizeError(err).Code
}

func writeCLIError(w io.Writer, exitErr ExitError, asJSON bool) error {
	if exitErr.Code == 0 {
		return nil
	}
	message := errorMessage(exitErr)
	if asJSON {
		payload := struct {
			Code    int    `json:"code"`
			Kind    string `json:"kind"`
			Step    string `json:"step,omitempty"`
			Message string `json:"message"`
		}{
			Code:    exitErr.Code,
			Kind:    string(exitErr.Kind),
			Step:    exitErr.Step,
			Message: message,
		}
		return writeJSON(w, payload)
	}

	ui := newRenderer(w, false)
	prefix := "Error"
	if exitErr.Kind != "" {
		prefix = fmt.Sprintf("Error (%s)", exitErr.Kind)
	}
	prefix = ui.paint(toneBad, prefix)
	if _, err := fmt.Fprintf(w, "%s: %s\n", prefix, message); err != nil {
		return err
	}
	if exitErr.Step != "" {
		_, err := fmt.Fprintf(w, "%s %s\n", ui.paint(toneMuted, "failed at"), exitErr.Step)
		return err
	}
	return nil
}

func writeJSON(w io.Writer, value any) error {
	if err := json.MarshalWrite(w, value, jsontext.WithIndent("  ")); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

func errorMessage(exitErr ExitError) string {
	if exitErr.Message != "" {
		return exitErr.Message
	}
	if exitErr.Err != nil {
		return exitErr.Err.Error()
	}
	return "unknown error"
}
