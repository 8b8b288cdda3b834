package domain

import (
	"errors"
	"fmt"
	"time"
)

type StepKind string

const (
	StepPreflight     StepKind = "preflight"
	StepClone         StepKind = "clone"
	StepEnvironment   StepKind = "environment"
	StepBootstrap     StepKind = "bootstrap"
	StepInstall       StepKind = "install"
	StepRequirements  StepKind = "requirements"
	StepVerifyImport  StepKind = "verify-import"
	StepVerifyCommand StepKind = "verify-command"
)

type StepStatus string

const (
	StepDone    StepStatus = "done"
	StepSkipped StepStatus = "skipped"
	StepWarned  StepStatus = "warned"
	StepFailed  StepStatus = "failed"
)

type StepResult struct {
	Kind     StepKind
	Target   string
	Status   StepStatus
	Message  string
	Duration time.Duration
}

func (s StepResult) Label() string {
	if s.Target == "" {
		return string(s.Kind)
	}
	return fmt.Sprintf("%s[%s]", s.Kind, s.Target)
}

// ProvisionError is a failed provisioning step. ExitCode carries the exit
// status of the external tool when one was involved, -1 otherwise.
type ProvisionError struct {
	Kind     StepKind
	Target   string
	ExitCode int
	Err      error
}

func (e *ProvisionError) Error() string {
	label := StepResult{Kind: e.Kind, Target: e.Target}.Label()
	if e.Err == nil {
		return label + " failed"
	}
	return fmt.Sprintf("%s: %v", label, e.Err)
}

func (e *ProvisionError) Unwrap() error {
	return e.Err
}

func (e *ProvisionError) Is(target error) bool {
	switch e.Kind {
	case StepPreflight:
		return target == ErrToolMissing
	case StepClone:
		return target == ErrCloneFailed
	case StepEnvironment:
		return target == ErrEnvironmentFailed
	case StepBootstrap, StepInstall, StepRequirements:
		return target == ErrInstallFailed
	case StepVerifyImport, StepVerifyCommand:
		return target == ErrVerifyFailed
	}
	return false
}

type exitCoder interface {
	ExitCode() int
}

// ExitStatus extracts the exit status of an external tool from err, or -1.
func ExitStatus(err error) int {
	var coded exitCoder
	if errors.As(err, &coded) {
		return coded.ExitCode()
	}
	return -1
}

func NewProvisionError(kind StepKind, target string, err error) *ProvisionError {
	return &ProvisionError{
		Kind:     kind,
		Target:   target,
		ExitCode: ExitStatus(err),
		Err:      err,
	}
}
