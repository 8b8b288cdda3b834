package process

import (
	"errors"
	"strings"
)

var ErrNotFound = errors.New("executable not found")

type ExecError struct {
	Command Command
	Code    int
	Err     error
	Stdout  string
	Stderr  string
}

func (e *ExecError) Error() string {
	b := new(strings.Builder)
	b.WriteString(e.Command.Name)
	b.WriteString(": ")
	b.WriteString(e.Err.Error())
	if detail := lastLine(e.Stderr); detail != "" {
		b.WriteString(": ")
		b.WriteString(detail)
	}
	return b.String()
}

func (e *ExecError) Unwrap() error {
	return e.Err
}

func (e *ExecError) ExitCode() int {
	return e.Code
}

func lastLine(value string) string {
	lines := strings.Split(strings.TrimSpace(value), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
