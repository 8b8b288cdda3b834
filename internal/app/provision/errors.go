package provision

import "errors"

var ErrDependencyMissing = errors.New("provisioner dependency missing")
var ErrEnvironmentMissing = errors.New("environment does not exist; run up first")
