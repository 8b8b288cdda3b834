package manifest

import "errors"

var ErrManifestNotFound = errors.New("manifest not found")
var ErrInvalidManifest = errors.New("invalid manifest")
var ErrInvalidOverlay = errors.New("invalid manifest overlay")
