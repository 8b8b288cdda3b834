package envprovsdk

import "errors"

var (
	ErrManifestPathRequired = errors.New("envprov-sdk: manifest path required")
	ErrNotOpen              = errors.New("envprov-sdk: client is not open")
	ErrJournalDisabled      = errors.New("envprov-sdk: run journal is disabled")
	ErrNotFound             = errors.New("envprov-sdk: not found")
)
