package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores return these (optionally
// wrapped) so services can translate them into domain errors at the
// boundary. ErrNotFound states that a record does not exist; it is not a
// validation failure. For input validation use pkg/domain-errors directly.
var ErrNotFound = errors.New("not found")
