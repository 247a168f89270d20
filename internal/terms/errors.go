package terms

import "github.com/dusk-indust/termex/internal/parse"

// ErrInvalidInput reports a malformed parse handed to the engine.
var ErrInvalidInput = parse.ErrInvalidInput
