package strategy

import "errors"

// ErrNoAgents indicates that the eligible set passed to a strategy was empty.
var ErrNoAgents = errors.New("no agents available for selection")
