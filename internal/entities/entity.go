package entities

import (
	"github.com/KirkDiggler/rpg-toolkit/core"
)

// Compile-time check that stacks satisfy core.Entity, so they can be used
// as event sources and targets on the toolkit event bus.
var _ core.Entity = (*Stack)(nil)
