package main

// Module registrations: each blank import runs the package's init(),
// adding it to the core registry.
import (
	_ "github.com/flemzord/recall/internal/gateway"
	_ "github.com/flemzord/recall/internal/memory"
	_ "github.com/flemzord/recall/internal/sweep"
	_ "github.com/flemzord/recall/modules/compactor/anthropic"
	_ "github.com/flemzord/recall/modules/mcp"
	_ "github.com/flemzord/recall/modules/store/sqlite"
)
