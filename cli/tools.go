package cli

import (
	"fmt"

	"maia/storage"
	"maia/tools"
)

// ListTools prints every built-in capability with its argument schema.
func ListTools() error {
	store := storage.NewInMemoryStore()
	defer store.Close()

	registry := tools.NewRegistry()
	if err := tools.RegisterDefaults(registry, store); err != nil {
		return err
	}

	fmt.Println("Available capabilities:")
	fmt.Println(registry.Description())
	return nil
}
