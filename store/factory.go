package store

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
)

// Collection file names inside the data directory.
const (
	ProductsFile = "productos.json"
	SalesFile    = "ventas.json"
	UsersFile    = "usuarios.json"
)

// Stores bundles the three persisted collections a running system needs.
type Stores struct {
	Inventory *Inventory
	Sales     *SaleHistory
	Users     *Users
}

// NewStores constructs the collections by kind: "memory" backs them with an
// in-memory filesystem (same JSON code path, nothing touches disk), "file"
// backs them with the OS filesystem rooted at dataDir.
func NewStores(kind, dataDir string, strictNames bool) (*Stores, error) {
	var fs afero.Fs
	switch kind {
	case "memory", "mem":
		fs = afero.NewMemMapFs()
	case "file":
		if dataDir == "" {
			return nil, fmt.Errorf("data directory required for file store")
		}
		fs = afero.NewOsFs()
	default:
		return nil, fmt.Errorf("unknown store kind: %s", kind)
	}

	inv, err := NewInventory(fs, filepath.Join(dataDir, ProductsFile), strictNames)
	if err != nil {
		return nil, err
	}
	sales, err := NewSaleHistory(fs, filepath.Join(dataDir, SalesFile))
	if err != nil {
		return nil, err
	}
	users, err := NewUsers(fs, filepath.Join(dataDir, UsersFile))
	if err != nil {
		return nil, err
	}
	return &Stores{Inventory: inv, Sales: sales, Users: users}, nil
}
