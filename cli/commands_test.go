package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"testing"

	"supermercado/domain"
	"supermercado/sales"
	"supermercado/store"
)

// capture stdout during cobra execution
func captureOutput(f func() error) (string, error) {
	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	err := f()

	w.Close()
	os.Stdout = old

	var buf bytes.Buffer
	_, _ = buf.ReadFrom(r)
	return buf.String(), err
}

// reset cobra + global state between tests
func resetCLI() {
	rootCmd.SetArgs(nil)
	inventory = nil
	saleLog = nil
	users = nil
	engine = nil
}

// injectMemoryStores wires the CLI to seeded in-memory collections.
func injectMemoryStores(t *testing.T) {
	t.Helper()
	stores, err := store.NewStores("memory", "data", true)
	if err != nil {
		t.Fatalf("NewStores failed: %v", err)
	}
	inventory = stores.Inventory
	saleLog = stores.Sales
	users = stores.Users
	engine = sales.NewEngine(inventory, saleLog)
}

func run(args ...string) (string, error) {
	return captureOutput(func() error {
		rootCmd.SetArgs(args)
		return rootCmd.Execute()
	})
}

func TestAddGetDelete(t *testing.T) {
	defer resetCLI()
	injectMemoryStores(t)

	out, err := run("add",
		"--code", "100",
		"--name", "Azúcar",
		"--price", "900",
		"--stock", "12",
		"--category", "Abarrotes",
		"--unit", "unidades",
		"--min-stock", "3",
	)
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}
	var created domain.Product
	if err := json.Unmarshal([]byte(out), &created); err != nil {
		t.Fatalf("invalid add output: %v", err)
	}
	if created.Code != "100" || created.Name != "Azúcar" {
		t.Fatalf("unexpected product: %+v", created)
	}

	out, err = run("get", "100")
	if err != nil || !strings.Contains(out, "Azúcar") {
		t.Fatalf("get failed: %v\n%s", err, out)
	}

	_, err = run("delete", "--force", "100")
	if err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	out, _ = run("get", "100")
	if strings.Contains(out, "Azúcar") {
		t.Fatalf("product not deleted")
	}
}

func TestAddDoesNotInheritPreviousFlags(t *testing.T) {
	defer resetCLI()
	injectMemoryStores(t)

	_, err := run("add",
		"--code", "100",
		"--name", "Azúcar",
		"--price", "900",
		"--stock", "12",
		"--category", "Abarrotes",
		"--unit", "kg",
		"--unit-abbr", "kg",
		"--min-stock", "3",
	)
	if err != nil {
		t.Fatalf("first add failed: %v", err)
	}

	// a second add giving only code and name must fall back to the flag
	// defaults, not the previous invocation's values
	out, err := run("add", "--code", "101", "--name", "Sal")
	if err != nil {
		t.Fatalf("second add failed: %v", err)
	}
	var created domain.Product
	if err := json.Unmarshal([]byte(out), &created); err != nil {
		t.Fatalf("invalid add output: %v", err)
	}
	if created.Category.Name != "" {
		t.Fatalf("category leaked from previous add: %q", created.Category.Name)
	}
	if created.Unit.Name != "unidades" || created.Unit.Abbreviation != "" {
		t.Fatalf("unit leaked from previous add: %+v", created.Unit)
	}
	if !created.Price.IsZero() || !created.Stock.IsZero() {
		t.Fatalf("price/stock leaked from previous add: %s / %s", created.Price, created.Stock)
	}
}

func TestListAndSearch(t *testing.T) {
	defer resetCLI()
	injectMemoryStores(t)

	out, err := run("list", "--output", "json")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	var listed []domain.Product
	if err := json.Unmarshal([]byte(out), &listed); err != nil {
		t.Fatalf("invalid list output: %v", err)
	}
	if len(listed) != len(store.SeedProducts()) {
		t.Fatalf("expected seed catalog, got %d products", len(listed))
	}

	out, err = run("search", "lácteos")
	if err != nil || !strings.Contains(out, "Leche") {
		t.Fatalf("search failed: %v\n%s", err, out)
	}
}

func TestStockAdjustment(t *testing.T) {
	defer resetCLI()
	injectMemoryStores(t)

	// seed product 2 (Leche) holds 30 unidades
	out, err := run("stock", "2", "--add", "5")
	if err != nil || !strings.Contains(out, "35") {
		t.Fatalf("stock add failed: %v\n%s", err, out)
	}

	_, err = run("stock", "2", "--remove", "1000")
	if err == nil {
		t.Fatalf("expected insufficient stock error")
	}
	if !domain.IsInsufficientStockError(err) {
		t.Fatalf("expected InsufficientStockError, got %v", err)
	}
}

func TestSellCommand(t *testing.T) {
	defer resetCLI()
	injectMemoryStores(t)

	// seed product 2 (Leche, discrete) at 1200 each
	out, err := run("sell", "--item", "2:10", "--discount", "10")
	if err != nil {
		t.Fatalf("sell failed: %v", err)
	}
	if !strings.Contains(out, "Sale #1") {
		t.Fatalf("missing sale id in output:\n%s", out)
	}
	// 10 * 1200 = 12000, minus 10% = 10800
	if !strings.Contains(out, "10.800") {
		t.Fatalf("missing discounted total in output:\n%s", out)
	}

	out, err = run("sales")
	if err != nil || !strings.Contains(out, "#1") {
		t.Fatalf("sales listing failed: %v\n%s", err, out)
	}

	out, err = run("stats", "--output", "json")
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	var st sales.Stats
	if err := json.Unmarshal([]byte(out), &st); err != nil {
		t.Fatalf("invalid stats output: %v", err)
	}
	if st.SaleCount != 1 {
		t.Fatalf("expected 1 sale, got %d", st.SaleCount)
	}
}

func TestSellRejectsUnknownProduct(t *testing.T) {
	defer resetCLI()
	injectMemoryStores(t)

	_, err := run("sell", "--item", "999:1")
	if !domain.IsProductNotFoundError(err) {
		t.Fatalf("expected ProductNotFoundError, got %v", err)
	}

	// nothing recorded
	out, err := run("sales")
	if err != nil {
		t.Fatalf("sales failed: %v", err)
	}
	if strings.Contains(out, "#") {
		t.Fatalf("history should be empty:\n%s", out)
	}
}

func TestNextCodeCommand(t *testing.T) {
	defer resetCLI()
	injectMemoryStores(t)

	out, err := run("next-code")
	if err != nil {
		t.Fatalf("next-code failed: %v", err)
	}
	// seed catalog uses codes 1..5
	if strings.TrimSpace(out) != "6" {
		t.Fatalf("expected 6, got %q", out)
	}
}

func TestUserCommands(t *testing.T) {
	defer resetCLI()
	injectMemoryStores(t)

	out, err := run("user", "login", "--username", "admin", "--password", "admin123")
	if err != nil || !strings.Contains(out, "welcome admin (admin)") {
		t.Fatalf("login failed: %v\n%s", err, out)
	}

	_, err = run("user", "register", "--username", "cajero1", "--password", "clave", "--role", "comprador")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	_, err = run("user", "passwd", "--username", "cajero1", "--old", "clave", "--new", "nueva")
	if err != nil {
		t.Fatalf("passwd failed: %v", err)
	}
	out, err = run("user", "login", "--username", "cajero1", "--password", "nueva")
	if err != nil || !strings.Contains(out, "welcome cajero1 (comprador)") {
		t.Fatalf("login after passwd failed: %v\n%s", err, out)
	}
}

func TestExportCSV(t *testing.T) {
	defer resetCLI()
	injectMemoryStores(t)

	path := t.TempDir() + "/inventario.csv"
	_, err := run("export", "--file", path)
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading export: %v", err)
	}
	content := string(b)
	if !strings.HasPrefix(content, "codigo,nombre,precio,stock,categoria,unidad,stock_minimo") {
		t.Fatalf("missing header:\n%s", content)
	}
	if !strings.Contains(content, "Arroz") {
		t.Fatalf("missing seed product:\n%s", content)
	}
}
