// Package cli provides the Cobra-based CLI for the supermarket system.
package cli

import (
	"bufio"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"supermercado/domain"
	"supermercado/sales"
	"supermercado/store"
	"supermercado/util"
)

var (
	rootCmd = &cobra.Command{
		Use:          "supermercado",
		Short:        "A single-store point-of-sale and inventory manager",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// IMPORTANT: allow tests to inject stores
			if engine != nil {
				return nil
			}

			if cfg := viper.GetString("config"); cfg != "" {
				viper.SetConfigFile(cfg)
				if err := viper.ReadInConfig(); err != nil {
					return err
				}
			}

			lvlStr := strings.ToLower(viper.GetString("log-level"))
			lvl := slog.LevelInfo
			switch lvlStr {
			case "debug":
				lvl = slog.LevelDebug
			case "warn", "warning":
				lvl = slog.LevelWarn
			case "error":
				lvl = slog.LevelError
			}
			slog.SetDefault(slog.New(
				slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}),
			))

			stores, err := store.NewStores(
				viper.GetString("store"),
				viper.GetString("data-dir"),
				viper.GetBool("strict-names"),
			)
			if err != nil {
				return err
			}
			stores.Inventory.OnLowStock(func(p domain.Product) {
				fmt.Printf("ALERT: %s is low on stock (%s, minimum %s)\n",
					p.Name, util.Quantity(p.Stock, p.Unit), p.StockMinimum)
			})
			inventory = stores.Inventory
			saleLog = stores.Sales
			users = stores.Users
			engine = sales.NewEngine(inventory, saleLog)
			return nil
		},
	}

	inventory domain.Inventory
	saleLog   domain.SaleLog
	users     domain.Users
	engine    *sales.Engine
)

func parseDecimal(value, flag string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid --%s value %q", flag, value)
	}
	return d, nil
}

func printProduct(p domain.Product) {
	b, _ := json.MarshalIndent(p, "", "  ")
	fmt.Println(string(b))
}

func productLine(p domain.Product) string {
	marker := ""
	if p.LowStock() {
		marker = " [LOW STOCK]"
	}
	return fmt.Sprintf("%s | %s | %s | %s | %s%s",
		p.Code, p.Name, util.Money(p.Price), util.Quantity(p.Stock, p.Unit), p.Category.Name, marker)
}

func init() {
	// shell
	shellCmd := &cobra.Command{
		Use:   "shell",
		Short: "Interactive shell mode",
		RunE: func(cmd *cobra.Command, args []string) error {
			r := bufio.NewReader(os.Stdin)
			for {
				fmt.Print("supermercado> ")
				line, err := r.ReadString('\n')
				if err != nil {
					return nil
				}
				line = strings.TrimSpace(line)
				if line == "" {
					continue
				}
				if line == "exit" || line == "quit" {
					return nil
				}
				rootCmd.SetArgs(strings.Fields(line))
				if err := rootCmd.Execute(); err != nil {
					fmt.Fprintln(os.Stderr, err)
				}
				rootCmd.SetArgs(nil)
			}
		},
	}
	rootCmd.AddCommand(shellCmd)

	rootCmd.PersistentFlags().String("store", "file", "store backend: file|memory")
	rootCmd.PersistentFlags().String("data-dir", "data", "directory holding the JSON collections")
	rootCmd.PersistentFlags().String("config", "", "config file")
	rootCmd.PersistentFlags().String("log-level", "info", "log level")
	rootCmd.PersistentFlags().Bool("strict-names", true, "reject products whose name collides case-insensitively")

	viper.BindPFlag("store", rootCmd.PersistentFlags().Lookup("store"))
	viper.BindPFlag("data-dir", rootCmd.PersistentFlags().Lookup("data-dir"))
	viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("strict-names", rootCmd.PersistentFlags().Lookup("strict-names"))
	viper.SetEnvPrefix("SUPERMERCADO")
	viper.AutomaticEnv()

	// add
	var code, name, category, categoryDesc, unit, unitAbbr, image string
	var priceStr, stockStr, minStr string
	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Register a product",
		RunE: func(cmd *cobra.Command, args []string) error {
			// Flag values survive across Execute calls (shell mode re-runs the
			// same command tree), so consume every flag and restore its
			// registration default up front.
			productCode, productName := code, name
			productCategory := domain.Category{Name: category, Description: categoryDesc}
			productUnit := domain.Unit{Name: unit, Abbreviation: unitAbbr}
			imagePath := image
			priceValue, stockValue, minValue := priceStr, stockStr, minStr
			code, name, category, categoryDesc, unitAbbr, image = "", "", "", "", "", ""
			unit, priceStr, stockStr, minStr = "unidades", "0", "0", "5"

			if productName == "" {
				return errors.New("--name required")
			}
			price, err := parseDecimal(priceValue, "price")
			if err != nil {
				return err
			}
			stock, err := parseDecimal(stockValue, "stock")
			if err != nil {
				return err
			}
			min, err := parseDecimal(minValue, "min-stock")
			if err != nil {
				return err
			}
			ctx := context.Background()
			if productCode == "" {
				if productCode, err = inventory.NextCode(ctx); err != nil {
					return err
				}
			}
			p := domain.Product{
				Code:         productCode,
				Name:         productName,
				Price:        price,
				Stock:        stock,
				Category:     productCategory,
				Unit:         productUnit,
				StockMinimum: min,
				ImagePath:    imagePath,
			}
			if p.Unit.Continuous() {
				p.Stock = p.Stock.Round(1)
				p.StockMinimum = p.StockMinimum.Round(1)
			}
			if err := inventory.Add(ctx, p); err != nil {
				slog.Error("add failed", "codigo", productCode, "error", err)
				return err
			}
			slog.Info("product registered", "codigo", productCode, "nombre", productName)
			printProduct(p)
			return nil
		},
	}
	addCmd.Flags().StringVar(&code, "code", "", "product code (generated when empty)")
	addCmd.Flags().StringVar(&name, "name", "", "name")
	addCmd.Flags().StringVar(&priceStr, "price", "0", "unit price")
	addCmd.Flags().StringVar(&stockStr, "stock", "0", "initial stock")
	addCmd.Flags().StringVar(&category, "category", "", "category name")
	addCmd.Flags().StringVar(&categoryDesc, "category-desc", "", "category description")
	addCmd.Flags().StringVar(&unit, "unit", "unidades", "unit of measure")
	addCmd.Flags().StringVar(&unitAbbr, "unit-abbr", "", "unit abbreviation")
	addCmd.Flags().StringVar(&minStr, "min-stock", "5", "minimum stock threshold")
	addCmd.Flags().StringVar(&image, "image", "", "image path")
	rootCmd.AddCommand(addCmd)

	// get
	getCmd := &cobra.Command{
		Use:   "get <code>",
		Short: "Get product by code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := inventory.Get(context.Background(), args[0])
			if err != nil {
				if domain.IsProductNotFoundError(err) {
					fmt.Fprintln(os.Stderr, err)
					return nil
				}
				return err
			}
			printProduct(p)
			return nil
		},
	}
	rootCmd.AddCommand(getCmd)

	// list
	var lAvailable, lLow bool
	var lOutput string
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List products",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			var out []domain.Product
			var err error
			switch {
			case lAvailable:
				out, err = inventory.Available(ctx)
			case lLow:
				out, err = inventory.LowStock(ctx)
			default:
				out, err = inventory.List(ctx)
			}
			if err != nil {
				return err
			}
			if lOutput == "json" {
				b, _ := json.MarshalIndent(out, "", "  ")
				fmt.Println(string(b))
				return nil
			}
			for _, p := range out {
				fmt.Println(productLine(p))
			}
			return nil
		},
	}
	listCmd.Flags().BoolVar(&lAvailable, "available", false, "only products with stock > 0")
	listCmd.Flags().BoolVar(&lLow, "low", false, "only products at or below their minimum")
	listCmd.Flags().StringVar(&lOutput, "output", "", "output format")
	rootCmd.AddCommand(listCmd)

	// search
	searchCmd := &cobra.Command{
		Use:   "search <term>",
		Short: "Search products by code, name or category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := inventory.Find(context.Background(), args[0])
			if err != nil {
				return err
			}
			for _, p := range out {
				fmt.Println(productLine(p))
			}
			return nil
		},
	}
	rootCmd.AddCommand(searchCmd)

	// stock
	var stockAdd, stockRemove string
	stockCmd := &cobra.Command{
		Use:   "stock <code>",
		Short: "Adjust a product's stock",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			add, remove := stockAdd, stockRemove
			stockAdd, stockRemove = "", ""
			if (add == "") == (remove == "") {
				return errors.New("exactly one of --add or --remove required")
			}
			dir := domain.Increase
			value := add
			flag := "add"
			if remove != "" {
				dir = domain.Decrease
				value = remove
				flag = "remove"
			}
			amount, err := parseDecimal(value, flag)
			if err != nil {
				return err
			}
			p, err := inventory.AdjustStock(context.Background(), args[0], amount, dir)
			if err != nil {
				slog.Error("stock adjustment failed", "codigo", args[0], "error", err)
				return err
			}
			fmt.Printf("%s now has %s\n", p.Name, util.Quantity(p.Stock, p.Unit))
			return nil
		},
	}
	stockCmd.Flags().StringVar(&stockAdd, "add", "", "amount to add")
	stockCmd.Flags().StringVar(&stockRemove, "remove", "", "amount to remove")
	rootCmd.AddCommand(stockCmd)

	// delete
	var force bool
	deleteCmd := &cobra.Command{
		Use:   "delete <code>",
		Short: "Delete a product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			confirmed := force
			force = false
			if !confirmed {
				fmt.Printf("Delete %s? (y/N): ", args[0])
				var resp string
				if _, err := fmt.Scanln(&resp); err != nil || (resp != "y" && resp != "Y") {
					fmt.Println("aborted")
					return nil
				}
			}
			if err := inventory.Remove(context.Background(), args[0]); err != nil {
				return err
			}
			fmt.Println("deleted")
			return nil
		},
	}
	deleteCmd.Flags().BoolVar(&force, "force", false, "skip confirmation")
	rootCmd.AddCommand(deleteCmd)

	// next-code
	nextCodeCmd := &cobra.Command{
		Use:   "next-code",
		Short: "Show the next free product code",
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := inventory.NextCode(context.Background())
			if err != nil {
				return err
			}
			fmt.Println(code)
			return nil
		},
	}
	rootCmd.AddCommand(nextCodeCmd)

	// sell
	var items []string
	var discountStr, payMethod, payDetail string
	sellCmd := &cobra.Command{
		Use:   "sell --item <code:qty> [--item <code:qty> ...]",
		Short: "Commit a sale (all-or-nothing across its lines)",
		RunE: func(cmd *cobra.Command, args []string) error {
			specs := items
			items = nil
			if len(specs) == 0 {
				return errors.New("at least one --item required")
			}
			lines := make([]sales.Line, 0, len(specs))
			for _, item := range specs {
				code, qtyStr, ok := strings.Cut(item, ":")
				if !ok || code == "" {
					return fmt.Errorf("invalid --item %q, expected code:qty", item)
				}
				qty, err := decimal.NewFromString(qtyStr)
				if err != nil {
					return fmt.Errorf("invalid quantity in --item %q", item)
				}
				lines = append(lines, sales.Line{Code: code, Quantity: qty})
			}
			discount, err := parseDecimal(discountStr, "discount")
			if err != nil {
				return err
			}
			method, detail := payMethod, payDetail
			discountStr, payMethod, payDetail = "0", "", ""

			start := time.Now()
			sale, err := engine.Commit(context.Background(), lines, sales.Options{
				Discount:      discount,
				PaymentMethod: method,
				PaymentDetail: detail,
			})
			if err != nil {
				slog.Error("sale rejected", "error", err)
				return err
			}
			slog.Info("sale committed",
				"id", sale.ID, "duration_ms", time.Since(start).Milliseconds())

			fmt.Printf("Sale #%d — %s\n", sale.ID, sale.Date.Format(domain.SaleTimeLayout))
			for _, it := range sale.Items {
				fmt.Printf("  %s x%s @ %s = %s\n",
					it.Name, it.Quantity, util.Money(it.UnitPrice), util.Money(it.Subtotal))
			}
			if sale.Discount.IsPositive() {
				fmt.Printf("  discount: %s%%\n", sale.Discount)
			}
			fmt.Printf("  total: %s\n", util.Money(sale.Total))
			return nil
		},
	}
	sellCmd.Flags().StringArrayVar(&items, "item", nil, "sale line as code:qty (repeatable)")
	sellCmd.Flags().StringVar(&discountStr, "discount", "0", "discount percentage 0-100")
	sellCmd.Flags().StringVar(&payMethod, "payment-method", "", "payment method label")
	sellCmd.Flags().StringVar(&payDetail, "payment-detail", "", "payment detail label")
	rootCmd.AddCommand(sellCmd)

	// sales history
	var salesOutput string
	salesCmd := &cobra.Command{
		Use:   "sales",
		Short: "Show the sale history",
		RunE: func(cmd *cobra.Command, args []string) error {
			all, err := saleLog.All(context.Background())
			if err != nil {
				return err
			}
			if salesOutput == "json" {
				b, _ := json.MarshalIndent(all, "", "  ")
				fmt.Println(string(b))
				return nil
			}
			for _, s := range all {
				fmt.Printf("#%d | %s | %d items | %s\n",
					s.ID, s.Date.Format(domain.SaleTimeLayout), len(s.Items), util.Money(s.Total))
			}
			return nil
		},
	}
	salesCmd.Flags().StringVar(&salesOutput, "output", "", "output format")
	rootCmd.AddCommand(salesCmd)

	// stats
	var statsOutput string
	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Show business statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := engine.Statistics(context.Background())
			if err != nil {
				return err
			}
			if statsOutput == "json" {
				b, _ := json.MarshalIndent(st, "", "  ")
				fmt.Println(string(b))
				return nil
			}
			fmt.Printf("products:        %d\n", st.ProductCount)
			fmt.Printf("sales:           %d\n", st.SaleCount)
			fmt.Printf("total revenue:   %s\n", util.Money(st.TotalRevenue))
			fmt.Printf("inventory value: %s\n", util.Money(st.InventoryValue))
			return nil
		},
	}
	statsCmd.Flags().StringVar(&statsOutput, "output", "", "output format")
	rootCmd.AddCommand(statsCmd)

	// export
	var exportFile string
	exportCmd := &cobra.Command{
		Use:   "export --file <file>",
		Short: "Export the inventory to CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			if exportFile == "" {
				return errors.New("--file required")
			}
			out, err := inventory.List(context.Background())
			if err != nil {
				return err
			}
			f, err := os.Create(exportFile)
			if err != nil {
				return err
			}
			defer f.Close()
			w := csv.NewWriter(f)
			if err := w.Write([]string{"codigo", "nombre", "precio", "stock", "categoria", "unidad", "stock_minimo"}); err != nil {
				return err
			}
			for _, p := range out {
				record := []string{
					p.Code, p.Name, p.Price.String(), p.Stock.String(),
					p.Category.Name, p.Unit.Name, p.StockMinimum.String(),
				}
				if err := w.Write(record); err != nil {
					return err
				}
			}
			w.Flush()
			return w.Error()
		},
	}
	exportCmd.Flags().StringVar(&exportFile, "file", "", "output file")
	rootCmd.AddCommand(exportCmd)

	// user
	userCmd := &cobra.Command{
		Use:   "user",
		Short: "Manage user accounts",
	}

	var regUser, regPass, regRole string
	registerCmd := &cobra.Command{
		Use:   "register",
		Short: "Register a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			if regUser == "" || regPass == "" {
				return errors.New("--username and --password required")
			}
			if regRole != domain.RoleAdmin && regRole != domain.RoleBuyer {
				return fmt.Errorf("invalid role %q: must be %s or %s", regRole, domain.RoleAdmin, domain.RoleBuyer)
			}
			if err := users.Register(context.Background(), regUser, regPass, regRole); err != nil {
				return err
			}
			fmt.Printf("user %s registered (%s)\n", regUser, regRole)
			return nil
		},
	}
	registerCmd.Flags().StringVar(&regUser, "username", "", "username")
	registerCmd.Flags().StringVar(&regPass, "password", "", "password")
	registerCmd.Flags().StringVar(&regRole, "role", domain.RoleBuyer, "role: admin|comprador")
	userCmd.AddCommand(registerCmd)

	var loginUser, loginPass string
	loginCmd := &cobra.Command{
		Use:   "login",
		Short: "Check credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := users.Authenticate(context.Background(), loginUser, loginPass)
			if err != nil {
				if domain.IsInvalidCredentialsError(err) {
					fmt.Fprintln(os.Stderr, err)
					return nil
				}
				return err
			}
			fmt.Printf("welcome %s (%s)\n", u.Username, u.Role)
			return nil
		},
	}
	loginCmd.Flags().StringVar(&loginUser, "username", "", "username")
	loginCmd.Flags().StringVar(&loginPass, "password", "", "password")
	userCmd.AddCommand(loginCmd)

	var pwUser, pwOld, pwNew string
	passwdCmd := &cobra.Command{
		Use:   "passwd",
		Short: "Change a user's password",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := users.ChangePassword(context.Background(), pwUser, pwOld, pwNew); err != nil {
				return err
			}
			fmt.Println("password changed")
			return nil
		},
	}
	passwdCmd.Flags().StringVar(&pwUser, "username", "", "username")
	passwdCmd.Flags().StringVar(&pwOld, "old", "", "current password")
	passwdCmd.Flags().StringVar(&pwNew, "new", "", "new password")
	userCmd.AddCommand(passwdCmd)

	rootCmd.AddCommand(userCmd)
}

func Execute() error {
	return rootCmd.Execute()
}
