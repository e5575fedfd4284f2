package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/urfave/cli/v2"

	"cedra_shipping/internal/bootstrap"
	"cedra_shipping/internal/config"
	"cedra_shipping/internal/database"
	"cedra_shipping/internal/logger"
	"cedra_shipping/internal/models"
	"cedra_shipping/internal/service"
	"cedra_shipping/internal/shipping"
)

const envKey = "env"

// env est construit une fois dans Before et partagé par les commandes
type env struct {
	cfg     *config.Config
	log     *logger.Logger
	svc     *bootstrap.Shipping
	closers []func()
}

func newApp(out io.Writer) *cli.App {
	return &cli.App{
		Name:      "shippingctl",
		Usage:     "Réglages et devis de livraison par produit",
		Version:   version,
		Writer:    out,
		ErrWriter: out,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Logs de debug sur stderr",
				EnvVars: []string{"SHIPPINGCTL_VERBOSE"},
			},
		},
		Before: setup,
		After:  teardown,
		Commands: []*cli.Command{
			quoteCommand(),
			getCommand(),
			setCommand(),
			listCommand(),
			reindexCommand(),
		},
	}
}

func setup(c *cli.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.Nop()
	if c.Bool("verbose") {
		if log, err = logger.New("dev"); err != nil {
			return err
		}
	}
	e := &env{cfg: cfg, log: log}

	rdb, err := database.ConnectRedis(c.Context, cfg, log)
	if err != nil {
		return err
	}
	if rdb != nil {
		e.closers = append(e.closers, func() { _ = rdb.Close() })
	}
	cat, closeCatalog, err := bootstrap.Catalog(c.Context, cfg, rdb, log)
	if err != nil {
		return err
	}
	e.closers = append(e.closers, closeCatalog)
	if e.svc, err = bootstrap.NewShipping(cat, cfg); err != nil {
		return err
	}
	c.App.Metadata = map[string]interface{}{envKey: e}
	return nil
}

func teardown(c *cli.Context) error {
	if e := getEnv(c); e != nil {
		for _, fn := range e.closers {
			fn()
		}
		e.log.Sync()
	}
	return nil
}

func getEnv(c *cli.Context) *env {
	if c.App.Metadata == nil {
		return nil
	}
	e, _ := c.App.Metadata[envKey].(*env)
	return e
}

// =============================================================================
// QUOTE
// =============================================================================

func quoteCommand() *cli.Command {
	return &cli.Command{
		Name:  "quote",
		Usage: "Calcule le tarif d'un panier",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:     "item",
				Aliases:  []string{"i"},
				Usage:    "Ligne du panier, produit[:quantité] (répétable)",
				Required: true,
			},
		},
		Action: func(c *cli.Context) error {
			items, err := parseItems(c.StringSlice("item"))
			if err != nil {
				return err
			}
			quote, err := getEnv(c).svc.Quotes.Quote(c.Context, items)
			if err != nil {
				return err
			}
			return printJSON(c.App.Writer, quote)
		},
	}
}

func parseItems(raw []string) ([]models.CartItem, error) {
	items := make([]models.CartItem, 0, len(raw))
	for _, r := range raw {
		id, qty := r, 1
		if i := strings.LastIndex(r, ":"); i > 0 && !strings.HasPrefix(r, "gid://") {
			n, err := strconv.Atoi(r[i+1:])
			if err != nil || n <= 0 {
				return nil, errors.Errorf("quantité invalide dans %q", r)
			}
			id, qty = r[:i], n
		}
		items = append(items, models.CartItem{ProductID: models.ProductID(id), Quantity: qty})
	}
	return items, nil
}

// =============================================================================
// GET / SET
// =============================================================================

func getCommand() *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "Affiche les réglages de livraison d'un produit",
		ArgsUsage: "<product-id>",
		Action: func(c *cli.Context) error {
			id := c.Args().First()
			if id == "" {
				return errors.New("identifiant produit requis")
			}
			attrs, err := getEnv(c).svc.Resolver.Resolve(c.Context, id)
			if err != nil {
				return err
			}
			return printJSON(c.App.Writer, settingsView(id, "", attrs.RequiresPaidShipping, attrs.ShippingFee))
		},
	}
}

func setCommand() *cli.Command {
	return &cli.Command{
		Name:      "set",
		Usage:     "Modifie le drapeau et les frais de livraison d'un produit",
		ArgsUsage: "<product-id>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "charge", Usage: "Le produit exige une livraison payante"},
			&cli.StringFlag{Name: "fee", Value: "0", Usage: "Frais de livraison (unités majeures)"},
		},
		Action: func(c *cli.Context) error {
			id := c.Args().First()
			if id == "" {
				return errors.New("identifiant produit requis")
			}
			fee, err := decimal.NewFromString(c.String("fee"))
			if err != nil {
				return errors.Wrap(err, "frais invalides")
			}
			attrs := models.ShippingAttributes{RequiresPaidShipping: c.Bool("charge"), ShippingFee: fee}
			err = getEnv(c).svc.Editor.Write(c.Context, id, attrs)
			var writeErr *shipping.CatalogWriteError
			if errors.As(err, &writeErr) && len(writeErr.FieldErrors) > 0 {
				for _, fe := range writeErr.FieldErrors {
					fmt.Fprintln(c.App.Writer, fe.String())
				}
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "✅ %s mis à jour\n", id)
			return nil
		},
	}
}

// =============================================================================
// LIST / REINDEX
// =============================================================================

func listCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "Liste les produits et leurs réglages",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "first", Value: shipping.DefaultPageSize, Usage: "Taille de page (max 250)"},
			&cli.StringFlag{Name: "after", Usage: "Curseur de la page précédente"},
			&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Value: "table", Usage: "table ou json"},
		},
		Action: func(c *cli.Context) error {
			page, err := getEnv(c).svc.Resolver.ListSettings(c.Context, c.Int("first"), c.String("after"))
			if err != nil {
				return err
			}
			if c.String("format") == "json" {
				return printJSON(c.App.Writer, pageView(page))
			}
			tw := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tTITLE\tCHARGE\tFEE")
			for _, p := range page.Products {
				fmt.Fprintf(tw, "%s\t%s\t%t\t%s\n", p.ID, p.Title, p.HasShippingCharge, p.ShippingFee.StringFixed(2))
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			if page.PageInfo.HasNextPage {
				fmt.Fprintf(c.App.Writer, "\nPage suivante: --after %s\n", page.PageInfo.EndCursor)
			}
			return nil
		},
	}
}

func reindexCommand() *cli.Command {
	return &cli.Command{
		Name:  "reindex",
		Usage: "Recharge l'index Elasticsearch à partir du catalogue",
		Action: func(c *cli.Context) error {
			e := getEnv(c)
			es, err := database.ConnectElastic(e.cfg, e.log)
			if err != nil {
				return err
			}
			if es == nil {
				return errors.New("ELASTIC_URL non configuré")
			}
			search := service.NewProductSearch(es, e.cfg.ElasticIndex, e.log)

			total, after := 0, ""
			for {
				page, err := e.svc.Resolver.ListSettings(c.Context, shipping.MaxPageSize, after)
				if err != nil {
					return err
				}
				for _, p := range page.Products {
					if err := search.Index(c.Context, models.ProductSummary{ID: p.ID, Title: p.Title}); err != nil {
						return err
					}
					total++
				}
				if !page.PageInfo.HasNextPage {
					break
				}
				after = page.PageInfo.EndCursor
			}
			fmt.Fprintf(c.App.Writer, "✅ %d produits indexés\n", total)
			return nil
		},
	}
}

// même forme que la lecture HTTP : shippingFee est un nombre JSON
type settingsOut struct {
	ID                string      `json:"id"`
	Title             string      `json:"title,omitempty"`
	HasShippingCharge bool        `json:"hasShippingCharge"`
	ShippingFee       json.Number `json:"shippingFee"`
}

type pageOut struct {
	Products []settingsOut   `json:"products"`
	PageInfo models.PageInfo `json:"pageInfo"`
}

func settingsView(id, title string, charge bool, fee decimal.Decimal) settingsOut {
	return settingsOut{ID: id, Title: title, HasShippingCharge: charge, ShippingFee: json.Number(fee.String())}
}

func pageView(page *models.ProductShippingPage) pageOut {
	out := pageOut{Products: make([]settingsOut, 0, len(page.Products)), PageInfo: page.PageInfo}
	for _, p := range page.Products {
		out.Products = append(out.Products, settingsView(p.ID, p.Title, p.HasShippingCharge, p.ShippingFee))
	}
	return out
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
