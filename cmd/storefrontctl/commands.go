package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kleinod-atelier/storefront/internal/content"
	"github.com/kleinod-atelier/storefront/internal/feed"
	"github.com/kleinod-atelier/storefront/internal/filter"
	"github.com/kleinod-atelier/storefront/internal/locale"
	"github.com/kleinod-atelier/storefront/internal/repository/postgres"
	"github.com/kleinod-atelier/storefront/internal/shopify"
	"github.com/kleinod-atelier/storefront/internal/storefront"
)

var (
	localePath string
	options    []string
	category   string
	material   string
	sortBy     string
	subsLimit  int
)

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check the Storefront API credentials",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		client := shopify.NewClient(cfg.Storefront, newLogger())
		name, err := client.Ping(ctx)
		if err != nil {
			return fmt.Errorf("connection to %s failed: %w", client.Endpoint(), err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Connected to %s (%s)\n", name, client.Endpoint())
		return nil
	},
}

var localesCmd = &cobra.Command{
	Use:   "locales",
	Short: "List the configured locales and their path prefixes",
	RunE: func(cmd *cobra.Command, args []string) error {
		resolver := locale.NewResolver(content.Default().Locales)
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "LABEL\tTAG\tPREFIX\tHOME")
		for _, l := range resolver.All() {
			prefix := l.PathPrefix
			if prefix == "" {
				prefix = "(default)"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", l.Label, l.Tag(), prefix, l.Link("/"))
		}
		return w.Flush()
	},
}

var productCmd = &cobra.Command{
	Use:   "product <handle>",
	Short: "Assemble a product page and print its view model",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, l, err := newService()
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		query := url.Values{}
		for _, o := range options {
			name, value, ok := strings.Cut(o, "=")
			if !ok {
				return fmt.Errorf("option %q must be Name=Value", o)
			}
			query.Set(name, value)
		}

		page, err := svc.Product(ctx, l, args[0], query)
		if err != nil {
			return err
		}
		if page.RedirectURL != "" {
			fmt.Fprintf(cmd.ErrOrStderr(), "No variant selected; the page redirects to %s\n", page.RedirectURL)
			return nil
		}
		variants := page.Variants.Await(svc.DeferredTimeout())
		return writeJSON(cmd.OutOrStdout(), map[string]interface{}{
			"title":           page.Product.Title,
			"selectedVariant": page.SelectedVariant,
			"materials":       page.Materials,
			"recommendations": cardURLs(page.Recommendations),
			"showSizeGuide":   page.ShowSizeGuide,
			"mainImages":      len(page.MainImages),
			"showcaseImages":  len(page.ShowcaseImages),
			"options":         page.OptionGroups(variants),
		})
	},
}

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "List one page of /collections/all with filters applied",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, l, err := newService()
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		query := url.Values{}
		query.Set(filter.ParamCategory, category)
		query.Set(filter.ParamMaterial, material)
		query.Set(filter.ParamSort, sortBy)

		page, err := svc.Catalog(ctx, l, query)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintf(w, "# %s\n", page.State.URL(page.BasePath))
		for _, item := range page.Items {
			fmt.Fprintf(w, "%s\t%s\t%s\n", item.Product.Handle, item.Price, item.URL)
		}
		if page.Pagination.HasNext {
			fmt.Fprintf(w, "# next: %s\n", page.Pagination.NextURL)
		}
		return w.Flush()
	},
}

var collectionCmd = &cobra.Command{
	Use:   "collection <handle>",
	Short: "List the products of a collection",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, l, err := newService()
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		page, err := svc.Collection(ctx, l, args[0], nil)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintf(w, "# %s (%d products)\n", page.Collection.Title, len(page.Items))
		for _, item := range page.Items {
			fmt.Fprintf(w, "%s\t%s\t%d gallery images\n", item.Product.Handle, item.Price, len(item.GalleryImages))
		}
		return w.Flush()
	},
}

var feedCmd = &cobra.Command{
	Use:   "feed",
	Short: "Build the Google Shopping feed",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		logger := newLogger()
		gen := feed.NewGenerator(shopify.NewClient(cfg.Storefront, logger), cfg.BaseURL, 0, logger)
		body, err := gen.Build(ctx)
		if err != nil {
			return err
		}
		return withOutput(cmd, func(w io.Writer) error {
			_, err := w.Write(body)
			return err
		})
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		db, err := postgres.NewConnection(cfg.Database)
		if err != nil {
			return err
		}
		defer db.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()
		if err := postgres.RunMigrations(ctx, db, newLogger()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Migrations applied")
		return nil
	},
}

var subscriptionsCmd = &cobra.Command{
	Use:   "subscriptions",
	Short: "List recent newsletter signups",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		db, err := postgres.NewConnection(cfg.Database)
		if err != nil {
			return err
		}
		defer db.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()
		subs, err := postgres.NewRepositories(db, newLogger()).Subscription.ListRecent(ctx, subsLimit)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "CREATED\tEMAIL\tLOCALE\tSTATUS")
		for _, s := range subs {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", s.CreatedAt.Format("2006-01-02 15:04"), s.Email, s.Locale, s.Status)
		}
		return w.Flush()
	},
}

var eventsCmd = &cobra.Command{
	Use:   "events <name>...",
	Short: "Count recorded analytics events by name",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		db, err := postgres.NewConnection(cfg.Database)
		if err != nil {
			return err
		}
		defer db.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()
		repo := postgres.NewRepositories(db, newLogger()).Event
		for _, name := range args {
			n, err := repo.CountByName(ctx, name)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d\n", name, n)
		}
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{productCmd, catalogCmd, collectionCmd} {
		c.Flags().StringVar(&localePath, "locale", "", "Locale path prefix, e.g. /de")
	}
	productCmd.Flags().StringArrayVar(&options, "option", nil, "Selected option as Name=Value (repeatable)")
	catalogCmd.Flags().StringVar(&category, "category", filter.All, "Category id")
	catalogCmd.Flags().StringVar(&material, "material", filter.All, "Material id")
	catalogCmd.Flags().StringVar(&sortBy, "sort", filter.DefaultSort, "Sort option")
	subscriptionsCmd.Flags().IntVar(&subsLimit, "limit", 20, "Number of signups to show")
}

func newService() (*storefront.Service, locale.Locale, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, locale.Locale{}, err
	}
	logger := newLogger()
	catalog := content.Default()
	svc := storefront.NewService(shopify.NewClient(cfg.Storefront, logger), catalog, storefront.Options{
		StoreDomain:     cfg.Storefront.StoreDomain,
		DeferredTimeout: cfg.DeferredTimeout,
	}, logger)
	l := locale.NewResolver(catalog.Locales).Resolve(localePath)
	return svc, l, nil
}

func cardURLs(cards []storefront.ProductCard) []string {
	out := make([]string, 0, len(cards))
	for _, c := range cards {
		out = append(out, c.URL)
	}
	return out
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// withOutput writes to --output when set, otherwise to stdout
func withOutput(cmd *cobra.Command, write func(io.Writer) error) error {
	if output == "" {
		return write(cmd.OutOrStdout())
	}
	f, err := os.Create(output)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := write(f); err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s\n", output)
	return nil
}
