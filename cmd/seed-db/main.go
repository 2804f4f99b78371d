// Command seed-db loads the product catalog and an admin account into the
// database. It is idempotent and safe to re-run.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github.com/tehorna/checkout-api/internal/domain/auth"
	"github.com/tehorna/checkout-api/internal/repository"
)

type productJSON struct {
	ID         string `json:"id"`
	Slug       string `json:"slug"`
	Title      string `json:"title"`
	Category   string `json:"category"`
	PriceCents int64  `json:"price_cents"`
	Currency   string `json:"currency"`
	Active     bool   `json:"active"`
}

func main() {
	var (
		databaseURL  string
		productsFile string
		adminEmail   string
		adminToken   string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&productsFile, "products-file", "db/seed/products.json", "path to products JSON file")
	flag.StringVar(&adminEmail, "admin-email", "admin@tehorna.se", "admin account email")
	flag.StringVar(&adminToken, "admin-token", "", "session token to seed for the admin (or SHOP_SEED_ADMIN_TOKEN env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if adminToken == "" {
		adminToken = os.Getenv("SHOP_SEED_ADMIN_TOKEN")
	}
	if adminToken == "" {
		slog.Error("admin token is required: set --admin-token or SHOP_SEED_ADMIN_TOKEN")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, productsFile, adminEmail, adminToken); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, productsFile, adminEmail, adminToken string) error {
	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return errors.Wrap(seedProducts(gctx, pool, productsFile), "seed products")
	})
	g.Go(func() error {
		return errors.Wrap(seedAdmin(gctx, pool, adminEmail, adminToken), "seed admin")
	})
	return g.Wait()
}

func seedProducts(ctx context.Context, pool *pgxpool.Pool, productsFile string) error {
	slog.Info("reading products file", slog.String("path", productsFile))

	data, err := os.ReadFile(productsFile)
	if err != nil {
		return errors.Wrap(err, "read products file")
	}

	var products []productJSON
	if err := json.Unmarshal(data, &products); err != nil {
		return errors.Wrap(err, "parse products JSON")
	}

	slog.Info("upserting products", slog.Int("count", len(products)))

	const upsert = `
		INSERT INTO products (id, slug, title, category, price_cents, currency, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			slug = EXCLUDED.slug,
			title = EXCLUDED.title,
			category = EXCLUDED.category,
			price_cents = EXCLUDED.price_cents,
			currency = EXCLUDED.currency,
			active = EXCLUDED.active`

	for _, p := range products {
		if _, err := pool.Exec(ctx, upsert,
			p.ID, p.Slug, p.Title, p.Category, p.PriceCents, p.Currency, p.Active,
		); err != nil {
			return errors.Wrapf(err, "upsert product %s", p.ID)
		}

		slog.Info("upserted product", slog.String("id", p.ID), slog.String("title", p.Title))
	}

	return nil
}

// seedAdmin creates the admin user with the ADMIN role and a long-lived
// session for the given token. Only the token's SHA-256 hash is stored.
func seedAdmin(ctx context.Context, pool *pgxpool.Pool, email, token string) error {
	slog.Info("seeding admin account", slog.String("email", email))

	userID := uuid.New().String()
	const upsertUser = `
		INSERT INTO users (id, email, name)
		VALUES ($1, $2, $3)
		ON CONFLICT (email) DO UPDATE SET name = EXCLUDED.name
		RETURNING id`
	if err := pool.QueryRow(ctx, upsertUser, userID, email, "Store admin").Scan(&userID); err != nil {
		return errors.Wrap(err, "upsert admin user")
	}

	const upsertRole = `
		INSERT INTO user_roles (user_id, role)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING`
	if _, err := pool.Exec(ctx, upsertRole, userID, auth.RoleAdmin); err != nil {
		return errors.Wrap(err, "upsert admin role")
	}

	const upsertSession = `
		INSERT INTO sessions (token_hash, user_id, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (token_hash) DO UPDATE SET expires_at = EXCLUDED.expires_at`
	expiresAt := time.Now().Add(365 * 24 * time.Hour)
	if _, err := pool.Exec(ctx, upsertSession, auth.HashToken(token), userID, expiresAt); err != nil {
		return errors.Wrap(err, "upsert admin session")
	}

	slog.Info("seeded admin session", slog.String("user_id", userID))

	return nil
}
