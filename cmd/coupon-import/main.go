// Command coupon-import ingests gzipped NDJSON exports of issued coupon
// grants into the database. Each input file holds one grant per line. Files
// are scanned concurrently to build per-file bloom filters, which screen out
// grants already present in an earlier file before touching the database.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/klauspost/pgzip"
	"golang.org/x/sync/errgroup"

	"github.com/feastkit/storefront/internal/storage/postgres"
)

const (
	bloomCapacity      = 10_000_000
	bloomFalsePositive = 0.001
	maxLineSize        = 1 << 20
)

type grantLine struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	TemplateID string    `json:"template_id"`
	Status     string    `json:"status"`
	ExpiresAt  time.Time `json:"expires_at"`
}

func main() {
	var (
		databaseURL string
		dryRun      bool
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.BoolVar(&dryRun, "dry-run", false, "scan files and report duplicates without writing")
	flag.Parse()

	files := flag.Args()
	if len(files) == 0 {
		slog.Error("no input files: pass one or more .ndjson.gz paths")
		os.Exit(1)
	}

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" && !dryRun {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, files, dryRun); err != nil {
		slog.Error("import failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, databaseURL string, files []string, dryRun bool) error {
	filters, err := buildFilters(ctx, files)
	if err != nil {
		return errors.Wrap(err, "scan input files")
	}

	var pool *pgxpool.Pool
	if !dryRun {
		pool, err = postgres.NewPool(ctx, databaseURL)
		if err != nil {
			return errors.Wrap(err, "connect to database")
		}
		defer pool.Close()

		if err := postgres.RunMigrations(ctx, pool); err != nil {
			return errors.Wrap(err, "run migrations")
		}
	}

	var total stats
	for i, path := range files {
		s, err := importFile(ctx, pool, path, filters[:i], dryRun)
		if err != nil {
			return errors.Wrapf(err, "import %s", path)
		}
		slog.Info("file imported",
			slog.String("file", path),
			slog.Int("inserted", s.inserted),
			slog.Int("existing", s.existing),
			slog.Int("crossFileDuplicates", s.crossFile),
		)
		total.add(s)
	}

	slog.Info("import completed",
		slog.Int("files", len(files)),
		slog.Int("inserted", total.inserted),
		slog.Int("existing", total.existing),
		slog.Int("crossFileDuplicates", total.crossFile),
	)
	return nil
}

type stats struct {
	inserted  int
	existing  int
	crossFile int
}

func (s *stats) add(o stats) {
	s.inserted += o.inserted
	s.existing += o.existing
	s.crossFile += o.crossFile
}

// buildFilters scans every file concurrently and returns a bloom filter of
// grant IDs per file, in input order.
func buildFilters(ctx context.Context, files []string) ([]*bloom.BloomFilter, error) {
	filters := make([]*bloom.BloomFilter, len(files))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i, path := range files {
		g.Go(func() error {
			filter := bloom.NewWithEstimates(bloomCapacity, bloomFalsePositive)

			count, err := scanFile(ctx, path, func(grant grantLine) error {
				filter.AddString(grant.ID)
				return nil
			})
			if err != nil {
				return errors.Wrapf(err, "scan %s", path)
			}

			slog.Info("file scanned", slog.String("file", path), slog.Int("grants", count))
			filters[i] = filter
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return filters, nil
}

func importFile(ctx context.Context, pool *pgxpool.Pool, path string, earlier []*bloom.BloomFilter, dryRun bool) (stats, error) {
	const insertGrantSQL = `INSERT INTO user_coupons (id, user_id, template_id, status, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO NOTHING`

	var s stats
	_, err := scanFile(ctx, path, func(grant grantLine) error {
		for _, filter := range earlier {
			if filter.TestString(grant.ID) {
				slog.Warn("grant already issued in an earlier file, skipping",
					slog.String("grant", grant.ID),
					slog.String("file", path),
				)
				s.crossFile++
				return nil
			}
		}
		if dryRun {
			s.inserted++
			return nil
		}

		status := grant.Status
		if status == "" {
			status = "UNUSED"
		}
		tag, err := pool.Exec(ctx, insertGrantSQL,
			grant.ID, grant.UserID, grant.TemplateID, status, grant.ExpiresAt)
		if err != nil {
			return errors.Wrapf(err, "insert grant %s", grant.ID)
		}
		if tag.RowsAffected() == 0 {
			s.existing++
			return nil
		}
		s.inserted++
		return nil
	})
	return s, err
}

// scanFile streams a gzipped NDJSON file line by line, invoking fn per grant.
func scanFile(ctx context.Context, path string, fn func(grantLine) error) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, errors.Wrap(err, "open")
	}
	defer f.Close()

	gz, err := pgzip.NewReader(bufio.NewReader(f))
	if err != nil {
		return 0, errors.Wrap(err, "open gzip stream")
	}
	defer gz.Close()

	return scanGrants(ctx, gz, fn)
}

func scanGrants(ctx context.Context, r io.Reader, fn func(grantLine) error) (int, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	var (
		count int
		line  int
	)
	for scanner.Scan() {
		line++
		if err := ctx.Err(); err != nil {
			return count, err
		}

		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}

		var grant grantLine
		if err := json.Unmarshal(raw, &grant); err != nil {
			return count, errors.Wrapf(err, "line %d", line)
		}
		if grant.ID == "" || grant.UserID == "" || grant.TemplateID == "" {
			return count, errors.Errorf("line %d: grant missing id, user_id or template_id", line)
		}

		if err := fn(grant); err != nil {
			return count, err
		}
		count++
	}
	if err := scanner.Err(); err != nil {
		return count, errors.Wrap(err, "read")
	}
	return count, nil
}
