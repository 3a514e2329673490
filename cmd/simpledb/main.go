package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/cs4432/simpledb/buffer"
	"github.com/cs4432/simpledb/db"
	"github.com/cs4432/simpledb/tx"
	"github.com/cs4432/simpledb/types"
)

const workloadFile = "workload.tbl"

type hook interface {
	OnStart(logger *slog.Logger) error
	OnEnd() error
}

var hooks []hook

type options struct {
	conf     db.Config
	accesses int
	blocks   int
	workers  int
}

func parseFlags(args []string) (options, error) {
	def := db.DefaultConfig()

	fs := flag.NewFlagSet("simpledb", flag.ContinueOnError)
	dir := fs.String("dir", def.Dir, "database folder")
	buffers := fs.Int("buffers", def.BufferCount, "number of frames in the buffer pool")
	blockSize := fs.Int("block-size", def.BlockSize, "size of a block in bytes")
	policy := fs.String("policy", def.Policy.String(), "replacement policy: basic, clock or lru")
	clock := fs.Bool("clock", false, "shorthand for -policy clock")
	lru := fs.Bool("lru", false, "shorthand for -policy lru")
	accesses := fs.Int("workload", 10000, "number of block accesses")
	blocks := fs.Int("blocks", 64, "number of distinct blocks accessed")
	workers := fs.Int("workers", 4, "number of concurrent clients")
	verbose := fs.Bool("v", false, "log buffer pool events")

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}

	p, err := buffer.ParsePolicy(*policy)
	if err != nil {
		return options{}, err
	}

	switch {
	case *clock && *lru:
		return options{}, errors.New("-clock and -lru are mutually exclusive")
	case *clock:
		p = buffer.PolicyClock
	case *lru:
		p = buffer.PolicyLRU
	}

	if *buffers <= 0 || *blocks <= 0 || *workers <= 0 || *accesses < 0 {
		return options{}, errors.New("-buffers, -blocks and -workers must be positive")
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}

	return options{
		conf: db.Config{
			Dir:         *dir,
			BlockSize:   *blockSize,
			BufferCount: *buffers,
			Policy:      p,
			LogFile:     def.LogFile,
			Logger:      slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})),
		},
		accesses: *accesses,
		blocks:   *blocks,
		workers:  *workers,
	}, nil
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger := opts.conf.Logger
	for _, h := range hooks {
		if err := h.OnStart(logger); err != nil {
			logger.Error("error starting hook", slog.Any("err", err))
			os.Exit(1)
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err = run(ctx, opts)
	cancel()

	for _, h := range hooks {
		if err := h.OnEnd(); err != nil {
			logger.Error("error stopping hook", slog.Any("err", err))
		}
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options) error {
	d, err := db.Open(opts.conf)
	if err != nil {
		return err
	}
	defer d.Close()

	if err := prepare(ctx, d, opts.blocks); err != nil {
		return err
	}

	start := time.Now()
	if err := runWorkload(ctx, d, opts); err != nil {
		return err
	}

	printStats(os.Stdout, d.BufferManager(), time.Since(start))
	return nil
}

// prepare makes sure the workload file has at least blocks blocks.
func prepare(ctx context.Context, d *db.DB, blocks int) error {
	x, err := d.NewTx()
	if err != nil {
		return err
	}

	size, err := x.Size(workloadFile)
	if err != nil {
		return err
	}

	for n := int(size); n < blocks; n++ {
		block, err := x.PinNew(ctx, workloadFile, nil)
		if err != nil {
			return err
		}
		x.Unpin(block)
	}

	return x.Commit()
}

// runWorkload splits the accesses among the workers.
// Each access is a transaction that increments a counter in one block.
// Accesses are skewed: 80% of them hit the first 20% of the blocks.
func runWorkload(ctx context.Context, d *db.DB, opts options) error {
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)

	for w := 0; w < opts.workers; w++ {
		n := opts.accesses / opts.workers
		if w < opts.accesses%opts.workers {
			n++
		}

		wg.Add(1)
		go func(seed int64, n int) {
			defer wg.Done()

			rnd := rand.New(rand.NewSource(seed))
			for i := 0; i < n && ctx.Err() == nil; i++ {
				if err := access(ctx, d, pickBlock(rnd, opts.blocks)); err != nil {
					mu.Lock()
					errs = append(errs, err)
					mu.Unlock()
					return
				}
			}
		}(int64(w), n)
	}

	wg.Wait()
	return errors.Join(errs...)
}

func pickBlock(rnd *rand.Rand, blocks int) types.Block {
	hot := blocks / 5
	if hot == 0 {
		hot = 1
	}

	n := rnd.Intn(blocks)
	if rnd.Intn(10) < 8 {
		n = rnd.Intn(hot)
	}

	return types.NewBlock(workloadFile, types.Long(n))
}

// blockLocks serialise the transactions updating the same block,
// as the transaction layer does no locking.
var blockLocks [64]sync.Mutex

func access(ctx context.Context, d *db.DB, block types.Block) error {
	l := &blockLocks[block.Number()%types.Long(len(blockLocks))]
	l.Lock()
	defer l.Unlock()

	x, err := d.NewTx()
	if err != nil {
		return err
	}

	if err := incr(ctx, x, block); err != nil {
		return errors.Join(err, x.Rollback())
	}

	return x.Commit()
}

func incr(ctx context.Context, x tx.Transaction, block types.Block) error {
	if err := x.Pin(ctx, block); err != nil {
		return err
	}

	v, err := x.Int(block, 0)
	if err != nil {
		return err
	}

	return x.SetInt(block, 0, v+1, true)
}

func printStats(out io.Writer, bm *buffer.BufferManager, elapsed time.Duration) {
	stats := bm.Stats()

	fmt.Fprintf(out, "policy:      %s\n", bm.Policy())
	fmt.Fprintf(out, "buffers:     %d\n", bm.Size())
	fmt.Fprintf(out, "hits:        %d\n", stats.Hits)
	fmt.Fprintf(out, "misses:      %d\n", stats.Misses)
	fmt.Fprintf(out, "hit ratio:   %.2f%%\n", 100*stats.HitRatio())
	fmt.Fprintf(out, "evictions:   %d\n", stats.Evictions)
	fmt.Fprintf(out, "flushes:     %d\n", stats.Flushes)
	fmt.Fprintf(out, "failed pins: %d\n", stats.FailedPins)
	fmt.Fprintf(out, "elapsed:     %s\n", elapsed)
}
