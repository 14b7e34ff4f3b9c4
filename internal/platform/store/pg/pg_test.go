package pg

import (
	"context"
	"errors"
	"testing"
	"time"

	kit "lifesync/internal/platform/testkit"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

type flaky struct {
	fails int
	calls int
}

func (f *flaky) Ping(context.Context) error {
	f.calls++
	if f.calls <= f.fails {
		return errors.New("starting up")
	}
	return nil
}

func TestWaitReady_RetriesUntilUp(t *testing.T) {
	p := &flaky{fails: 2}
	if err := waitReady(context.Background(), p, Config{Attempts: 5}, zerolog.Nop()); err != nil {
		t.Fatalf("waitReady: %v", err)
	}
	if p.calls != 3 {
		t.Fatalf("calls = %d, want 3", p.calls)
	}
}

func TestWaitReady_GivesUp(t *testing.T) {
	p := &flaky{fails: 100}
	err := waitReady(context.Background(), p, Config{Attempts: 2}, zerolog.Nop())
	kit.MustContain(t, err.Error(), "not ready after 2 pings")
	if p.calls != 2 {
		t.Fatalf("calls = %d, want 2", p.calls)
	}
}

func TestWaitReady_CancelCutsWaitShort(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	p := &flaky{fails: 100}

	start := time.Now()
	err := waitReady(ctx, p, Config{Attempts: 50}, zerolog.Nop())
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("want deadline, got %v", err)
	}
	if time.Since(start) > time.Second {
		t.Fatalf("cancel did not interrupt the backoff")
	}
}

func TestOpen_BadURL(t *testing.T) {
	_, err := Open(context.Background(), Config{URL: "://nope"}, zerolog.Nop())
	kit.MustContain(t, err.Error(), "pg: parse url")
}

func TestOpen_AppliesPoolSettings(t *testing.T) {
	kit.Serial(t)

	var seen *pgxpool.Config
	kit.Swap(t, &newPool, func(_ context.Context, c *pgxpool.Config) (*pgxpool.Pool, error) {
		seen = c
		return nil, errors.New("stop here")
	})

	_, err := Open(context.Background(), Config{
		URL:      "postgres://u:p@localhost:5432/lifesync?sslmode=disable",
		MaxConns: 3,
		AppName:  "lifesync",
	}, zerolog.Nop())
	kit.MustContain(t, err.Error(), "stop here")
	if seen == nil || seen.MaxConns != 3 || seen.ConnConfig.RuntimeParams["application_name"] != "lifesync" {
		t.Fatalf("pool config = %+v", seen)
	}
}
