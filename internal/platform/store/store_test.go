package store

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	chx "auracast/internal/platform/store/ch"
	"auracast/internal/platform/testkit"
)

func TestOpen_Backends(t *testing.T) {
	fc := &fakeCH{}
	chOpened := false
	testkit.Swap(t, &openCHConn, func(context.Context, chx.Config) (chConn, error) {
		chOpened = true
		return fc, nil
	})
	ctx := context.Background()

	s, err := Open(ctx, Config{})
	if err != nil || s.PG != nil || s.CH != nil {
		t.Fatalf("empty config: store=%+v err=%v", s, err)
	}
	if err := s.Close(ctx); err != nil {
		t.Fatalf("empty close: %v", err)
	}

	s, err = Open(ctx, Config{CH: CHConfig{Enabled: true, URL: "clickhouse://local"}})
	if err != nil || s.CH == nil || s.PG != nil {
		t.Fatalf("ch only: store=%+v err=%v", s, err)
	}
	if err := s.Close(ctx); err != nil || !fc.closed {
		t.Fatalf("ch close: err=%v closed=%v", err, fc.closed)
	}

	// pg is opened first and a bad url stops the rest
	chOpened = false
	s, err = Open(ctx, Config{
		PG: PGConfig{Enabled: true, URL: "://bad"},
		CH: CHConfig{Enabled: true, URL: "clickhouse://local"},
	})
	if err == nil || s != nil || chOpened {
		t.Fatalf("bad pg: store=%v err=%v chOpened=%v", s, err, chOpened)
	}
}

func TestOpen_OptionsRunFirst(t *testing.T) {
	var buf bytes.Buffer
	s, err := Open(context.Background(), Config{}, WithLogger(zerolog.New(&buf)))
	if err != nil {
		t.Fatal(err)
	}
	s.Log.Info().Msg("audit store up")
	testkit.MustContain(t, buf.String(), "audit store up")

	boom := errors.New("bad option")
	if _, err := Open(context.Background(), Config{}, func(*Store) error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
}

func TestClose_JoinsErrors(t *testing.T) {
	s := &Store{CH: newCHAdapter(&fakeCH{closeErr: errors.New("ch gone")})}
	err := s.Close(context.Background())
	if err == nil {
		t.Fatal("close error swallowed")
	}
	testkit.MustContain(t, err.Error(), "ch gone")
}
