package lang

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
)

func TestCache_ParseString(t *testing.T) {
	c := NewCache()
	ctx := context.Background()

	first, err := c.ParseString(ctx, externScript)
	if err != nil {
		t.Fatalf("ParseString: %v", err)
	}

	second, err := c.ParseString(ctx, externScript)
	if err != nil {
		t.Fatalf("ParseString: %v", err)
	}

	if first != second {
		t.Error("identical source parsed twice")
	}

	if hits, misses := c.Stats(); hits != 1 || misses != 1 {
		t.Errorf("Stats() = %d, %d, want 1, 1", hits, misses)
	}

	if _, err := c.ParseString(ctx, externScript, WithMaxDepth(8)); err != nil {
		t.Fatalf("ParseString: %v", err)
	}

	if n := c.Len(); n != 2 {
		t.Errorf("Len() = %d, want 2 after a parse with different options", n)
	}

	c.Clear()

	if n := c.Len(); n != 0 {
		t.Errorf("Len() = %d after Clear", n)
	}
}

func TestCache_Errors(t *testing.T) {
	c := NewCache()
	ctx := context.Background()
	src := "Code\n  x = \n"

	_, err1 := c.ParseString(ctx, src)
	_, err2 := c.ParseString(ctx, src)

	if !errors.Is(err1, ErrSyntax) || err1 != err2 {
		t.Errorf("errors = %v, %v, want the same cached syntax error", err1, err2)
	}

	if hits, _ := c.Stats(); hits != 1 {
		t.Errorf("hits = %d, want 1", hits)
	}
}

func TestCache_Cancelled(t *testing.T) {
	c := NewCache()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := c.ParseString(ctx, externScript); !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}

	if n := c.Len(); n != 0 {
		t.Errorf("cancelled parse left %d entries", n)
	}

	if _, err := c.ParseString(context.Background(), externScript); err != nil {
		t.Errorf("parse after cancellation: %v", err)
	}
}

func TestCache_ParseReader(t *testing.T) {
	c := NewCache()

	s, err := c.ParseReader(context.Background(), strings.NewReader(externScript))
	if err != nil {
		t.Fatalf("ParseReader: %v", err)
	}

	if len(s.Sections) != 3 {
		t.Errorf("got %d sections, want 3", len(s.Sections))
	}
}

func TestCache_Concurrent(t *testing.T) {
	c := NewCache()
	srcs := []string{externScript, fullScript, "Code\n  x = (\nEnd\n"}

	var wg sync.WaitGroup

	for i := range 64 {
		wg.Go(func() {
			src := srcs[i%len(srcs)]

			want, wantErr := ParseString(context.Background(), src)

			got, err := c.ParseString(context.Background(), src)
			if (err == nil) != (wantErr == nil) {
				t.Errorf("cached error = %v, direct error = %v", err, wantErr)

				return
			}

			if err == nil && len(got.Sections) != len(want.Sections) {
				t.Errorf("cached %d sections, direct %d", len(got.Sections), len(want.Sections))
			}
		})
	}

	wg.Wait()

	if hits, misses := c.Stats(); hits+misses != 64 || misses != 3 {
		t.Errorf("Stats() = %d, %d, want 61, 3", hits, misses)
	}
}

func BenchmarkCache_ParseString(b *testing.B) {
	c := NewCache()
	ctx := context.Background()

	for b.Loop() {
		if _, err := c.ParseString(ctx, fullScript); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkParseString(b *testing.B) {
	ctx := context.Background()

	for b.Loop() {
		if _, err := ParseString(ctx, fullScript); err != nil {
			b.Fatal(err)
		}
	}
}
