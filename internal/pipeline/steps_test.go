package pipeline

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/nao1215/mdtidy/internal/cache"
	"github.com/nao1215/mdtidy/internal/convert"
	"github.com/nao1215/mdtidy/internal/model"
)

// memoryStore is an in-memory Store.
type memoryStore struct {
	mu      sync.Mutex
	entries map[string]string
	getErr  error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{entries: map[string]string{}}
}

func (m *memoryStore) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return "", false, m.getErr
	}
	v, ok := m.entries[key]
	return v, ok, nil
}

func (m *memoryStore) Put(_ context.Context, key, output string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = output
	return nil
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "doc.md")
	if err := os.WriteFile(path, []byte(content), 0o640); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestReadStep(t *testing.T) {
	t.Parallel()

	t.Run("reads file", func(t *testing.T) {
		t.Parallel()
		doc := model.NewDocument(writeFile(t, "# A\n"), convert.DefaultOptions())
		if err := NewReadStep(nil).Do(context.Background(), doc); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if doc.Input != "# A\n" {
			t.Errorf("unexpected input %q", doc.Input)
		}
	})

	t.Run("reads stdin", func(t *testing.T) {
		t.Parallel()
		doc := model.NewDocument("", convert.DefaultOptions())
		if err := NewReadStep(strings.NewReader("text")).Do(context.Background(), doc); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if doc.Input != "text" {
			t.Errorf("unexpected input %q", doc.Input)
		}
	})

	t.Run("stdin without reader", func(t *testing.T) {
		t.Parallel()
		doc := model.NewDocument("", convert.DefaultOptions())
		if err := NewReadStep(nil).Do(context.Background(), doc); !errors.Is(err, ErrNoInput) {
			t.Errorf("expected ErrNoInput, got %v", err)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()
		doc := model.NewDocument(filepath.Join(t.TempDir(), "none.md"), convert.DefaultOptions())
		if err := NewReadStep(nil).Do(context.Background(), doc); !errors.Is(err, fs.ErrNotExist) {
			t.Errorf("expected fs.ErrNotExist, got %v", err)
		}
	})
}

func TestConvertStep(t *testing.T) {
	t.Parallel()

	t.Run("converts input", func(t *testing.T) {
		t.Parallel()
		doc := model.NewDocument("a.md", convert.DefaultOptions())
		doc.Input = "Title\n=====\n"
		if err := NewConvertStep(nil).Do(context.Background(), doc); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if doc.Output != "# Title\n" || !doc.Changed {
			t.Errorf("unexpected output %q changed=%v", doc.Output, doc.Changed)
		}
	})

	t.Run("skips cached documents", func(t *testing.T) {
		t.Parallel()
		doc := model.NewDocument("a.md", convert.DefaultOptions())
		doc.Input = "Title\n=====\n"
		doc.Output = "cached"
		doc.Cached = true
		if err := NewConvertStep(nil).Do(context.Background(), doc); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if doc.Output != "cached" {
			t.Errorf("expected cached output to be kept, got %q", doc.Output)
		}
	})

	t.Run("invalid utf-8", func(t *testing.T) {
		t.Parallel()
		doc := model.NewDocument("a.md", convert.DefaultOptions())
		doc.Input = "\xff"
		if err := NewConvertStep(nil).Do(context.Background(), doc); !errors.Is(err, convert.ErrInvalidUTF8) {
			t.Errorf("expected ErrInvalidUTF8, got %v", err)
		}
	})
}

func TestCacheSteps(t *testing.T) {
	t.Parallel()

	t.Run("store then lookup", func(t *testing.T) {
		t.Parallel()

		store := newMemoryStore()
		ctx := context.Background()

		first := model.NewDocument("a.md", convert.DefaultOptions())
		first.Input = "x\n"
		first.SetOutput("y\n")
		if err := NewCacheStoreStep(store, nil).Do(ctx, first); err != nil {
			t.Fatal(err)
		}
		if got := store.entries[cache.Key(first.Options, "x\n")]; got != "y\n" {
			t.Fatalf("expected stored output, got %q", got)
		}

		second := model.NewDocument("b.md", convert.DefaultOptions())
		second.Input = "x\n"
		if err := NewCacheLookupStep(store, nil).Do(ctx, second); err != nil {
			t.Fatal(err)
		}
		if !second.Cached || second.Output != "y\n" || !second.Changed {
			t.Errorf("expected cache hit, got %+v", second)
		}
	})

	t.Run("lookup error is a miss", func(t *testing.T) {
		t.Parallel()

		store := newMemoryStore()
		store.getErr = errors.New("disk full")
		doc := model.NewDocument("a.md", convert.DefaultOptions())
		if err := NewCacheLookupStep(store, nil).Do(context.Background(), doc); err != nil {
			t.Errorf("expected nil error, got %v", err)
		}
		if doc.Cached {
			t.Error("expected miss")
		}
	})

	t.Run("cached documents are not stored again", func(t *testing.T) {
		t.Parallel()

		store := newMemoryStore()
		doc := model.NewDocument("a.md", convert.DefaultOptions())
		doc.Cached = true
		if err := NewCacheStoreStep(store, nil).Do(context.Background(), doc); err != nil {
			t.Fatal(err)
		}
		if len(store.entries) != 0 {
			t.Error("expected no store")
		}
	})
}

func TestWriteStep(t *testing.T) {
	t.Parallel()

	t.Run("rewrites changed file keeping mode", func(t *testing.T) {
		t.Parallel()
		path := writeFile(t, "old")
		doc := model.NewDocument(path, convert.DefaultOptions())
		doc.Input = "old"
		doc.SetOutput("new")

		if err := NewWriteStep().Do(context.Background(), doc); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		if string(data) != "new" || !doc.Written {
			t.Errorf("expected file rewritten, got %q written=%v", data, doc.Written)
		}
		info, err := os.Stat(path)
		if err != nil {
			t.Fatal(err)
		}
		if info.Mode().Perm() != 0o640 {
			t.Errorf("expected mode 0640, got %v", info.Mode().Perm())
		}
	})

	t.Run("unchanged file is not written", func(t *testing.T) {
		t.Parallel()
		path := writeFile(t, "same")
		doc := model.NewDocument(path, convert.DefaultOptions())
		doc.Input = "same"
		doc.SetOutput("same")
		if err := NewWriteStep().Do(context.Background(), doc); err != nil {
			t.Fatal(err)
		}
		if doc.Written {
			t.Error("expected no write")
		}
	})

	t.Run("stdin cannot be written", func(t *testing.T) {
		t.Parallel()
		doc := model.NewDocument("", convert.DefaultOptions())
		if err := NewWriteStep().Do(context.Background(), doc); !errors.Is(err, ErrWriteStdin) {
			t.Errorf("expected ErrWriteStdin, got %v", err)
		}
	})
}

func TestDefaultPipeline(t *testing.T) {
	t.Parallel()

	t.Run("step selection", func(t *testing.T) {
		t.Parallel()

		p := DefaultPipeline(FormatPipelineConfig{
			Store: newMemoryStore(),
			Write: true,
			Emit:  NewEmitStep(&bytes.Buffer{}),
		})
		want := []string{"read", "cache_lookup", "convert", "cache_store", "write", "emit"}
		got := p.StepNames()
		if strings.Join(got, ",") != strings.Join(want, ",") {
			t.Errorf("got steps %v, want %v", got, want)
		}

		if n := DefaultPipeline(FormatPipelineConfig{}).StepCount(); n != 2 {
			t.Errorf("expected read and convert only, got %d steps", n)
		}
	})

	t.Run("stdin to writer with cache", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		store, err := cache.Open(dir, cache.DefaultOptions())
		if err != nil {
			t.Fatal(err)
		}
		defer store.Close()

		run := func() (*model.Document, string) {
			var out bytes.Buffer
			p := DefaultPipeline(FormatPipelineConfig{
				Stdin: strings.NewReader("* a\n* b\n"),
				Store: store,
				Emit:  NewEmitStep(&out),
			})
			doc := model.NewDocument("", convert.DefaultOptions())
			if err := p.Execute(context.Background(), doc); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			return doc, out.String()
		}

		doc, out := run()
		if out != "- a\n- b\n" || doc.Cached {
			t.Errorf("first run: got %q cached=%v", out, doc.Cached)
		}
		doc, out = run()
		if out != "- a\n- b\n" || !doc.Cached {
			t.Errorf("second run: got %q cached=%v", out, doc.Cached)
		}
	})
}
