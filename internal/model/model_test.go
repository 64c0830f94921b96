package model

import (
	"errors"
	"testing"
	"time"

	"github.com/nao1215/mdtidy/internal/convert"
)

func TestDocument(t *testing.T) {
	t.Parallel()

	t.Run("stdin display path", func(t *testing.T) {
		t.Parallel()
		d := NewDocument("", convert.DefaultOptions())
		if !d.IsStdin() || d.DisplayPath() != StdinPath {
			t.Errorf("expected stdin document, got %q", d.DisplayPath())
		}
	})

	t.Run("set output tracks changes", func(t *testing.T) {
		t.Parallel()
		d := NewDocument("a.md", convert.DefaultOptions())
		d.Input = "# A\n"
		d.SetOutput("# A\n")
		if d.Changed {
			t.Error("expected unchanged document")
		}
		d.SetOutput("# B\n")
		if !d.Changed {
			t.Error("expected changed document")
		}
	})

	t.Run("set error records message", func(t *testing.T) {
		t.Parallel()
		d := NewDocument("a.md", convert.DefaultOptions())
		errBoom := errors.New("boom")
		d.SetError(errBoom)
		if !d.Failed() || !errors.Is(d.Error, errBoom) || d.ErrorMessage != "boom" {
			t.Errorf("unexpected error state %v %q", d.Error, d.ErrorMessage)
		}
	})
}

func TestNewSummary(t *testing.T) {
	t.Parallel()

	changed := &Document{Path: "a.md", Changed: true, Written: true}
	same := &Document{Path: "b.md", Cached: true}
	failed := &Document{Path: "c.md", Changed: true}
	failed.SetError(errors.New("bad"))

	s := NewSummary([]*Document{changed, nil, same, failed}, time.Second)

	if s.Total != 3 {
		t.Errorf("expected Total 3, got %d", s.Total)
	}
	if s.Changed != 1 || s.Unchanged != 1 || s.Failed != 1 {
		t.Errorf("unexpected counts changed=%d unchanged=%d failed=%d", s.Changed, s.Unchanged, s.Failed)
	}
	if s.Cached != 1 || s.Written != 1 {
		t.Errorf("unexpected cached=%d written=%d", s.Cached, s.Written)
	}
	if !s.HasFailures() {
		t.Error("expected HasFailures")
	}
	if got := s.ChangedDocuments(); len(got) != 1 || got[0] != changed {
		t.Errorf("unexpected changed documents %v", got)
	}
	if got := s.FailedDocuments(); len(got) != 1 || got[0] != failed {
		t.Errorf("unexpected failed documents %v", got)
	}
}
