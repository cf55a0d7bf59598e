package mathdoc

import (
	"context"
	"fmt"
	"io"
	"slices"
	"sync"

	"github.com/alnah/go-mathdoc/internal/canon"
	"github.com/alnah/go-mathdoc/internal/tree"
)

// Uploader stores an image and returns the URL it is served from.
type Uploader interface {
	Upload(ctx context.Context, name string, r io.Reader) (string, error)
}

// Session hosts the document tree an editor works on. It is safe for
// concurrent use.
type Session struct {
	mu    sync.Mutex
	doc   Document
	saved string
	dirty bool
}

// OpenSession compiles the saved document into a tree.
func OpenSession(flat string) *Session {
	return &Session{doc: tree.Compile(flat), saved: flat}
}

// Document returns the current tree. The block slice is a copy; blocks are
// shared and must not be mutated in place.
func (s *Session) Document() Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Document{Blocks: slices.Clone(s.doc.Blocks)}
}

// Flat returns the current tree serialized.
func (s *Session) Flat() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return tree.Serialize(s.doc)
}

// Reload replaces the tree after the saved document changed elsewhere.
// Local edits are discarded.
func (s *Session) Reload(flat string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc = tree.Compile(flat)
	s.saved = flat
	s.dirty = false
}

// Apply records a local edit.
func (s *Session) Apply(doc Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc = doc
	s.updateDirty()
}

// Dirty reports whether the tree differs from the saved document beyond
// canonical equivalence.
func (s *Session) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// MarkSaved returns the flat document to persist and treats it as saved.
func (s *Session) MarkSaved() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved = tree.Serialize(s.doc)
	s.dirty = false
	return s.saved
}

// InsertImage uploads an image and inserts it as a block before index.
// An index out of range is clamped. The tree is unchanged if the upload
// fails or ctx is cancelled; the upload itself runs without holding the
// session lock.
func (s *Session) InsertImage(ctx context.Context, up Uploader, index int, name string, r io.Reader, alt string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	url, err := up.Upload(ctx, name, r)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%w: %v", ErrImageUpload, err)
	}
	if url == "" {
		return ErrEmptyUploadURL
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	index = max(0, min(index, len(s.doc.Blocks)))
	s.doc.Blocks = slices.Insert(slices.Clone(s.doc.Blocks), index, Block(&ImageBlock{Src: url, Alt: alt}))
	s.updateDirty()
	return nil
}

func (s *Session) updateDirty() {
	s.dirty = !canon.Equivalent(tree.Serialize(s.doc), s.saved)
}
