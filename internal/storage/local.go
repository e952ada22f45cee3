// Package storage menyimpan file upload di filesystem lokal. File disajikan
// kembali sebagai static file di bawah URL prefix yang sama dengan
// referensinya (default "/storage").
package storage

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

var ErrInvalidRef = errors.New("invalid storage reference")

type Local struct {
	root   string
	prefix string
}

// NewLocal membuat store dengan direktori root. prefix adalah URL prefix
// publik, misalnya "/storage".
func NewLocal(root, prefix string) (*Local, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &Local{root: abs, prefix: "/" + strings.Trim(prefix, "/")}, nil
}

func (l *Local) Root() string   { return l.root }
func (l *Local) Prefix() string { return l.prefix }

// Save menulis src ke <root>/<category>/<filename>. Nama file harus unik;
// file yang sudah ada tidak akan ditimpa.
func (l *Local) Save(category, filename string, src io.Reader) (string, error) {
	if !validSegment(category) || !validSegment(filename) {
		return "", fmt.Errorf("%w: %s/%s", ErrInvalidRef, category, filename)
	}
	dir := filepath.Join(l.root, category)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	full := filepath.Join(dir, filename)
	f, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, src); err != nil {
		f.Close()
		os.Remove(full)
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(full)
		return "", err
	}
	return path.Join(l.prefix, category, filename), nil
}

// Remove menghapus file untuk referensi ref. File yang tidak ada bukan error.
func (l *Local) Remove(ref string) error {
	full, err := l.Resolve(ref)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// Resolve mengubah referensi publik menjadi path di filesystem dan menolak
// referensi yang keluar dari root.
func (l *Local) Resolve(ref string) (string, error) {
	rel, ok := strings.CutPrefix(ref, l.prefix+"/")
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrInvalidRef, ref)
	}
	clean := path.Clean("/" + rel)
	if clean == "/" || clean != "/"+rel {
		return "", fmt.Errorf("%w: %s", ErrInvalidRef, ref)
	}
	return filepath.Join(l.root, filepath.FromSlash(clean)), nil
}

func validSegment(s string) bool {
	return s != "" && s != "." && s != ".." && !strings.ContainsAny(s, `/\`)
}
