// Package textio reads source documents and writes generated output.
package textio

import (
	"bytes"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"git.home.luguber.info/inful/docpress/internal/foundation/errors"
)

// ErrExists is returned by WriteFile when overwrite is off and the target exists.
var ErrExists = errors.NewError(errors.CategoryFileSystem, "output already exists").Info().Build()

// Decode converts content to UTF-8 text, honouring and dropping a UTF-8 or
// UTF-16 byte order mark. Content without a BOM is taken as UTF-8.
func Decode(content []byte) (string, error) {
	decoder := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	out, err := io.ReadAll(transform.NewReader(bytes.NewReader(content), decoder))
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// ReadText reads and decodes a text file.
func ReadText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	text, err := Decode(data)
	if err != nil {
		return "", errors.WrapError(err, errors.CategoryParse, "failed to decode file").
			WithContext("path", path).
			Build()
	}
	return text, nil
}

// WriteFile writes data to path, creating parent directories. When
// overwrite is false and path exists, ErrExists is returned and the file is
// left untouched.
func WriteFile(path string, data []byte, overwrite bool) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !overwrite {
		flags = os.O_WRONLY | os.O_CREATE | os.O_EXCL
	}
	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return ErrExists
		}
		return err
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// CopyFile copies src to dst with the same overwrite semantics as WriteFile.
func CopyFile(src, dst string, overwrite bool) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !overwrite {
		flags = os.O_WRONLY | os.O_CREATE | os.O_EXCL
	}
	out, err := os.OpenFile(dst, flags, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return ErrExists
		}
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
