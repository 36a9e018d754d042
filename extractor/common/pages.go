package common

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"

	"github.com/dslipak/pdf"
)

var ErrPasswordRequired = errors.New("PDF is encrypted and password is not provided")

// Document is an opened PDF whose pages are read lazily.
type Document struct {
	reader *pdf.Reader
}

// OpenPDFReader opens a PDF from any reader. An empty password is only valid
// for unencrypted documents.
func OpenPDFReader(reader io.Reader, password string) (*Document, error) {
	var rAt io.ReaderAt
	var size int64

	switch v := reader.(type) {
	case io.ReadSeeker:
		ra, ok := v.(io.ReaderAt)
		if !ok {
			return OpenPDFReader(struct{ io.Reader }{v}, password)
		}
		cur, err := v.Seek(0, io.SeekCurrent)
		if err != nil {
			return nil, err
		}
		end, err := v.Seek(0, io.SeekEnd)
		if err != nil {
			return nil, err
		}
		if _, err := v.Seek(cur, io.SeekStart); err != nil {
			return nil, err
		}
		rAt, size = ra, end
	default:
		buf := new(bytes.Buffer)
		if _, err := buf.ReadFrom(reader); err != nil {
			return nil, err
		}
		b := buf.Bytes()
		rAt = bytes.NewReader(b)
		size = int64(len(b))
	}

	var r *pdf.Reader
	var err error
	if password == "" {
		r, err = pdf.NewReader(rAt, size)
		if errors.Is(err, pdf.ErrInvalidPassword) {
			return nil, ErrPasswordRequired
		}
	} else {
		tried := false
		r, err = pdf.NewReaderEncrypted(rAt, size, func() string {
			// pdf keeps asking until it gets an empty string
			if tried {
				return ""
			}
			tried = true
			return password
		})
		if errors.Is(err, pdf.ErrInvalidPassword) {
			return nil, fmt.Errorf("could not decrypt file, check password: %w", err)
		}
	}
	if err != nil {
		return nil, err
	}

	return &Document{reader: r}, nil
}

// OpenPDF opens a PDF file. The file is read fully into memory so the
// returned Document does not hold the file open.
func OpenPDF(path, password string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return OpenPDFReader(bytes.NewReader(data), password)
}

func (d *Document) NumPage() int {
	return d.reader.NumPage()
}

// Pages yields the plain text of each page in order. Every call starts a new
// pass over the document.
func (d *Document) Pages() iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for no := 1; no <= d.reader.NumPage(); no++ {
			text, err := pageText(d.reader.Page(no))
			if err != nil {
				yield("", fmt.Errorf("page %d: %w", no, err))
				return
			}
			if !yield(text, nil) {
				return
			}
		}
	}
}

func pageText(page pdf.Page) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("text extraction crashed: %v", r)
		}
	}()

	if page.V.IsNull() {
		return "", nil
	}
	return page.GetPlainText(nil)
}

// PagesFromStrings adapts already extracted page text.
func PagesFromStrings(pages []string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for _, page := range pages {
			if !yield(page, nil) {
				return
			}
		}
	}
}
