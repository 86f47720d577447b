package client

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
)

// Form is a multipart/form-data body. It is sent as-is, never JSON-encoded.
type Form struct {
	buf    bytes.Buffer
	w      *multipart.Writer
	err    error
	closed bool
}

func NewForm() *Form {
	f := &Form{}
	f.w = multipart.NewWriter(&f.buf)
	return f
}

// Field adds a plain text field.
func (f *Form) Field(name, value string) *Form {
	if f.err != nil || f.closed {
		return f
	}
	f.err = f.w.WriteField(name, value)
	return f
}

// File adds a file part read fully from r.
func (f *Form) File(field, filename string, r io.Reader) *Form {
	if f.err != nil || f.closed {
		return f
	}
	part, err := f.w.CreateFormFile(field, filename)
	if err != nil {
		f.err = err
		return f
	}
	_, f.err = io.Copy(part, r)
	return f
}

// ContentType includes the multipart boundary.
func (f *Form) ContentType() string {
	return f.w.FormDataContentType()
}

func (f *Form) encode() ([]byte, string, error) {
	if f.err != nil {
		return nil, "", fmt.Errorf("build form: %w", f.err)
	}
	if !f.closed {
		if err := f.w.Close(); err != nil {
			return nil, "", fmt.Errorf("close form: %w", err)
		}
		f.closed = true
	}
	return f.buf.Bytes(), f.ContentType(), nil
}

// Upload is a file handed to a multipart endpoint.
type Upload struct {
	Filename string
	Content  io.Reader
}
