package mime

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"sort"
)

// File is a multipart/form-data field carrying a file.
type File struct {
	Name        string
	ContentType string
	Content     []byte
}

// MultipartFormData is the multipart/form-data converter. It only writes.
//
// The written entity is the encoded body. The boundary is generated per write,
// so the Content-Type header of the request in Options is updated to carry it.
var MultipartFormData Converter = ConverterFuncs{WriteFunc: writeMultipart}

func writeMultipart(_ context.Context, value any, opts Options) (any, error) {
	fields, err := formFields(value)
	if err != nil {
		return nil, fmt.Errorf("mime: multipart requires an object: %w", err)
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for _, k := range keys {
		if err := writePart(w, k, fields[k]); err != nil {
			return nil, err
		}
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	if opts.Request != nil {
		opts.Request.SetHeader("Content-Type", w.FormDataContentType())
	}
	return body.String(), nil
}

func writePart(w *multipart.Writer, name string, v any) error {
	switch t := v.(type) {
	case File:
		return writeFile(w, name, t)
	case *File:
		return writeFile(w, name, *t)
	case []string:
		for _, s := range t {
			if err := w.WriteField(name, s); err != nil {
				return err
			}
		}
		return nil
	case []any:
		for _, item := range t {
			if err := writePart(w, name, item); err != nil {
				return err
			}
		}
		return nil
	case nil:
		return w.WriteField(name, "")
	case string:
		return w.WriteField(name, t)
	default:
		return w.WriteField(name, fmt.Sprint(t))
	}
}

func writeFile(w *multipart.Writer, name string, f File) error {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, name, f.Name))
	ct := f.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	h.Set("Content-Type", ct)
	part, err := w.CreatePart(h)
	if err != nil {
		return err
	}
	_, err = part.Write(f.Content)
	return err
}
