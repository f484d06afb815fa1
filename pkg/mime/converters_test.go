package mime

import (
	"context"
	"io"
	stdmime "mime"
	"mime/multipart"
	"net/url"
	"reflect"
	"strings"
	"testing"

	"github.com/luizaranda/go-rest/pkg/rest"
)

func TestPlainText(t *testing.T) {
	ctx := context.Background()

	if got, _ := PlainText.Read(ctx, "hello", Options{}); got != "hello" {
		t.Errorf("expected hello, got %v", got)
	}
	if got, _ := PlainText.Read(ctx, []byte("bytes"), Options{}); got != "bytes" {
		t.Errorf("expected bytes, got %v", got)
	}
	if got, _ := PlainText.Write(ctx, "hello", Options{}); got != "hello" {
		t.Errorf("expected hello, got %v", got)
	}
	if got, _ := PlainText.Write(ctx, 42, Options{}); got != "42" {
		t.Errorf("expected 42, got %v", got)
	}
}

func TestJSON(t *testing.T) {
	ctx := context.Background()

	got, err := JSON.Read(ctx, `{"foo":"bar"}`, Options{})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if want := map[string]any{"foo": "bar"}; !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}

	written, err := JSON.Write(ctx, map[string]any{"foo": "bar"}, Options{})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if written != `{"foo":"bar"}` {
		t.Errorf(`expected {"foo":"bar"}, got %v`, written)
	}

	if _, err := JSON.Read(ctx, `{"foo":`, Options{}); err == nil {
		t.Error("expected an error for malformed json")
	}
	if _, err := JSON.Read(ctx, 42, Options{}); err == nil {
		t.Error("expected an error for a non textual payload")
	}
}

func TestJSON_Extend(t *testing.T) {
	ctx := context.Background()
	custom := JSON.Extend(
		func(string, any) any { return nil },
		func(key string, value any) any {
			if key == "" {
				return value
			}
			return Omit
		},
	)

	got, err := custom.Read(ctx, `{"foo":"bar"}`, Options{})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got != nil {
		t.Errorf("expected nil, got %v", got)
	}

	written, err := custom.Write(ctx, map[string]any{"foo": "bar"}, Options{})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if written != "{}" {
		t.Errorf("expected {}, got %v", written)
	}

	// The base codec is left untouched.
	if written, _ := JSON.Write(ctx, map[string]any{"foo": "bar"}, Options{}); written != `{"foo":"bar"}` {
		t.Errorf(`expected {"foo":"bar"}, got %v`, written)
	}
}

func TestJSON_DecodeHookRunsBottomUp(t *testing.T) {
	var keys []string
	custom := JSON.Extend(func(key string, value any) any {
		keys = append(keys, key)
		if s, ok := value.(string); ok {
			return strings.ToUpper(s)
		}
		return value
	}, nil)

	got, err := custom.Read(context.Background(), `{"a":{"b":"c"}}`, Options{})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	want := map[string]any{"a": map[string]any{"b": "C"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
	if wantKeys := []string{"b", "a", ""}; !reflect.DeepEqual(keys, wantKeys) {
		t.Errorf("expected keys %v, got %v", wantKeys, keys)
	}
}

func TestFormURLEncoded_Write(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"pairs", map[string]any{"foo": "bar", "bleep": "bloop"}, "bleep=bloop&foo=bar"},
		{"repeated", map[string]any{"foo": []string{"bar", "bloop"}}, "foo=bar&foo=bloop"},
		{"repeated any", map[string]any{"foo": []any{"bar", 1}}, "foo=bar&foo=1"},
		{"encoded", map[string]any{"fo=o": "b&ar"}, "fo%3Do=b%26ar"},
		{"spaces", map[string]any{"fo o": "b ar"}, "fo+o=b+ar"},
		{"nil", map[string]any{"foo": nil}, "foo"},
		{"empty", map[string]any{"foo": ""}, "foo="},
		{"string map", map[string]string{"foo": "bar"}, "foo=bar"},
		{"values", url.Values{"foo": {"bar", "baz"}}, "foo=bar&foo=baz"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FormURLEncoded.Write(context.Background(), tt.in, Options{})
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestFormURLEncoded_WriteRejectsNonObjects(t *testing.T) {
	if _, err := FormURLEncoded.Write(context.Background(), 42, Options{}); err == nil {
		t.Error("expected an error")
	}
}

func TestFormURLEncoded_Read(t *testing.T) {
	tests := []struct {
		in   string
		want map[string]any
	}{
		{"foo=bar&bleep=bloop", map[string]any{"foo": "bar", "bleep": "bloop"}},
		{"foo=bar&foo=bloop", map[string]any{"foo": []string{"bar", "bloop"}}},
		{"foo=bar&foo=bloop&foo=baz", map[string]any{"foo": []string{"bar", "bloop", "baz"}}},
		{"fo%3Do=b%26ar", map[string]any{"fo=o": "b&ar"}},
		{"fo+o=b+ar", map[string]any{"fo o": "b ar"}},
		{"foo", map[string]any{"foo": nil}},
		{"", map[string]any{}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := FormURLEncoded.Read(context.Background(), tt.in, Options{})
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestYAML(t *testing.T) {
	ctx := context.Background()

	got, err := YAML.Read(ctx, "foo: bar\nlist: [1, 2]\n", Options{})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	want := map[string]any{"foo": "bar", "list": []any{1, 2}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}

	written, err := YAML.Write(ctx, map[string]any{"foo": "bar"}, Options{})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if written != "foo: bar\n" {
		t.Errorf("expected %q, got %q", "foo: bar\n", written)
	}
}

func TestMultipartFormData(t *testing.T) {
	req := &rest.Request{}
	body, err := MultipartFormData.Write(context.Background(), map[string]any{
		"name": "gopher",
		"tags": []string{"a", "b"},
		"file": File{Name: "hello.txt", ContentType: "text/plain", Content: []byte("hi")},
	}, Options{Request: req})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	mediaType, params, err := stdmime.ParseMediaType(req.Header("Content-Type"))
	if err != nil {
		t.Fatalf("expected a valid content type, got %v", err)
	}
	if mediaType != "multipart/form-data" {
		t.Fatalf("expected multipart/form-data, got %s", mediaType)
	}

	got := map[string][]string{}
	files := map[string]string{}
	r := multipart.NewReader(strings.NewReader(body.(string)), params["boundary"])
	for {
		part, err := r.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		b, _ := io.ReadAll(part)
		if part.FileName() != "" {
			files[part.FileName()] = string(b)
			continue
		}
		got[part.FormName()] = append(got[part.FormName()], string(b))
	}

	want := map[string][]string{"name": {"gopher"}, "tags": {"a", "b"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
	if files["hello.txt"] != "hi" {
		t.Errorf("expected file content hi, got %q", files["hello.txt"])
	}
}

func TestMultipartFormData_Errors(t *testing.T) {
	ctx := context.Background()
	if _, err := MultipartFormData.Write(ctx, "plain", Options{}); err == nil {
		t.Error("expected an error for a non object entity")
	}
	if _, err := MultipartFormData.Read(ctx, "payload", Options{MIME: Parse("multipart/form-data")}); err == nil {
		t.Error("expected reads to be unsupported")
	}
}
