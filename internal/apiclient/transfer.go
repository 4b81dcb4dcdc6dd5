package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/url"
	"strings"

	"github.com/park285/arcadescore-live/internal/transfer"
	"github.com/valyala/fasthttp"
)

type filePart struct {
	field string
	name  string
	body  io.Reader
}

type multipartForm struct {
	fields [][2]string
	file   *filePart
}

func (f multipartForm) encode() ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, kv := range f.fields {
		if err := w.WriteField(kv[0], kv[1]); err != nil {
			return nil, "", fmt.Errorf("write field %s: %w", kv[0], err)
		}
	}
	if f.file != nil {
		part, err := w.CreateFormFile(f.file.field, f.file.name)
		if err != nil {
			return nil, "", fmt.Errorf("create file part: %w", err)
		}
		if _, err := io.Copy(part, f.file.body); err != nil {
			return nil, "", fmt.Errorf("copy file part: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

func (c *Client) postMultipart(ctx context.Context, method, path string, form multipartForm, out any) error {
	body, ctype, err := form.encode()
	if err != nil {
		return err
	}
	resp, err := c.do(ctx, request{method: method, path: path, body: body, contentType: ctype})
	if err != nil {
		return err
	}
	return decode(resp, out)
}

// Import uploads an archive as the multipart "file" field.
func (c *Client) Import(ctx context.Context, filename string, body io.Reader) (transfer.ImportResult, error) {
	var out transfer.ImportResult
	form := multipartForm{file: &filePart{field: "file", name: filename, body: body}}
	b, ctype, err := form.encode()
	if err != nil {
		return out, err
	}
	resp, err := c.do(ctx, request{method: fasthttp.MethodPost, path: "/api/v1/import", body: b, contentType: ctype})
	if err != nil {
		return out, err
	}
	if len(resp.body) > 0 {
		if err := json.Unmarshal(resp.body, &out); err != nil {
			return out, fmt.Errorf("decode import response: %w", err)
		}
	}
	return out, nil
}

// StartExport asks for an export. A JSON reply carries the job id; any
// other reply is the archive itself.
func (c *Client) StartExport(ctx context.Context, sessionID string) (transfer.ExportStart, error) {
	resp, err := c.do(ctx, request{
		method: fasthttp.MethodGet,
		path:   "/api/v1/export?session_id=" + url.QueryEscape(sessionID),
	})
	if err != nil {
		return transfer.ExportStart{}, err
	}
	if strings.HasPrefix(resp.contentType, "application/json") {
		var job struct {
			TaskID string `json:"task_id"`
		}
		if err := decode(resp, &job); err != nil {
			return transfer.ExportStart{}, err
		}
		return transfer.ExportStart{TaskID: job.TaskID}, nil
	}
	return transfer.ExportStart{Blob: resp.body}, nil
}

// Download copies a backend path, or an absolute URL, into w.
func (c *Client) Download(ctx context.Context, path string, w io.Writer) error {
	resp, err := c.do(ctx, request{method: fasthttp.MethodGet, path: path, retry: true})
	if err != nil {
		return err
	}
	_, err = w.Write(resp.body)
	return err
}

// FetchJSON GETs an absolute URL or a backend-relative path such as the
// proxy endpoint.
func (c *Client) FetchJSON(ctx context.Context, target string, out any) error {
	resp, err := c.do(ctx, request{method: fasthttp.MethodGet, path: target, retry: true})
	if err != nil {
		return err
	}
	if out == nil || len(resp.body) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.body, out); err != nil {
		return fmt.Errorf("decode %s: %w", target, err)
	}
	return nil
}
