package remote

import (
	"bytes"
	"context"
	"encoding/json"
	stderrs "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/pkg/errors"

	"github.com/bobg/rs"
	"github.com/bobg/rs/store"
	"github.com/bobg/rs/tag"
)

var _ tag.Store = (*Client)(nil)

// Client accesses a blob store served by a remote server.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client

	// PageSize is the number of items to request per round trip
	// in ListRefs and ListTags.
	// Zero means a sensible default.
	PageSize int
}

const defaultPageSize = 1000

// NewClient produces a new Client talking to the server at baseURL
// (e.g. http://localhost:2969).
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		HTTPClient: &http.Client{
			Timeout: 5 * time.Minute,
		},
	}
}

func (c *Client) pageSize() int {
	if c.PageSize > 0 {
		return c.PageSize
	}
	return defaultPageSize
}

// Get gets the blob with hash `ref`.
func (c *Client) Get(ctx context.Context, ref rs.Ref) (rs.Blob, error) {
	resp, err := c.get(ctx, "/v1/blobs/"+ref.String())
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, rs.ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errorFrom(resp)
	}

	b, err := io.ReadAll(resp.Body)
	return b, errors.Wrapf(err, "reading blob %s", ref)
}

// Contains tells whether the remote store contains the blob with the given ref.
func (c *Client) Contains(ctx context.Context, ref rs.Ref) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.BaseURL+"/v1/blobs/"+ref.String(), nil)
	if err != nil {
		return false, errors.Wrap(err, "creating request")
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return false, errors.Wrap(err, "sending request")
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	}
	return false, errorFrom(resp)
}

// Put adds a blob to the remote store if it wasn't already present.
func (c *Client) Put(ctx context.Context, b rs.Blob) (rs.Ref, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/v1/blobs", bytes.NewReader(b))
	if err != nil {
		return rs.Zero, false, errors.Wrap(err, "creating request")
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return rs.Zero, false, errors.Wrap(err, "sending request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return rs.Zero, false, errorFrom(resp)
	}

	var result PutBlobResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return rs.Zero, false, errors.Wrap(err, "decoding response")
	}
	ref, err := rs.RefFromHex(result.Ref)
	return ref, result.Added, errors.Wrapf(err, "parsing ref %s", result.Ref)
}

// ListRefs produces the refs in the remote store, in order, beginning just after start.
// It pages through the store PageSize refs at a time.
func (c *Client) ListRefs(ctx context.Context, start rs.Ref, f func(rs.Ref) error) error {
	for {
		path := fmt.Sprintf("/v1/refs?start=%s&limit=%d", start, c.pageSize())
		resp, err := c.get(ctx, path)
		if err != nil {
			return err
		}
		var result ListRefsResponse
		err = decodeBody(resp, &result)
		if err != nil {
			return err
		}
		if len(result.Refs) == 0 {
			return nil
		}
		for _, hexref := range result.Refs {
			ref, err := rs.RefFromHex(hexref)
			if err != nil {
				return errors.Wrapf(err, "parsing ref %s", hexref)
			}
			if err = f(ref); err != nil {
				return err
			}
			start = ref
		}
	}
}

// GetTag resolves a tag name to the ref it named at the given time.
func (c *Client) GetTag(ctx context.Context, name string, at time.Time) (rs.Ref, error) {
	path := "/v1/tags/" + url.PathEscape(name) + "?at=" + url.QueryEscape(at.Format(time.RFC3339Nano))
	resp, err := c.get(ctx, path)
	if err != nil {
		return rs.Zero, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return rs.Zero, rs.ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return rs.Zero, errorFrom(resp)
	}

	var result TagResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return rs.Zero, errors.Wrap(err, "decoding response")
	}
	ref, err := rs.RefFromHex(result.Ref)
	return ref, errors.Wrapf(err, "parsing ref %s", result.Ref)
}

// PutTag assigns a ref to a tag name as of the given time.
func (c *Client) PutTag(ctx context.Context, name string, ref rs.Ref, at time.Time) error {
	body, err := json.Marshal(PutTagRequest{Ref: ref.String(), At: at})
	if err != nil {
		return errors.Wrap(err, "marshaling request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.BaseURL+"/v1/tags/"+url.PathEscape(name), bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "creating request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "sending request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		return errorFrom(resp)
	}
	return nil
}

// ListTags produces the remote store's tag assignments,
// ordered by name and then by time,
// for names lexicographically after start.
// It pages through the tags PageSize entries at a time;
// see Handler for the page-boundary guarantee that makes this safe.
func (c *Client) ListTags(ctx context.Context, start string, f func(string, rs.Ref, time.Time) error) error {
	for {
		path := fmt.Sprintf("/v1/tags?start=%s&limit=%d", url.QueryEscape(start), c.pageSize())
		resp, err := c.get(ctx, path)
		if err != nil {
			return err
		}
		var result ListTagsResponse
		err = decodeBody(resp, &result)
		if err != nil {
			return err
		}
		if len(result.Tags) == 0 {
			return nil
		}
		for _, entry := range result.Tags {
			ref, err := rs.RefFromHex(entry.Ref)
			if err != nil {
				return errors.Wrapf(err, "parsing ref %s", entry.Ref)
			}
			if err = f(entry.Name, ref, entry.At); err != nil {
				return err
			}
			start = entry.Name
		}
	}
}

func (c *Client) get(ctx context.Context, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return nil, errors.Wrap(err, "creating request")
	}
	resp, err := c.HTTPClient.Do(req)
	return resp, errors.Wrap(err, "sending request")
}

// decodeBody decodes a JSON response body into v, consuming and closing resp.Body.
func decodeBody(resp *http.Response, v interface{}) error {
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return errorFrom(resp)
	}
	return errors.Wrap(json.NewDecoder(resp.Body).Decode(v), "decoding response")
}

func errorFrom(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)
	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
		if errResp.Details != "" {
			return errors.Errorf("%s: %s", errResp.Error, errResp.Details)
		}
		return stderrs.New(errResp.Error)
	}
	return errors.Errorf("server error: %d %s", resp.StatusCode, string(body))
}

func init() {
	store.Register("remote", func(_ context.Context, conf map[string]interface{}) (rs.Store, error) {
		baseURL, ok := conf["url"].(string)
		if !ok {
			return nil, errors.New(`missing "url" parameter`)
		}
		return NewClient(baseURL), nil
	})
}
