package dav

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Collection is one calendar collection under the signed-in principal's home
// set.
type Collection struct {
	Href        string
	Name        string
	Description string
}

// Client talks to a single DAV server. Credentials and the discovered
// calendar home set are captured by Login; every other operation requires a
// prior successful Login.
type Client struct {
	base   *url.URL
	http   *http.Client
	tracer trace.Tracer

	username string
	password string
	homeSet  string
}

// NewClient builds a client for the given server URL. rawURL may be empty
// when no server is configured yet; SetServer must then be called before the
// first operation. With insecure set, TLS certificate verification is
// skipped (self-hosted servers with self-signed certificates).
func NewClient(rawURL string, timeout time.Duration, insecure bool) (*Client, error) {
	base := &url.URL{}
	if rawURL != "" {
		var err error
		base, err = parseServerURL(rawURL)
		if err != nil {
			return nil, err
		}
	}
	hc := &http.Client{Timeout: timeout}
	if insecure {
		hc.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}
	return &Client{
		base:   base,
		http:   hc,
		tracer: otel.Tracer("davman/dav"),
	}, nil
}

func parseServerURL(rawURL string) (*url.URL, error) {
	base, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse server URL: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("server URL %q: scheme must be http or https", rawURL)
	}
	return base, nil
}

// SetServer re-points the client at a different server URL. The sign-in
// screen calls this with the edited server before verifying credentials; the
// discovered home set belongs to the old server and is dropped.
func (c *Client) SetServer(rawURL string) error {
	base, err := parseServerURL(rawURL)
	if err != nil {
		return err
	}
	c.base = base
	c.homeSet = ""
	return nil
}

// Login verifies the credentials by resolving the current user principal,
// then discovers the principal's calendar home set. Both are kept on the
// client for later operations.
func (c *Client) Login(ctx context.Context, username, password string) error {
	ctx, span := c.tracer.Start(ctx, "dav.login",
		trace.WithAttributes(attribute.String("dav.user", username)))
	defer span.End()

	c.username, c.password = username, password

	principal, err := c.propfindHref(ctx, "login", c.base.Path, propfindPrincipalBody,
		func(p prop) *hrefValue { return p.CurrentUserPrincipal })
	if err != nil {
		c.username, c.password = "", ""
		return spanErr(span, err)
	}
	home, err := c.propfindHref(ctx, "login", principal, propfindHomeSetBody,
		func(p prop) *hrefValue { return p.CalendarHomeSet })
	if err != nil {
		c.username, c.password = "", ""
		return spanErr(span, err)
	}
	c.homeSet = home
	return nil
}

// Logout drops the captured credentials and home set.
func (c *Client) Logout() {
	c.username, c.password, c.homeSet = "", "", ""
}

// ListCollections fetches the calendar collections under the home set,
// sorted by display name.
func (c *Client) ListCollections(ctx context.Context) ([]Collection, error) {
	ctx, span := c.tracer.Start(ctx, "dav.list")
	defer span.End()

	if c.homeSet == "" {
		return nil, spanErr(span, errors.New("list collections: not signed in"))
	}
	ms, err := c.propfind(ctx, "list collections", c.homeSet, 1, propfindCollectionsBody)
	if err != nil {
		return nil, spanErr(span, err)
	}

	var cols []Collection
	for _, r := range ms.Responses {
		p, ok := r.firstOKProp()
		if !ok || p.ResourceType.Calendar == nil {
			continue // the home set itself, or a non-calendar child
		}
		name := p.DisplayName
		if name == "" {
			name = path.Base(strings.TrimSuffix(r.Href, "/"))
		}
		cols = append(cols, Collection{
			Href:        r.Href,
			Name:        name,
			Description: p.CalendarDescription,
		})
	}
	sort.Slice(cols, func(i, j int) bool { return cols[i].Name < cols[j].Name })
	span.SetAttributes(attribute.Int("dav.collections", len(cols)))
	return cols, nil
}

// CreateCollection makes a new calendar collection at a fresh path under the
// home set (extended MKCOL, RFC 5689).
func (c *Client) CreateCollection(ctx context.Context, name, description string) error {
	ctx, span := c.tracer.Start(ctx, "dav.mkcol",
		trace.WithAttributes(attribute.String("dav.collection", name)))
	defer span.End()

	if c.homeSet == "" {
		return spanErr(span, errors.New("create collection: not signed in"))
	}
	href := strings.TrimSuffix(c.homeSet, "/") + "/" + uuid.NewString() + "/"
	resp, err := c.do(ctx, "MKCOL", href, -1, mkcolBody(name, description))
	if err != nil {
		return spanErr(span, fmt.Errorf("create collection: %w", err))
	}
	defer drain(resp)
	if resp.StatusCode != http.StatusCreated {
		return spanErr(span, statusErr("create collection", resp.StatusCode))
	}
	return nil
}

// UpdateCollection rewrites the display name and description of an existing
// collection via PROPPATCH.
func (c *Client) UpdateCollection(ctx context.Context, href, name, description string) error {
	ctx, span := c.tracer.Start(ctx, "dav.proppatch",
		trace.WithAttributes(attribute.String("dav.href", href)))
	defer span.End()

	resp, err := c.do(ctx, "PROPPATCH", href, -1, proppatchBody(name, description))
	if err != nil {
		return spanErr(span, fmt.Errorf("update collection: %w", err))
	}
	defer drain(resp)
	if resp.StatusCode != http.StatusMultiStatus && resp.StatusCode != http.StatusOK {
		return spanErr(span, statusErr("update collection", resp.StatusCode))
	}
	return nil
}

// DeleteCollection removes a collection and everything in it.
func (c *Client) DeleteCollection(ctx context.Context, href string) error {
	ctx, span := c.tracer.Start(ctx, "dav.delete",
		trace.WithAttributes(attribute.String("dav.href", href)))
	defer span.End()

	resp, err := c.do(ctx, http.MethodDelete, href, -1, "")
	if err != nil {
		return spanErr(span, fmt.Errorf("delete collection: %w", err))
	}
	defer drain(resp)
	if resp.StatusCode/100 != 2 {
		return spanErr(span, statusErr("delete collection", resp.StatusCode))
	}
	return nil
}

// PutObject uploads a calendar object into a collection under the given
// name. If-None-Match guards against clobbering an existing object. Returns
// the href of the created object.
func (c *Client) PutObject(ctx context.Context, collectionHref, name string, data []byte) (string, error) {
	ctx, span := c.tracer.Start(ctx, "dav.put",
		trace.WithAttributes(
			attribute.String("dav.href", collectionHref),
			attribute.Int("dav.size", len(data)),
		))
	defer span.End()

	href := strings.TrimSuffix(collectionHref, "/") + "/" + name
	req, err := c.newRequest(ctx, http.MethodPut, href, bytes.NewReader(data))
	if err != nil {
		return "", spanErr(span, fmt.Errorf("upload: %w", err))
	}
	req.Header.Set("Content-Type", "text/calendar; charset=utf-8")
	req.Header.Set("If-None-Match", "*")
	resp, err := c.http.Do(req)
	if err != nil {
		return "", spanErr(span, fmt.Errorf("upload: %w", err))
	}
	defer drain(resp)
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusNoContent {
		return "", spanErr(span, statusErr("upload", resp.StatusCode))
	}
	return href, nil
}

// propfindHref runs a Depth 0 PROPFIND and extracts a single href-valued
// property via pick.
func (c *Client) propfindHref(ctx context.Context, op, ref, body string, pick func(prop) *hrefValue) (string, error) {
	ms, err := c.propfind(ctx, op, ref, 0, body)
	if err != nil {
		return "", err
	}
	for _, r := range ms.Responses {
		p, ok := r.firstOKProp()
		if !ok {
			continue
		}
		if hv := pick(p); hv != nil && hv.Href != "" {
			return hv.Href, nil
		}
	}
	return "", fmt.Errorf("%s: server did not return the requested property", op)
}

func (c *Client) propfind(ctx context.Context, op, ref string, depth int, body string) (*multistatus, error) {
	resp, err := c.do(ctx, "PROPFIND", ref, depth, body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer drain(resp)
	if resp.StatusCode != http.StatusMultiStatus {
		return nil, statusErr(op, resp.StatusCode)
	}
	var ms multistatus
	if err := xml.NewDecoder(resp.Body).Decode(&ms); err != nil {
		return nil, fmt.Errorf("%s: parse multistatus: %w", op, err)
	}
	return &ms, nil
}

// do issues one DAV request. ref is resolved against the client's base URL;
// depth < 0 omits the Depth header.
func (c *Client) do(ctx context.Context, method, ref string, depth int, body string) (*http.Response, error) {
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req, err := c.newRequest(ctx, method, ref, rd)
	if err != nil {
		return nil, err
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/xml; charset=utf-8")
	}
	if depth >= 0 {
		req.Header.Set("Depth", strconv.Itoa(depth))
	}
	return c.http.Do(req)
}

func (c *Client) newRequest(ctx context.Context, method, ref string, body io.Reader) (*http.Request, error) {
	ru, err := url.Parse(ref)
	if err != nil {
		return nil, fmt.Errorf("resolve %q: %w", ref, err)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base.ResolveReference(ru).String(), body)
	if err != nil {
		return nil, err
	}
	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}
	return req, nil
}

// drain discards and closes a response body so the connection can be reused.
func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}

// spanErr records err on the span and passes it through.
func spanErr(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
