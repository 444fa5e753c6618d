package blobstore

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"bullpen-rag/internal/domain"
)

const storageAPIVersion = "2021-08-06"

// ParseConnectionString extracts the account name and key from an Azure
// storage connection string ("AccountName=...;AccountKey=...;...").
func ParseConnectionString(connStr string) (account, key string, err error) {
	for _, part := range strings.Split(connStr, ";") {
		part = strings.TrimSpace(part)
		if value, ok := strings.CutPrefix(part, "AccountName="); ok {
			account = value
		}
		if value, ok := strings.CutPrefix(part, "AccountKey="); ok {
			key = value
		}
	}
	if account == "" {
		return "", "", fmt.Errorf("connection string has no AccountName")
	}
	return account, key, nil
}

// BlobURL builds the deterministic display URL for a stored source document.
func BlobURL(account, container, source string) string {
	return fmt.Sprintf("https://%s.blob.core.windows.net/%s/%s", account, container, source)
}

// Client lists and downloads blobs from one container using SharedKey
// authorization.
type Client struct {
	account   string
	key       []byte
	container string
	baseURL   string
	client    *http.Client
	now       func() time.Time
}

// NewClient builds a blob client from a full connection string. baseURL
// overrides the account endpoint for tests; leave empty in production.
func NewClient(connStr, container, baseURL string, client *http.Client) (*Client, error) {
	account, key, err := ParseConnectionString(connStr)
	if err != nil {
		return nil, err
	}
	decodedKey, err := base64.StdEncoding.DecodeString(key)
	if err != nil {
		return nil, fmt.Errorf("invalid AccountKey: %w", err)
	}
	if baseURL == "" {
		baseURL = fmt.Sprintf("https://%s.blob.core.windows.net", account)
	}
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	return &Client{
		account:   account,
		key:       decodedKey,
		container: container,
		baseURL:   strings.TrimRight(baseURL, "/"),
		client:    client,
		now:       time.Now,
	}, nil
}

type enumerationResults struct {
	Blobs struct {
		Blob []struct {
			Name string `xml:"Name"`
		} `xml:"Blob"`
	} `xml:"Blobs"`
	NextMarker string `xml:"NextMarker"`
}

// List returns the names of every blob in the container, following
// continuation markers.
func (c *Client) List(ctx context.Context) ([]string, error) {
	var names []string
	marker := ""

	for {
		query := url.Values{}
		query.Set("restype", "container")
		query.Set("comp", "list")
		if marker != "" {
			query.Set("marker", marker)
		}

		body, err := c.get(ctx, "/"+c.container, query)
		if err != nil {
			return nil, fmt.Errorf("failed to list blobs: %w", err)
		}

		var results enumerationResults
		if err := xml.Unmarshal(body, &results); err != nil {
			return nil, fmt.Errorf("failed to decode blob listing: %w", err)
		}
		for _, blob := range results.Blobs.Blob {
			names = append(names, blob.Name)
		}

		if results.NextMarker == "" {
			return names, nil
		}
		marker = results.NextMarker
	}
}

// Download fetches one blob's content.
func (c *Client) Download(ctx context.Context, name string) ([]byte, error) {
	body, err := c.get(ctx, "/"+c.container+"/"+name, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to download blob %q: %w", name, err)
	}
	return body, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}

	date := c.now().UTC().Format(http.TimeFormat)
	req.Header.Set("x-ms-date", date)
	req.Header.Set("x-ms-version", storageAPIVersion)
	req.Header.Set("Authorization", c.authorization(http.MethodGet, path, query, date))

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("storage service returned %d: %s", resp.StatusCode, string(body))
	}
	return io.ReadAll(resp.Body)
}

// authorization builds the SharedKey signature over the canonicalized
// request, per the Azure storage authentication scheme.
func (c *Client) authorization(verb, path string, query url.Values, date string) string {
	canonicalHeaders := fmt.Sprintf("x-ms-date:%s\nx-ms-version:%s\n", date, storageAPIVersion)

	canonicalResource := "/" + c.account + path
	if len(query) > 0 {
		keys := make([]string, 0, len(query))
		for key := range query {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			canonicalResource += fmt.Sprintf("\n%s:%s", strings.ToLower(key), strings.Join(query[key], ","))
		}
	}

	// GET requests carry no body, so every content header field is empty.
	stringToSign := strings.Join([]string{
		verb,
		"", // Content-Encoding
		"", // Content-Language
		"", // Content-Length
		"", // Content-MD5
		"", // Content-Type
		"", // Date
		"", // If-Modified-Since
		"", // If-Match
		"", // If-None-Match
		"", // If-Unmodified-Since
		"", // Range
		canonicalHeaders + canonicalResource,
	}, "\n")

	mac := hmac.New(sha256.New, c.key)
	mac.Write([]byte(stringToSign))
	signature := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	return fmt.Sprintf("SharedKey %s:%s", c.account, signature)
}

var _ domain.BlobStore = (*Client)(nil)
