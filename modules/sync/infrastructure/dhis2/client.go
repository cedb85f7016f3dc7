package dhis2

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/icddrb/eregistry/pkg/syncfault"
)

const errorBodyLimit = 4096

// Client talks to the DHIS2 web API with basic auth.
type Client struct {
	baseURL    string
	username   string
	password   string
	httpClient *http.Client
	now        func() time.Time
}

func New(baseURL string, username string, password string, httpClient *http.Client) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("dhis2: missing base url")
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, errors.New("dhis2: invalid base url")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, errors.New("dhis2: invalid base url scheme")
	}
	if u.Host == "" {
		return nil, errors.New("dhis2: invalid base url host")
	}
	if strings.TrimSpace(username) == "" {
		return nil, errors.New("dhis2: missing username")
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &Client{
		baseURL:    baseURL,
		username:   username,
		password:   password,
		httpClient: httpClient,
		now:        time.Now,
	}, nil
}

type response struct {
	body       []byte
	serverTime time.Time
}

// get issues GET <base>/api/<path>. Transport, status and body read failures
// come back as *syncfault.Fault tagged with op.
func (c *Client) get(ctx context.Context, op string, path string, query url.Values) (response, error) {
	target := c.baseURL + "/api/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return response{}, syncfault.Transport(op, err)
	}
	req.SetBasicAuth(c.username, c.password)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return response{}, syncfault.Transport(op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
		return response{}, syncfault.FromStatus(op, resp.StatusCode, strings.TrimSpace(string(b)))
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return response{}, syncfault.Transport(op, err)
	}

	serverTime := c.now().UTC()
	if d := resp.Header.Get("Date"); d != "" {
		if t, err := http.ParseTime(d); err == nil {
			serverTime = t.UTC()
		}
	}
	return response{body: body, serverTime: serverTime}, nil
}

func (c *Client) getJSON(ctx context.Context, op string, path string, query url.Values, out any) (time.Time, error) {
	resp, err := c.get(ctx, op, path, query)
	if err != nil {
		return time.Time{}, err
	}
	if err := json.Unmarshal(resp.body, out); err != nil {
		return time.Time{}, syncfault.Decode(op, err)
	}
	return resp.serverTime, nil
}
