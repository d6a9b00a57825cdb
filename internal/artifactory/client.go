package artifactory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	retry "github.com/avast/retry-go/v5"

	"github.com/opendeploy/versioning/internal/errs"
)

const (
	gavcSearchPath = "/artifactory/api/search/gavc"
	classifier     = "release"

	requestAttempts = 2
)

var (
	ErrNoMatch          = errors.New("no artifact matches the coordinates")
	ErrSearchFailed     = errors.New("artifactory search failed")
	ErrUnexpectedStatus = errors.New("unexpected artifactory response status")
)

// Client resolves artifact download URIs against an Artifactory instance.
// Resolution is a two-step walk: a GAVC search yields the item URI, and the
// item's file info carries the download URI.
type Client struct {
	http *http.Client
}

func NewClient(timeout time.Duration) *Client {
	return &Client{
		http: &http.Client{Timeout: timeout},
	}
}

// ResolveDownloadURI returns the download URI for the release artifact at
// (group, name, version) on the given artifactory, or ErrNoMatch when the
// search comes back empty.
func (c *Client) ResolveDownloadURI(
	ctx context.Context,
	baseURI, group, name, version string,
) (string, error) {
	searchURI, err := url.Parse(baseURI + gavcSearchPath)
	if err != nil {
		return "", errs.Wrap(ErrSearchFailed, err)
	}

	query := searchURI.Query()
	query.Set("g", group)
	query.Set("a", name)
	query.Set("v", version)
	query.Set("c", classifier)
	searchURI.RawQuery = query.Encode()

	var search struct {
		Results []struct {
			URI string `json:"uri"`
		} `json:"results"`
	}

	err = c.getJSON(ctx, searchURI.String(), &search)
	if err != nil {
		return "", err
	}

	if len(search.Results) == 0 {
		return "", ErrNoMatch
	}

	var info struct {
		DownloadURI string `json:"downloadUri"`
	}

	err = c.getJSON(ctx, search.Results[0].URI, &info)
	if err != nil {
		return "", err
	}

	if info.DownloadURI == "" {
		return "", ErrNoMatch
	}

	return info.DownloadURI, nil
}

// errTransient marks failures worth one more attempt: connection errors and
// server-side statuses. Decode failures and client errors are final.
var errTransient = errors.New("transient artifactory failure")

func (c *Client) getJSON(ctx context.Context, uri string, receiver any) error {
	retrier := retry.New(
		retry.RetryIf(func(err error) bool {
			return errors.Is(err, errTransient)
		}),
		retry.Attempts(requestAttempts),
		retry.LastErrorOnly(true),
	)

	return retrier.Do(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
		if err != nil {
			return errs.Wrap(ErrSearchFailed, err)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return errs.Wrap(errTransient, errs.Wrap(ErrSearchFailed, err))
		}
		defer resp.Body.Close()

		if resp.StatusCode >= http.StatusInternalServerError {
			return errs.Wrap(errTransient,
				errs.Wrap(ErrUnexpectedStatus, fmt.Errorf("status %d from %s", resp.StatusCode, uri)))
		}

		if resp.StatusCode != http.StatusOK {
			return errs.Wrap(ErrUnexpectedStatus, fmt.Errorf("status %d from %s", resp.StatusCode, uri))
		}

		err = json.NewDecoder(resp.Body).Decode(receiver)
		if err != nil {
			return errs.Wrap(ErrSearchFailed, err)
		}

		return nil
	})
}
