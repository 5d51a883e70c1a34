package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/sync/singleflight"

	"github.com/AngleProtocol/merkl-dispute-sub000/utils"
)

const DefaultHTTPTimeout = 30 * time.Second

// HTTPRootsProvider reads the public roots index and epoch snapshots of one
// chain. Concurrent requests for the same document share one round trip.
type HTTPRootsProvider struct {
	client  *resty.Client
	chainID uint64
	group   singleflight.Group
}

var _ MerkleRootsProvider = (*HTTPRootsProvider)(nil)

func NewHTTPRootsProvider(baseURL string, chainID uint64, timeout time.Duration) (*HTTPRootsProvider, error) {
	if baseURL == "" {
		return nil, utils.ErrEmptyUrl
	}
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, utils.WrapError(utils.ErrInvalidUrl, baseURL)
	}
	if timeout <= 0 {
		timeout = DefaultHTTPTimeout
	}
	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	return &HTTPRootsProvider{client: client, chainID: chainID}, nil
}

// FetchEpochFor looks root up in {base}/{chainId}/roots.json.
func (p *HTTPRootsProvider) FetchEpochFor(ctx context.Context, root string) (uint32, error) {
	v, err, _ := p.group.Do("roots", func() (interface{}, error) {
		body, err := p.get(ctx, fmt.Sprintf("/%d/roots.json", p.chainID))
		if err != nil {
			return nil, err
		}
		var raw map[string]uint32
		if err := json.Unmarshal(body, &raw); err != nil {
			return nil, fmt.Errorf("failed to decode roots index: %w", err)
		}
		roots := make(map[string]uint32, len(raw))
		for r, epoch := range raw {
			roots[strings.ToLower(r)] = epoch
		}
		return roots, nil
	})
	if err != nil {
		return 0, err
	}
	epoch, ok := v.(map[string]uint32)[strings.ToLower(root)]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrRootNotFound, root)
	}
	return epoch, nil
}

// FetchTreeFor downloads {base}/{chainId}/backup/rewards_{epoch}.json.
func (p *HTTPRootsProvider) FetchTreeFor(ctx context.Context, epoch uint32) ([]byte, error) {
	path := fmt.Sprintf("/%d/backup/rewards_%d.json", p.chainID, epoch)
	v, err, _ := p.group.Do(path, func() (interface{}, error) {
		return p.get(ctx, path)
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

func (p *HTTPRootsProvider) get(ctx context.Context, path string) ([]byte, error) {
	resp, err := p.client.R().SetContext(ctx).Get(path)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", path, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("%w: GET %s returned %d", ErrUnexpectedStatus, path, resp.StatusCode())
	}
	return resp.Body(), nil
}
