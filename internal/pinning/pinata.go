// Package pinning stores story metadata and cover art on IPFS via Pinata.
package pinning

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"resty.dev/v3"

	"github.com/alphabot-ai/storyx/internal/httpclient"
)

const service = "pinata"

// Pinner uploads content and returns its content id.
type Pinner interface {
	PinJSON(ctx context.Context, name string, body any) (string, error)
	PinFile(ctx context.Context, name string, data []byte) (string, error)
	GatewayURL(cid string) string
	// Configured reports whether pins can be attempted at all.
	Configured() bool
}

type pinResponse struct {
	IpfsHash  string `json:"IpfsHash"`
	PinSize   int64  `json:"PinSize"`
	Timestamp string `json:"Timestamp"`
}

// PinataClient talks to the Pinata pinning API with a JWT.
type PinataClient struct {
	client  *resty.Client
	jwt     string
	gateway string
}

func NewPinataClient(baseURL, jwt, gateway string, timeout time.Duration) *PinataClient {
	return &PinataClient{
		client:  httpclient.New(baseURL, timeout),
		jwt:     jwt,
		gateway: gateway,
	}
}

func (c *PinataClient) PinJSON(ctx context.Context, name string, body any) (string, error) {
	if c.jwt == "" {
		return "", httpclient.NotConfigured("PINATA_JWT")
	}

	payload := map[string]any{
		"pinataContent":  body,
		"pinataMetadata": map[string]string{"name": name},
	}

	res, err := c.client.R().
		WithContext(ctx).
		SetAuthToken(c.jwt).
		SetBody(payload).
		SetResult(&pinResponse{}).
		Post("/pinning/pinJSONToIPFS")
	if err != nil {
		return "", httpclient.Failed(service, err)
	}

	return cid(res)
}

func (c *PinataClient) PinFile(ctx context.Context, name string, data []byte) (string, error) {
	if c.jwt == "" {
		return "", httpclient.NotConfigured("PINATA_JWT")
	}

	metadata, err := json.Marshal(map[string]string{"name": name})
	if err != nil {
		return "", err
	}

	res, err := c.client.R().
		WithContext(ctx).
		SetAuthToken(c.jwt).
		SetFileReader("file", name, bytes.NewReader(data)).
		SetMultipartFormData(map[string]string{"pinataMetadata": string(metadata)}).
		SetResult(&pinResponse{}).
		Post("/pinning/pinFileToIPFS")
	if err != nil {
		return "", httpclient.Failed(service, err)
	}

	return cid(res)
}

func (c *PinataClient) Configured() bool {
	return c.jwt != ""
}

// GatewayURL is the public HTTP address of cid.
func (c *PinataClient) GatewayURL(cid string) string {
	return fmt.Sprintf("https://%s/ipfs/%s", c.gateway, cid)
}

func (c *PinataClient) Close() error {
	return c.client.Close()
}

func cid(res *resty.Response) (string, error) {
	if err := httpclient.Check(service, res); err != nil {
		return "", err
	}

	pinned, ok := res.Result().(*pinResponse)
	if !ok || pinned.IpfsHash == "" {
		return "", errors.New("pinata response missing IpfsHash")
	}
	return pinned.IpfsHash, nil
}
