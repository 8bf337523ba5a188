// Package imagegen produces cover art for stories through Stability AI.
package imagegen

import (
	"context"
	"encoding/base64"
	"time"

	"resty.dev/v3"

	"github.com/alphabot-ai/storyx/internal/httpclient"
)

const (
	generatePath = "/v2beta/stable-image/generate/sd3"
	service      = "stability"
)

// Generator turns a text prompt into an encoded image.
type Generator interface {
	Generate(ctx context.Context, prompt string) (*Image, error)
}

// Image is raw image bytes plus their media type.
type Image struct {
	Data        []byte
	ContentType string
}

// DataURI encodes the image for direct embedding in a story.
func (i *Image) DataURI() string {
	return "data:" + i.ContentType + ";base64," + base64.StdEncoding.EncodeToString(i.Data)
}

// StabilityClient calls the SD3 text-to-image endpoint.
type StabilityClient struct {
	client *resty.Client
	apiKey string
}

func NewStabilityClient(baseURL, apiKey string, timeout time.Duration) *StabilityClient {
	return &StabilityClient{
		client: httpclient.New(baseURL, timeout),
		apiKey: apiKey,
	}
}

func (c *StabilityClient) Generate(ctx context.Context, prompt string) (*Image, error) {
	if c.apiKey == "" {
		return nil, httpclient.NotConfigured("STABILITY_API_KEY")
	}

	res, err := c.client.R().
		WithContext(ctx).
		SetAuthToken(c.apiKey).
		SetHeader("Accept", "image/*").
		SetMultipartFormData(map[string]string{
			"prompt":        prompt,
			"aspect_ratio":  "4:5",
			"output_format": "jpeg",
			"model":         "sd3-medium",
			"style_preset":  "pixel-art",
		}).
		Post(generatePath)
	if err != nil {
		return nil, httpclient.Failed(service, err)
	}
	if err := httpclient.Check(service, res); err != nil {
		return nil, err
	}

	return &Image{Data: res.Bytes(), ContentType: "image/jpeg"}, nil
}

func (c *StabilityClient) Close() error {
	return c.client.Close()
}
