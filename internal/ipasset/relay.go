package ipasset

import (
	"context"
	"time"

	"resty.dev/v3"

	"github.com/alphabot-ai/storyx/internal/httpclient"
)

const relayService = "ip_relay"

// MetadataRef points the registration at pinned metadata and its hash.
type MetadataRef struct {
	IPMetadataURI   string `json:"ip_metadata_uri"`
	IPMetadataHash  string `json:"ip_metadata_hash"`
	NFTMetadataURI  string `json:"nft_metadata_uri"`
	NFTMetadataHash string `json:"nft_metadata_hash"`
}

type RootRegistration struct {
	SPGNFTContract string      `json:"spg_nft_contract"`
	Metadata       MetadataRef `json:"metadata"`
	Terms          []Terms     `json:"license_terms"`
}

type RootResult struct {
	TransactionHash string   `json:"transaction_hash"`
	AssetID         string   `json:"asset_id"`
	LicenseTermIDs  []string `json:"license_term_ids"`
}

type DerivativeRegistration struct {
	SPGNFTContract string      `json:"spg_nft_contract"`
	Metadata       MetadataRef `json:"metadata"`
	ParentAssetID  string      `json:"parent_asset_id"`
	LicenseTermID  string      `json:"license_term_id"`
}

type DerivativeResult struct {
	TransactionHash string `json:"transaction_hash"`
	AssetID         string `json:"asset_id"`
}

// Submitter signs and submits registrations on chain.
type Submitter interface {
	RegisterRoot(ctx context.Context, reg RootRegistration) (*RootResult, error)
	RegisterDerivative(ctx context.Context, reg DerivativeRegistration) (*DerivativeResult, error)
}

// RelaySubmitter forwards registrations to a relay service that holds the
// signing wallet.
type RelaySubmitter struct {
	client *resty.Client
	token  string
}

func NewRelaySubmitter(baseURL, token string, timeout time.Duration) *RelaySubmitter {
	if baseURL == "" {
		return &RelaySubmitter{}
	}
	return &RelaySubmitter{
		client: httpclient.New(baseURL, timeout),
		token:  token,
	}
}

func (r *RelaySubmitter) RegisterRoot(ctx context.Context, reg RootRegistration) (*RootResult, error) {
	var result RootResult
	if err := r.post(ctx, "/ip-assets/root", reg, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *RelaySubmitter) RegisterDerivative(ctx context.Context, reg DerivativeRegistration) (*DerivativeResult, error) {
	var result DerivativeResult
	if err := r.post(ctx, "/ip-assets/derivative", reg, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *RelaySubmitter) post(ctx context.Context, path string, body, result any) error {
	if r.client == nil {
		return httpclient.NotConfigured("IP_RELAY_URL")
	}

	req := r.client.R().
		WithContext(ctx).
		SetBody(body).
		SetResult(result)
	if r.token != "" {
		req.SetAuthToken(r.token)
	}

	res, err := req.Post(path)
	if err != nil {
		return httpclient.Failed(relayService, err)
	}
	return httpclient.Check(relayService, res)
}

func (r *RelaySubmitter) Close() error {
	if r.client == nil {
		return nil
	}
	return r.client.Close()
}
