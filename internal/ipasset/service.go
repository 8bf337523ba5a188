// Package ipasset registers stories as on-chain IP assets with license terms.
package ipasset

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/alphabot-ai/storyx/internal/pinning"
	"github.com/alphabot-ai/storyx/internal/store"
)

// ErrParentNotRegistered is returned when a derivative's parent story has no
// IP asset to derive from.
var ErrParentNotRegistered = errors.New("parent story is not registered as an IP asset")

// IPMetadata describes the story as intellectual property.
type IPMetadata struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CreatedAt   string    `json:"createdAt"`
	Image       string    `json:"image,omitempty"`
	Creators    []Creator `json:"creators"`
}

type Creator struct {
	Name                string `json:"name"`
	Address             string `json:"address"`
	ContributionPercent int    `json:"contributionPercent"`
}

// NFTMetadata describes the ownership token minted for the asset.
type NFTMetadata struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Image       string      `json:"image"`
	Attributes  []Attribute `json:"attributes,omitempty"`
}

type Attribute struct {
	TraitType string `json:"trait_type"`
	Value     string `json:"value"`
}

// Request is everything needed to register one story.
type Request struct {
	Post      *store.Post
	Parent    *store.Post // nil for root stories
	Owner     *store.User
	Selection Selection
	NFT       *NFTMetadata // derived from the story when nil
}

type Result struct {
	TransactionHash string   `json:"transaction_hash"`
	AssetID         string   `json:"asset_id"`
	LicenseTermIDs  []string `json:"license_term_ids"`
}

// Recorder persists a completed registration.
type Recorder interface {
	SetPostIPAsset(ctx context.Context, id string, asset store.IPAsset) error
}

type Service struct {
	pinner      pinning.Pinner
	submitter   Submitter
	recorder    Recorder
	spgContract string
	logger      *slog.Logger
}

func NewService(pinner pinning.Pinner, submitter Submitter, recorder Recorder, spgContract string, logger *slog.Logger) *Service {
	return &Service{
		pinner:      pinner,
		submitter:   submitter,
		recorder:    recorder,
		spgContract: spgContract,
		logger:      logger.With("component", "ipasset"),
	}
}

// Register pins the story's metadata, submits the registration and records
// the resulting asset against the story. Derivatives attach to the parent's
// first license terms and ignore the selection.
func (s *Service) Register(ctx context.Context, req Request) (*Result, error) {
	var terms []Terms
	if req.Parent == nil {
		var err error
		if terms, err = req.Selection.Terms(); err != nil {
			return nil, err
		}
	} else if req.Parent.IPAssetID == "" || req.Parent.LicenseTermID == "" {
		return nil, ErrParentNotRegistered
	}

	ref, err := s.pinMetadata(ctx, req)
	if err != nil {
		return nil, err
	}

	var result *Result
	if req.Parent == nil {
		root, err := s.submitter.RegisterRoot(ctx, RootRegistration{
			SPGNFTContract: s.spgContract,
			Metadata:       *ref,
			Terms:          terms,
		})
		if err != nil {
			return nil, fmt.Errorf("register root asset: %w", err)
		}
		result = &Result{
			TransactionHash: root.TransactionHash,
			AssetID:         root.AssetID,
			LicenseTermIDs:  root.LicenseTermIDs,
		}
	} else {
		derivative, err := s.submitter.RegisterDerivative(ctx, DerivativeRegistration{
			SPGNFTContract: s.spgContract,
			Metadata:       *ref,
			ParentAssetID:  req.Parent.IPAssetID,
			LicenseTermID:  req.Parent.LicenseTermID,
		})
		if err != nil {
			return nil, fmt.Errorf("register derivative asset: %w", err)
		}
		result = &Result{
			TransactionHash: derivative.TransactionHash,
			AssetID:         derivative.AssetID,
			LicenseTermIDs:  []string{req.Parent.LicenseTermID},
		}
	}

	s.logger.Info("ip asset registered",
		"post_id", req.Post.ID,
		"asset_id", result.AssetID,
		"tx_hash", result.TransactionHash,
		"derivative", req.Parent != nil,
	)

	asset := store.IPAsset{AssetID: result.AssetID, TxHash: result.TransactionHash}
	if len(result.LicenseTermIDs) > 0 {
		asset.LicenseTermID = result.LicenseTermIDs[0]
	}
	if err := s.recorder.SetPostIPAsset(ctx, req.Post.ID, asset); err != nil {
		return nil, fmt.Errorf("record ip asset: %w", err)
	}

	return result, nil
}

func (s *Service) pinMetadata(ctx context.Context, req Request) (*MetadataRef, error) {
	ip := IPMetadata{
		Title:       titleOf(req.Post),
		Description: req.Post.Content,
		CreatedAt:   time.UnixMilli(req.Post.Timestamp).UTC().Format(time.RFC3339),
		Image:       req.Post.ImageURL,
		Creators: []Creator{{
			Name:                req.Owner.Nickname,
			Address:             req.Owner.WalletAddress,
			ContributionPercent: 100,
		}},
	}

	nft := req.NFT
	if nft == nil {
		nft = &NFTMetadata{
			Name:        titleOf(req.Post),
			Description: "Ownership token for a Story X story.",
			Image:       req.Post.ImageURL,
		}
	}

	ipURI, ipHash, err := s.pin(ctx, "ip-metadata-"+req.Post.ID, ip)
	if err != nil {
		return nil, err
	}
	nftURI, nftHash, err := s.pin(ctx, "nft-metadata-"+req.Post.ID, nft)
	if err != nil {
		return nil, err
	}

	return &MetadataRef{
		IPMetadataURI:   ipURI,
		IPMetadataHash:  ipHash,
		NFTMetadataURI:  nftURI,
		NFTMetadataHash: nftHash,
	}, nil
}

// pin uploads v and returns its gateway URI and the 0x-prefixed SHA-256 of
// the exact JSON bytes pinned.
func (s *Service) pin(ctx context.Context, name string, v any) (string, string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", "", fmt.Errorf("encode %s: %w", name, err)
	}

	cid, err := s.pinner.PinJSON(ctx, name, json.RawMessage(data))
	if err != nil {
		return "", "", fmt.Errorf("pin %s: %w", name, err)
	}

	return s.pinner.GatewayURL(cid), hashHex(data), nil
}

func hashHex(data []byte) string {
	sum := sha256.Sum256(data)
	return "0x" + hex.EncodeToString(sum[:])
}

func titleOf(post *store.Post) string {
	if post.Title != "" {
		return post.Title
	}
	return "Story " + post.ID
}
