package store

// User is a wallet-backed account. Nickname and avatar are mutable,
// the wallet address is fixed at creation.
type User struct {
	ID            string  `json:"id" db:"id"`
	WalletAddress string  `json:"wallet_address" db:"wallet_address"`
	Nickname      string  `json:"nickname" db:"nickname"`
	AvatarURL     *string `json:"avatar_url" db:"avatar_url"`
	CreatedAt     int64   `json:"created_at" db:"created_at"`
}

// UserUpdate carries the mutable user fields. Nil fields are left alone;
// an empty AvatarURL clears the avatar.
type UserUpdate struct {
	Nickname  *string
	AvatarURL *string
}

func (u UserUpdate) Empty() bool {
	return u.Nickname == nil && u.AvatarURL == nil
}

// Post is a story row. Nickname, LikeCount and RepostCount are computed at
// read time and never written. Depth is only set on repost stories; tree
// depth comes from walking ParentID.
type Post struct {
	ID            string  `json:"id" db:"id"`
	UserID        string  `json:"user_id" db:"user_id"`
	Nickname      string  `json:"nickname" db:"nickname"`
	ParentID      *string `json:"parent_id" db:"parent_id"`
	Content       string  `json:"content" db:"content"`
	Title         string  `json:"title,omitempty" db:"title"`
	ImageURL      string  `json:"image_url,omitempty" db:"image_url"`
	Timestamp     int64   `json:"timestamp" db:"timestamp"`
	LikeCount     int     `json:"likes" db:"like_count"`
	RepostCount   int     `json:"reposts" db:"repost_count"`
	IsRepost      bool    `json:"is_repost" db:"is_repost"`
	Depth         int     `json:"depth,omitempty" db:"depth"`
	ParentPostID  *string `json:"parent_post_id" db:"parent_post_id"`
	IPAssetID     string  `json:"ip_asset_id,omitempty" db:"ip_asset_id"`
	IPTxHash      string  `json:"ip_tx_hash,omitempty" db:"ip_tx_hash"`
	LicenseTermID string  `json:"license_term_id,omitempty" db:"license_term_id"`
}

// IsRoot reports whether the story has no parent.
func (p *Post) IsRoot() bool {
	return p.ParentID == nil
}

// IPAsset is the on-chain registration recorded against a story.
type IPAsset struct {
	AssetID       string
	TxHash        string
	LicenseTermID string
}

// InteractionKind selects one of the per-user join tables.
type InteractionKind string

const (
	Like   InteractionKind = "like"
	Repost InteractionKind = "repost"
)

func (k InteractionKind) table() string {
	switch k {
	case Like:
		return "likes"
	case Repost:
		return "reposts"
	}
	return ""
}

// List options
type ListOptions struct {
	Limit int
}

const (
	DefaultListLimit = 50
	MaxListLimit     = 100
)
