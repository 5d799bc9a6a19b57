package entities

import "github.com/volatiletech/null/v8"

// DefaultLeaderboardLimit is used when no limit is requested
const DefaultLeaderboardLimit = 20

// NewInstitutionName is shown for wallets without an institution record
const NewInstitutionName = "New Institution"

// FirstMilestone is the certificate count of the first reward milestone
const FirstMilestone = 10

// LeaderboardEntry is one ranked institution
type LeaderboardEntry struct {
	Rank              int         `json:"rank"`
	InstitutionName   string      `json:"institution_name"`
	WalletAddress     string      `json:"wallet_address"`
	TotalCertificates int         `json:"total_certificates"`
	RewardPoints      int         `json:"reward_points"`
	CurrentTier       null.String `json:"current_tier"`
	BadgesCount       int         `json:"badges_count"`
}

// Institution is an issuing institution's reward account
type Institution struct {
	InstitutionName   string      `json:"institution_name"`
	WalletAddress     string      `json:"wallet_address"`
	TotalCertificates int         `json:"total_certificates"`
	RewardPoints      int         `json:"reward_points"`
	CurrentTier       null.String `json:"current_tier"`
	NextMilestone     int         `json:"next_milestone"`
	MilestoneProgress float64     `json:"milestone_progress"`
	IsActive          bool        `json:"is_active,omitempty"`
	CreatedAt         string      `json:"created_at,omitempty"`
}

// Badge is an earned achievement
type Badge struct {
	BadgeType   string `json:"badge_type"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	EarnedAt    string `json:"earned_at,omitempty"`
}

// Milestone is a certificate count threshold
type Milestone struct {
	MilestoneCount int    `json:"milestone_count"`
	RewardPoints   int    `json:"reward_points"`
	AchievedAt     string `json:"achieved_at,omitempty"`
}

// RewardTransaction is a points ledger entry
type RewardTransaction struct {
	TransactionType string      `json:"transaction_type"`
	Points          int         `json:"points"`
	Description     string      `json:"description,omitempty"`
	TransactionHash null.String `json:"transaction_hash"`
	CreatedAt       string      `json:"created_at,omitempty"`
}

// InstitutionStats aggregates an institution's reward state
type InstitutionStats struct {
	Institution        Institution         `json:"institution"`
	Badges             []Badge             `json:"badges"`
	Milestones         []Milestone         `json:"milestones"`
	RecentTransactions []RewardTransaction `json:"recent_transactions"`
}

// NewInstitutionStats is reported for a wallet the backend does not know yet.
func NewInstitutionStats(address string) *InstitutionStats {
	return &InstitutionStats{
		Institution: Institution{
			InstitutionName: NewInstitutionName,
			WalletAddress:   address,
			NextMilestone:   FirstMilestone,
		},
		Badges:             []Badge{},
		Milestones:         []Milestone{},
		RecentTransactions: []RewardTransaction{},
	}
}

// RegisterWalletInput registers a wallet for rewards
type RegisterWalletInput struct {
	WalletAddress   string `json:"wallet_address" binding:"required"`
	InstitutionName string `json:"institution_name"`
}

// DefaultInstitutionName derives a placeholder name from the address.
func DefaultInstitutionName(address string) string {
	prefix := address
	if len(prefix) > 8 {
		prefix = prefix[:8]
	}
	return "Institution " + prefix
}

// RegisterWalletResult is the outcome of a wallet registration
type RegisterWalletResult struct {
	Success     bool         `json:"success"`
	Message     string       `json:"message"`
	Existing    bool         `json:"existing,omitempty"`
	Institution *Institution `json:"institution,omitempty"`
}

// UpdateInstitutionInput renames an institution
type UpdateInstitutionInput struct {
	InstitutionName string `json:"institution_name" binding:"required"`
}
