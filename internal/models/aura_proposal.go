package models

import "time"

// ProposalStatus is the lifecycle state of an AuraProposal.
type ProposalStatus string

const (
	ProposalStatusPending  ProposalStatus = "pending"
	ProposalStatusApproved ProposalStatus = "approved"
	ProposalStatusRejected ProposalStatus = "rejected"
)

// IsTerminal reports whether no further transition is allowed.
func (s ProposalStatus) IsTerminal() bool {
	return s == ProposalStatusApproved || s == ProposalStatusRejected
}

// AuraProposal asks to change a recipient's aura by Value.
// RecipientID points at a profile, or at an offline friend when IsRecipientOffline is set.
type AuraProposal struct {
	BaseModel
	ProposerID         uint           `gorm:"not null;index" json:"proposerId"`
	RecipientID        uint           `gorm:"not null;index:idx_proposal_recipient" json:"recipientId"`
	IsRecipientOffline bool           `gorm:"not null;default:false;index:idx_proposal_recipient" json:"isRecipientOffline"`
	Value              int64          `gorm:"not null" json:"value"`
	Reason             string         `gorm:"type:text;not null" json:"reason"`
	Status             ProposalStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	ResolvedAt         *time.Time     `json:"resolvedAt,omitempty"`

	Proposer *Profile `gorm:"foreignKey:ProposerID" json:"-"`
}

func (AuraProposal) TableName() string {
	return "aura_proposals"
}

// ProposalView is an AuraProposal enriched for display.
type ProposalView struct {
	AuraProposal
	Proposer        *ProfileBasicInfo `json:"proposer,omitempty"`
	RecipientName   string            `json:"recipientName,omitempty"`
	RecipientAvatar string            `json:"recipientAvatar,omitempty"`
	TotalVotes      int               `json:"totalVotes"`
	ApproveVotes    int               `json:"approveVotes"`
	MyVote          *bool             `json:"myVote,omitempty"`
}
