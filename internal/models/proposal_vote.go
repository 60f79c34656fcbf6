package models

// ProposalVote is one voter's opinion on a proposal. (ProposalID, VoterID) is unique.
type ProposalVote struct {
	BaseModel
	ProposalID uint `gorm:"not null;uniqueIndex:idx_proposal_voter" json:"proposalId"`
	VoterID    uint `gorm:"not null;uniqueIndex:idx_proposal_voter" json:"voterId"`
	Vote       bool `gorm:"not null" json:"vote"`
}

func (ProposalVote) TableName() string {
	return "proposal_votes"
}

// VoteTally counts the votes of one proposal.
type VoteTally struct {
	Approve int
	Reject  int
}

// Total returns the number of votes counted.
func (t VoteTally) Total() int {
	return t.Approve + t.Reject
}

// Outcome applies simple majority. Ties are rejected.
func (t VoteTally) Outcome() ProposalStatus {
	if t.Approve > t.Reject {
		return ProposalStatusApproved
	}
	return ProposalStatusRejected
}

// TallyVotes counts approvals and rejections.
func TallyVotes(votes []ProposalVote) VoteTally {
	var t VoteTally
	for _, v := range votes {
		if v.Vote {
			t.Approve++
		} else {
			t.Reject++
		}
	}
	return t
}
