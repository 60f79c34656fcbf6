package models

// FriendRequestStatus 定义好友请求的状态
type FriendRequestStatus string

const (
	FriendRequestStatusPending  FriendRequestStatus = "pending"
	FriendRequestStatusAccepted FriendRequestStatus = "accepted"
	FriendRequestStatusRejected FriendRequestStatus = "rejected"
)

// FriendRequest 代表一个好友请求记录
type FriendRequest struct {
	BaseModel
	SenderID    uint                `gorm:"not null;index:idx_friend_request_users" json:"senderId"`
	RecipientID uint                `gorm:"not null;index:idx_friend_request_users" json:"recipientId"`
	Status      FriendRequestStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`

	Sender    *Profile `gorm:"foreignKey:SenderID" json:"-"`
	Recipient *Profile `gorm:"foreignKey:RecipientID" json:"-"`
}

func (FriendRequest) TableName() string {
	return "friend_requests"
}

// FriendRequestWithUsers is the API view of a request with both ends resolved.
type FriendRequestWithUsers struct {
	FriendRequest
	SenderInfo    *ProfileBasicInfo `json:"sender,omitempty"`
	RecipientInfo *ProfileBasicInfo `json:"recipient,omitempty"`
}
