package models

// FriendLink is one direction of a friendship. An accepted request produces
// two links, sender->recipient and recipient->sender.
type FriendLink struct {
	BaseModel
	UserID   uint    `gorm:"not null;uniqueIndex:idx_friend_link_pair" json:"userId"`
	FriendID uint    `gorm:"not null;uniqueIndex:idx_friend_link_pair;index" json:"friendId"`
	Friend   Profile `gorm:"foreignKey:FriendID" json:"friend"`
}

func (FriendLink) TableName() string {
	return "friends"
}
