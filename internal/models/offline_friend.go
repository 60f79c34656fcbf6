package models

// OfflineFriend is a placeholder contact that only exists for its creator.
type OfflineFriend struct {
	BaseModel
	CreatorID uint   `gorm:"not null;index" json:"creatorId"`
	Name      string `gorm:"type:varchar(100);not null" json:"name"`
	Email     string `gorm:"type:varchar(255)" json:"email,omitempty"`
	Aura      int64  `gorm:"not null;default:0" json:"aura"`
	Avatar    string `gorm:"type:text" json:"avatar,omitempty"`
}

func (OfflineFriend) TableName() string {
	return "offline_friends"
}
