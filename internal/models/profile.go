package models

// Profile is a registered user and their aura total.
type Profile struct {
	BaseModel
	Username     string `gorm:"type:varchar(100);uniqueIndex;not null" json:"username"`
	Email        string `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"type:varchar(255);not null" json:"-"`
	Aura         int64  `gorm:"not null;default:0;index" json:"aura"`
	Avatar       string `gorm:"type:text" json:"avatar,omitempty"`
}

// TableName 指定 Profile 模型的表名。
func (Profile) TableName() string {
	return "profiles"
}

// ProfileBasicInfo holds the public part of a profile.
type ProfileBasicInfo struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Aura     int64  `json:"aura"`
	Avatar   string `json:"avatar,omitempty"`
}

// BasicInfo strips the private fields.
func (p *Profile) BasicInfo() *ProfileBasicInfo {
	return &ProfileBasicInfo{ID: p.ID, Username: p.Username, Aura: p.Aura, Avatar: p.Avatar}
}
