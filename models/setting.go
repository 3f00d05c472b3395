package models

type Setting struct {
	ID             uint   `gorm:"primaryKey" json:"id"`
	Name           string `gorm:"size:100;default:'giftapp'" json:"name"`
	ClosedRegister bool   `gorm:"default:false" json:"closed_register"`
	Maintenance    bool   `gorm:"default:false" json:"maintenance"`
}

func (Setting) TableName() string {
	return "settings"
}
