package models

type Org struct {
	Model
	Name string `json:"name" gorm:"type:text;not null"`
	Slug string `json:"slug" gorm:"type:text;unique;not null;index"`

	Memberships []Membership `json:"memberships" gorm:"foreignKey:OrganizationID;constraint:OnDelete:CASCADE;"`
}

func (o Org) TableName() string {
	return "organizations"
}
