package model

import "time"

// Directory rows back display-name lookups for receipt lists and the
// auth-UID to actor mapping used by the middleware. The wider platform owns
// these tables; only the columns this core reads are mapped.

type User struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"size:255" json:"name"`
	AuthUID   string    `gorm:"column:auth_uid;size:128;index" json:"-"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

func (User) TableName() string {
	return "users"
}

type Employee struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"size:255" json:"name"`
	AuthUID   string    `gorm:"column:auth_uid;size:128;index" json:"-"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

func (Employee) TableName() string {
	return "employees"
}

type SalesRepresentative struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"size:255" json:"name"`
	AuthUID   string    `gorm:"column:auth_uid;size:128;index" json:"-"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

func (SalesRepresentative) TableName() string {
	return "sales_representatives"
}
