package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// assignID fills a nil primary key before insert so rows get application
// generated identifiers on every driver.
func assignID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

func (r *Role) BeforeCreate(*gorm.DB) error         { assignID(&r.ID); return nil }
func (u *User) BeforeCreate(*gorm.DB) error         { assignID(&u.ID); return nil }
func (c *Category) BeforeCreate(*gorm.DB) error     { assignID(&c.ID); return nil }
func (p *Product) BeforeCreate(*gorm.DB) error      { assignID(&p.ID); return nil }
func (c *Cart) BeforeCreate(*gorm.DB) error         { assignID(&c.ID); return nil }
func (c *CartItem) BeforeCreate(*gorm.DB) error     { assignID(&c.ID); return nil }
func (o *Order) BeforeCreate(*gorm.DB) error        { assignID(&o.ID); return nil }
func (o *OrderItem) BeforeCreate(*gorm.DB) error    { assignID(&o.ID); return nil }
func (a *UserActivity) BeforeCreate(*gorm.DB) error { assignID(&a.ID); return nil }

// All lists every persisted model; used by sqlite-backed tests and dev tooling.
func All() []any {
	return []any{
		&Role{},
		&User{},
		&Category{},
		&Product{},
		&Cart{},
		&CartItem{},
		&Order{},
		&OrderItem{},
		&UserActivity{},
		&Session{},
	}
}
