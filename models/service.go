// models/service.go
package models

import "time"

// Service is a catalog entry offered by workers ("services" collection).
type Service struct {
	ID          string    `bson:"id" json:"id"`
	Name        string    `bson:"name" json:"name" validate:"required"`
	Description string    `bson:"description" json:"description"`
	Category    string    `bson:"category" json:"category" validate:"required"`
	Price       float64   `bson:"price" json:"price" validate:"gte=0"`
	Duration    int       `bson:"duration" json:"duration" validate:"gte=0"` // in minutes
	Icon        string    `bson:"icon,omitempty" json:"icon,omitempty"`
	CreatedAt   time.Time `bson:"createdAt" json:"createdAt"`
}

// ServiceUpdate is a partial merge update. Nil fields are left untouched.
type ServiceUpdate struct {
	Name        *string  `json:"name,omitempty"`
	Description *string  `json:"description,omitempty"`
	Category    *string  `json:"category,omitempty" validate:"omitempty,min=1"`
	Price       *float64 `json:"price,omitempty" validate:"omitempty,gte=0"`
	Duration    *int     `json:"duration,omitempty" validate:"omitempty,gte=0"`
	Icon        *string  `json:"icon,omitempty"`
}

// Apply merges the non-nil fields of u into s.
func (u ServiceUpdate) Apply(s *Service) {
	if u.Name != nil {
		s.Name = *u.Name
	}
	if u.Description != nil {
		s.Description = *u.Description
	}
	if u.Category != nil {
		s.Category = *u.Category
	}
	if u.Price != nil {
		s.Price = *u.Price
	}
	if u.Duration != nil {
		s.Duration = *u.Duration
	}
	if u.Icon != nil {
		s.Icon = *u.Icon
	}
}
