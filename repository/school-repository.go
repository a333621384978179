package repository

import (
	"gorm.io/gorm"
)

type School struct {
	Id   int    `gorm:"primaryKey"`
	Name string `gorm:"not null;uniqueIndex"`
}

type SchoolRepository struct {
	DB *gorm.DB
}

func NewSchoolRepository(db *gorm.DB) *SchoolRepository {
	return &SchoolRepository{DB: db}
}

// Ensure creates the school if it is not in the directory yet. The directory
// feeds the signup form's autocomplete, so this is a side effect of
// admission, never a gate.
func (r *SchoolRepository) Ensure(name string) (*School, error) {
	var school School
	result := r.DB.Where(&School{Name: name}).FirstOrCreate(&school, &School{Name: name})
	if result.Error != nil {
		return nil, result.Error
	}
	return &school, nil
}

func (r *SchoolRepository) GetAll() ([]*School, error) {
	schools := make([]*School, 0)
	result := r.DB.Order("name ASC").Find(&schools)
	if result.Error != nil {
		return nil, result.Error
	}
	return schools, nil
}
