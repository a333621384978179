package service

import (
	"eventdesk/repository"

	"gorm.io/gorm"
)

type SchoolService struct {
	schoolRepository *repository.SchoolRepository
}

func NewSchoolService(db *gorm.DB) *SchoolService {
	return &SchoolService{
		schoolRepository: repository.NewSchoolRepository(db),
	}
}

func (s *SchoolService) GetAllSchools() ([]*repository.School, error) {
	return s.schoolRepository.GetAll()
}
