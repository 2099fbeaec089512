package storage

import (
	"chatterbox/backend/internal/models"
)

func (s *Service) FindUserByID(id string) (*models.User, error) {
	return firstOrNil[models.User](s.DB.Where("id = ?", id))
}

func (s *Service) FindUserByExternalID(externalID string) (*models.User, error) {
	return firstOrNil[models.User](s.DB.Where("external_id = ?", externalID))
}

func (s *Service) FindUserByUsername(username string) (*models.User, error) {
	return firstOrNil[models.User](s.DB.Where("username = ?", username))
}

func (s *Service) ListUsers() ([]models.User, error) {
	var users []models.User
	if err := s.DB.Order("name asc").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (s *Service) CreateUser(user *models.User) error {
	return s.DB.Create(user).Error
}

func (s *Service) SaveUser(user *models.User) error {
	return s.DB.Save(user).Error
}

// DeleteUserByExternalID removes the account on a provider deletion event.
// Messages and conversations keep their id references; readers resolve
// them as dangling and omit the profile.
func (s *Service) DeleteUserByExternalID(externalID string) error {
	return s.DB.Where("external_id = ?", externalID).Delete(&models.User{}).Error
}
