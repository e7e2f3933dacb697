package repository

import (
	"github.com/8Tech-Consults/skills-chat/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserRepository resolves marketplace user ids to display data and device
// tokens. Account management itself happens elsewhere in the marketplace.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user (used by the seeder)
func (r *UserRepository) Create(user *model.User) error {
	return r.db.Create(user).Error
}

// FindByID finds a user by UUID
func (r *UserRepository) FindByID(id uuid.UUID) (*model.User, error) {
	var user model.User
	err := r.db.Where("id = ?", id).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByIDs loads several users at once, keyed by id. Missing ids are
// simply absent from the map.
func (r *UserRepository) FindByIDs(ids []uuid.UUID) (map[uuid.UUID]model.User, error) {
	var users []model.User
	if err := r.db.Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]model.User, len(users))
	for _, u := range users {
		out[u.ID] = u
	}
	return out, nil
}

// GetDeviceTokens returns the user's registered FCM tokens
func (r *UserRepository) GetDeviceTokens(userID uuid.UUID) ([]string, error) {
	var tokens []string
	err := r.db.Model(&model.Device{}).
		Where("user_id = ?", userID).
		Pluck("fcm_token", &tokens).Error
	return tokens, err
}
