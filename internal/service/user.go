package service

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"projectmate/internal/models"
	"projectmate/internal/repository"
	"projectmate/internal/utils"
)

// RegisterInput 註冊所需的資料
type RegisterInput struct {
	Username    string
	Email       string
	PhoneNumber string
	Password    string
	Skills      string
	Bio         string
	SocialLinks string
}

// ProfileInput 個人資料的可編輯欄位，空字串代表清除
type ProfileInput struct {
	Email       string
	PhoneNumber string
	Skills      string
	Bio         string
	SocialLinks string
}

type UserService struct {
	userRepo repository.UserRepository
	tokens   *utils.TokenManager
}

func NewUserService(userRepo repository.UserRepository, tokens *utils.TokenManager) *UserService {
	return &UserService{userRepo: userRepo, tokens: tokens}
}

// Register 建立新用戶，密碼以 bcrypt 雜湊後儲存
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	if in.Username == "" || in.Password == "" {
		return nil, ErrInvalidInput
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username:    in.Username,
		Password:    string(hashed),
		Skills:      in.Skills,
		Bio:         in.Bio,
		SocialLinks: in.SocialLinks,
	}
	user.Email = optional(in.Email)
	user.PhoneNumber = optional(in.PhoneNumber)

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEntry) {
			return nil, ErrUsernameTaken
		}
		return nil, mapRepoError(err)
	}
	return user, nil
}

// Login 驗證帳密並簽發 token
func (s *UserService) Login(ctx context.Context, username, password string) (string, *models.User, error) {
	user, err := s.userRepo.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", nil, ErrAuthenticationFailed
		}
		return "", nil, mapRepoError(err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", nil, ErrAuthenticationFailed
	}

	token, err := s.tokens.GenerateToken(user.ID)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// Authenticate 解析 token 並回傳用戶 ID
func (s *UserService) Authenticate(token string) (uint, error) {
	claims, err := s.tokens.ParseToken(token)
	if err != nil {
		return 0, ErrAuthenticationFailed
	}
	return claims.UserID, nil
}

// GetUser 讀取用戶個人資料
func (s *UserService) GetUser(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return user, nil
}

// UpdateProfile 覆寫目前用戶的個人資料；email 與他人重複時回傳 ErrUsernameTaken
func (s *UserService) UpdateProfile(ctx context.Context, id uint, in ProfileInput) (*models.User, error) {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	user.Email = optional(in.Email)
	user.PhoneNumber = optional(in.PhoneNumber)
	user.Skills = in.Skills
	user.Bio = in.Bio
	user.SocialLinks = in.SocialLinks

	if err := s.userRepo.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEntry) {
			return nil, ErrUsernameTaken
		}
		return nil, mapRepoError(err)
	}
	return user, nil
}

func optional(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}
