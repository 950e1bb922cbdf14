package service

import (
	"errors"

	"projectmate/internal/repository"
)

var (
	ErrUnauthorized           = errors.New("not a member of this room")
	ErrNotFound               = errors.New("resource not found")
	ErrInvalidInput           = errors.New("invalid input")
	ErrStorageFailure         = errors.New("storage failure")
	ErrForbidden              = errors.New("permission denied")
	ErrAlreadyRequested       = errors.New("join request already sent")
	ErrAlreadyHasCollaborator = errors.New("project already has a collaborator")
	ErrOwnProject             = errors.New("cannot request to join your own project")
	ErrUsernameTaken          = errors.New("username or email already exists")
	ErrAuthenticationFailed   = errors.New("invalid username or password")
)

// mapRepoError 將 repository 層錯誤轉為服務層錯誤
func mapRepoError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	return errors.Join(ErrStorageFailure, err)
}
