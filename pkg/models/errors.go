package models

import "errors"

// Common errors for drive operations.
var (
	// User errors
	ErrUserNotFound  = errors.New("user not found")
	ErrDuplicateUser = errors.New("user already exists")
	ErrUserDisabled  = errors.New("user account is inactive")

	// Folder errors
	ErrFolderNotFound       = errors.New("folder not found")
	ErrParentFolderNotFound = errors.New("parent folder not found")
	ErrDuplicateFolder      = errors.New("a folder with this name already exists here")

	// File errors
	ErrFileNotFound  = errors.New("file not found")
	ErrDuplicateFile = errors.New("a file with this name already exists here")

	// Tree errors
	ErrInvalidMove   = errors.New("cannot move a folder into itself or its own subtree")
	ErrCorruptTree   = errors.New("folder parent chain contains a cycle")
	ErrFolderTooDeep = errors.New("folder is nested too deeply to store files")
)
