package domain

import "errors"

// Expected-domain failures are sentinel errors checked with errors.Is.
// Operations never panic for bad input.
var (
	ErrEmptyName  = errors.New("name cannot be empty")
	ErrEmptyTitle = errors.New("title cannot be empty")
	ErrEmptyURL   = errors.New("url cannot be empty")

	ErrCategoryExists   = errors.New("category already exists")
	ErrCategoryNotFound = errors.New("category not found")
	ErrBundleExists     = errors.New("bundle already exists")
	ErrBundleNotFound   = errors.New("bundle not found")
	ErrBookmarkExists   = errors.New("bookmark already exists")
	ErrBookmarkNotFound = errors.New("bookmark not found")
)
