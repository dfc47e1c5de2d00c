package service

import "errors"

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrNoDocument      = errors.New("no document loaded for this session")
	ErrBusy            = errors.New("a request is already in flight for this session")
	ErrMergePending    = errors.New("a merge is awaiting a supplementary document")
	ErrNoMergePending  = errors.New("no merge is pending for this session")
	ErrNotPDF          = errors.New("only PDF files are supported")
)
