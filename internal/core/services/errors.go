package services

import "errors"

// Controller errors
var (
	ErrControllerNotFound = errors.New("controller: not found")
)

// Command errors
var (
	ErrCommandNotFound     = errors.New("command: not found")
	ErrCommandInvalidInput = errors.New("command: invalid input")
)

// Kiosk errors
var (
	ErrKioskNotFound     = errors.New("kiosk: not found")
	ErrKioskInvalidInput = errors.New("kiosk: invalid input")
)

// Session errors
var (
	ErrSessionNotFound          = errors.New("session: not found")
	ErrSessionAlreadyActive     = errors.New("session: kiosk already has an active session")
	ErrSessionAlreadyFinished   = errors.New("session: already finished")
	ErrSessionInvalidTransition = errors.New("session: invalid status transition")
)

// Amount errors
var (
	ErrInvalidAmount = errors.New("amount: must be a positive number")
)
