package server

import "errors"

var (
	// ErrNoTasks — Start() вызван без зарегистрированных task.
	ErrNoTasks = errors.New("no tasks registered")

	// ErrAlreadyStarted — регистрация или повторный Start() после Start().
	ErrAlreadyStarted = errors.New("server already started")

	// ErrDuplicateQueue — на очереди уже зарегистрирован task.
	ErrDuplicateQueue = errors.New("task already registered for queue")

	// ErrInvalidTask — пустое имя очереди или nil task.
	ErrInvalidTask = errors.New("invalid task registration")
)
