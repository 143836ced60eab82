package handlers

import (
	"errors"
	"net/http"

	"ahorcado/packs"
	"ahorcado/services"
	"ahorcado/session"
	"ahorcado/store"
)

// statusForError maps the service error taxonomy to HTTP codes:
// validation rejections and preconditions are 4xx with no state change,
// concurrency conflicts ask the client to retry, store failures are
// transient 5xx.
func statusForError(err error) int {
	switch {
	case errors.Is(err, session.ErrNotYourTurn),
		errors.Is(err, session.ErrInvalidGuess),
		errors.Is(err, session.ErrLetterAlreadyUsed),
		errors.Is(err, session.ErrGameNotActive),
		errors.Is(err, session.ErrGroupNotWaiting):
		return http.StatusUnprocessableEntity

	case errors.Is(err, session.ErrInsufficientPlayers),
		errors.Is(err, session.ErrNoContent),
		errors.Is(err, session.ErrNoPlayers),
		errors.Is(err, packs.ErrUnknownBank),
		errors.Is(err, services.ErrGroupNotJoinable),
		errors.Is(err, services.ErrGroupFull),
		errors.Is(err, services.ErrNameTaken),
		errors.Is(err, services.ErrActivityFinished):
		return http.StatusBadRequest

	case errors.Is(err, services.ErrGroupNotFound),
		errors.Is(err, services.ErrActivityNotFound),
		errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	case errors.Is(err, services.ErrNotGroupOwner):
		return http.StatusForbidden

	case errors.Is(err, store.ErrConflict):
		return http.StatusConflict

	default:
		return http.StatusInternalServerError
	}
}
