package store

import (
	"errors"
	"time"

	"admin-store/internal/models"
)

// ActionType names a reducer action
type ActionType string

// Action types
const (
	ActionCreate          ActionType = "CREATE_ENTITY"
	ActionUpdate          ActionType = "UPDATE_ENTITY"
	ActionDelete          ActionType = "DELETE_ENTITY"
	ActionBulkUpdate      ActionType = "BULK_UPDATE"
	ActionSync            ActionType = "SYNC_ENTITY"
	ActionClearAll        ActionType = "CLEAR_ALL"
	ActionResetToDefaults ActionType = "RESET_TO_DEFAULTS"
	ActionSetLoading      ActionType = "SET_LOADING"
	ActionSetOnline       ActionType = "SET_ONLINE"
	ActionSetSyncStatus   ActionType = "SET_SYNC_STATUS"
	ActionUpdateSettings  ActionType = "UPDATE_SETTINGS"
)

var (
	ErrUnknownKind     = errors.New("unknown entity kind")
	ErrUnknownAction   = errors.New("unknown action type")
	ErrMalformedAction = errors.New("malformed action")
	ErrNotFound        = errors.New("entity not found")
	ErrConflict        = errors.New("entity conflict")
	ErrInvariant       = errors.New("invariant violation")
)

// Action is a single reducer input.
//
// For creates, ID and At are the identity and timestamp to stamp onto the new
// record; the reducer never generates them itself so that it stays pure.
type Action struct {
	Type    ActionType
	Kind    Kind
	ID      string
	Payload any
	At      time.Time

	Flag       bool
	SyncStatus SyncStatus
	Settings   *models.Settings
}

// Create builds a CREATE_ENTITY action
func Create(kind Kind, id string, payload any, at time.Time) Action {
	return Action{Type: ActionCreate, Kind: kind, ID: id, Payload: payload, At: at}
}

// Update builds an UPDATE_ENTITY action
func Update(kind Kind, id string, payload any, at time.Time) Action {
	return Action{Type: ActionUpdate, Kind: kind, ID: id, Payload: payload, At: at}
}

// Delete builds a DELETE_ENTITY action
func Delete(kind Kind, id string, at time.Time) Action {
	return Action{Type: ActionDelete, Kind: kind, ID: id, At: at}
}

// BulkUpdate builds a BULK_UPDATE action replacing a whole collection
func BulkUpdate(kind Kind, items any, at time.Time) Action {
	return Action{Type: ActionBulkUpdate, Kind: kind, Payload: items, At: at}
}

// Sync builds a SYNC_ENTITY action carrying a remote-sourced collection
func Sync(kind Kind, items any, at time.Time) Action {
	return Action{Type: ActionSync, Kind: kind, Payload: items, At: at}
}
