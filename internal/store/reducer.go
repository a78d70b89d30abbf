package store

import (
	"fmt"

	"admin-store/internal/models"
)

// Reduce applies one action to a state and returns the resulting state.
//
// Reduce is pure: it never mutates its input and performs no I/O. When the
// action is unknown, targets an unknown kind, is malformed or would break an
// invariant, the input state is returned unchanged together with the error.
func Reduce(state State, action Action) (State, error) {
	next := state

	switch action.Type {
	case ActionCreate, ActionUpdate, ActionDelete, ActionBulkUpdate, ActionSync:
		e, ok := registry[action.Kind]
		if !ok {
			return state, fmt.Errorf("%w: %q", ErrUnknownKind, action.Kind)
		}
		ch, err := applyBase(e.ops, &next.Collections, action)
		if err != nil {
			return state, err
		}
		if e.guard != nil {
			if err := e.guard(&next.Collections, ch); err != nil {
				return state, err
			}
		}
		if e.cascade != nil {
			e.cascade(&next.Collections, ch, action.At)
		}

	case ActionClearAll, ActionResetToDefaults:
		next.Collections = emptyCollections()
		next.Settings = models.DefaultSettings()

	case ActionUpdateSettings:
		if action.Settings == nil {
			return state, fmt.Errorf("%w: settings update without settings", ErrMalformedAction)
		}
		next.Settings = *action.Settings

	case actionImport:
		snap, ok := action.Payload.(Snapshot)
		if !ok {
			return state, fmt.Errorf("%w: import without snapshot", ErrMalformedAction)
		}
		next.Collections = snap.Collections
		next.Settings = snap.Settings
		next.LastUpdated = snap.LastUpdated
		return next, nil

	case ActionSetLoading:
		next.Loading = action.Flag
		return next, nil

	case ActionSetOnline:
		next.IsOnline = action.Flag
		return next, nil

	case ActionSetSyncStatus:
		switch action.SyncStatus {
		case SyncIdle, SyncSyncing, SyncSuccess, SyncError:
		default:
			return state, fmt.Errorf("%w: sync status %q", ErrMalformedAction, action.SyncStatus)
		}
		next.SyncStatus = action.SyncStatus
		return next, nil

	default:
		return state, fmt.Errorf("%w: %q", ErrUnknownAction, action.Type)
	}

	next.LastUpdated = action.At
	return next, nil
}

func applyBase(ops collectionOps, c *Collections, action Action) (change, error) {
	ch := change{op: action.Type, id: action.ID}
	var err error

	switch action.Type {
	case ActionCreate:
		ch.after, err = ops.create(c, action.ID, action.Payload, action.At)
	case ActionUpdate:
		ch.before, ch.after, err = ops.update(c, action.ID, action.Payload, action.At)
	case ActionDelete:
		ch.before, err = ops.remove(c, action.ID)
	case ActionBulkUpdate, ActionSync:
		err = ops.replace(c, action.Payload)
	}
	return ch, err
}
