// Package errors provides structured error handling with machine-readable codes.
package errors

import "net/http"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Raid lifecycle errors
	CodeRaidStateNotFound Code = "RAID_STATE_NOT_FOUND"
	CodeNotInRaid         Code = "NOT_IN_RAID"
	CodeAlreadyInRaid     Code = "ALREADY_IN_RAID"
	CodeInvalidRaidResult Code = "INVALID_RAID_RESULT"

	// Combat errors
	CodeNoEncounter       Code = "NO_ENCOUNTER"
	CodeEncounterNotDead  Code = "ENCOUNTER_NOT_DEAD"
	CodeNoAmmo            Code = "NO_AMMO"
	CodeGunBroken         Code = "GUN_BROKEN"
	CodeNoThrowItem       Code = "NO_THROW_ITEM"
	CodeInvalidAttackKind Code = "INVALID_ATTACK_KIND"
	CodeInvalidDamage     Code = "INVALID_DAMAGE"

	// Inventory errors
	CodeItemIDRequired    Code = "ITEM_ID_REQUIRED"
	CodeItemNotFound      Code = "ITEM_NOT_FOUND"
	CodeInstanceNotFound  Code = "INSTANCE_NOT_FOUND"
	CodeStackInsufficient Code = "STACK_INSUFFICIENT"
	CodeInvalidLootAction Code = "INVALID_LOOT_ACTION"

	// Loadout errors
	CodeInvalidSlot      Code = "INVALID_SLOT"
	CodeSlotTypeMismatch Code = "SLOT_TYPE_MISMATCH"
	CodeNotEquippable    Code = "NOT_EQUIPPABLE"
	CodeNotOwnedInRaid   Code = "NOT_OWNED_IN_RAID"
	CodeNotOwnedInStash  Code = "NOT_OWNED_IN_STASH"

	// Exploration event errors
	CodeNoEvent            Code = "NO_EVENT"
	CodeEventTokenInvalid  Code = "EVENT_TOKEN_INVALID"
	CodeEventTokenExpired  Code = "EVENT_TOKEN_EXPIRED"
	CodeEventTokenMismatch Code = "EVENT_TOKEN_MISMATCH"

	// Profile errors
	CodeStarterAlreadyGranted Code = "STARTER_ALREADY_GRANTED"

	// Storage errors
	CodeNotFound Code = "NOT_FOUND"
)

// HTTPStatus maps domain codes to HTTP status codes.
func (c Code) HTTPStatus() int {
	switch c {
	// Bad request - validation failures, bad input
	case CodeInvalidAttackKind,
		CodeInvalidDamage,
		CodeItemIDRequired,
		CodeInvalidSlot,
		CodeInvalidLootAction,
		CodeInvalidRaidResult,
		CodeEventTokenInvalid:
		return http.StatusBadRequest

	// Conflict - state doesn't allow operation
	case CodeNotInRaid,
		CodeAlreadyInRaid,
		CodeNoEncounter,
		CodeEncounterNotDead,
		CodeNoAmmo,
		CodeGunBroken,
		CodeNoThrowItem,
		CodeStackInsufficient,
		CodeSlotTypeMismatch,
		CodeNotEquippable,
		CodeNotOwnedInRaid,
		CodeNotOwnedInStash,
		CodeNoEvent,
		CodeEventTokenExpired,
		CodeEventTokenMismatch,
		CodeStarterAlreadyGranted:
		return http.StatusConflict

	// Not found - resource doesn't exist
	case CodeNotFound,
		CodeRaidStateNotFound,
		CodeItemNotFound,
		CodeInstanceNotFound:
		return http.StatusNotFound

	default:
		return http.StatusInternalServerError
	}
}
