// Package errors provides structured error handling with machine-readable codes.
package errors

import "net/http"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Intent errors
	CodeIntentEmptyInput       Code = "INTENT_EMPTY_INPUT"
	CodeIntentUnknownCharacter Code = "INTENT_UNKNOWN_CHARACTER"

	// Mechanics validation errors
	CodeMechanicsUnknownItem       Code = "MECHANICS_UNKNOWN_ITEM"
	CodeMechanicsInsufficientFunds Code = "MECHANICS_INSUFFICIENT_FUNDS"
	CodeMechanicsItemNotHeld       Code = "MECHANICS_ITEM_NOT_HELD"
	CodeMechanicsSpellUnknown      Code = "MECHANICS_SPELL_UNKNOWN"
	CodeMechanicsSpellNotReady     Code = "MECHANICS_SPELL_NOT_READY"
	CodeMechanicsNoSpellSlot       Code = "MECHANICS_NO_SPELL_SLOT"
	CodeMechanicsIncapacitated     Code = "MECHANICS_INCAPACITATED"
	CodeMechanicsWeaponMissing     Code = "MECHANICS_WEAPON_MISSING"
	CodeMechanicsInvalidHitDice    Code = "MECHANICS_INVALID_HIT_DICE"

	// Turn contract errors
	CodeTurnEmptySceneID       Code = "TURN_EMPTY_SCENE_ID"
	CodeTurnInvalidMode        Code = "TURN_INVALID_MODE"
	CodeTurnInvalidTransition  Code = "TURN_INVALID_TRANSITION"
	CodeTurnCompleted          Code = "TURN_COMPLETED"
	CodeTurnInputNotAccepted   Code = "TURN_INPUT_NOT_ACCEPTED"
	CodeTurnOpenContractExists Code = "TURN_OPEN_CONTRACT_EXISTS"
	CodeTurnInvalidThreshold   Code = "TURN_INVALID_THRESHOLD"

	// Concurrency errors
	CodeVersionMismatch Code = "VERSION_MISMATCH"
	CodeEntityLocked    Code = "ENTITY_LOCKED"
	CodeEntityNotFound  Code = "ENTITY_NOT_FOUND"

	// Dice errors
	CodeDiceMissing         Code = "DICE_MISSING"
	CodeDiceInvalidSpec     Code = "DICE_INVALID_SPEC"
	CodeDiceInvalidNotation Code = "DICE_INVALID_NOTATION"

	// Storage errors
	CodeNotFound Code = "NOT_FOUND"
)

// HTTPStatus maps domain codes to HTTP status codes for the REST surface.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeNotFound, CodeEntityNotFound:
		return http.StatusNotFound
	case CodeVersionMismatch, CodeTurnOpenContractExists, CodeTurnInvalidTransition,
		CodeTurnCompleted, CodeTurnInputNotAccepted:
		return http.StatusConflict
	case CodeEntityLocked:
		return http.StatusLocked
	case CodeIntentEmptyInput, CodeIntentUnknownCharacter, CodeTurnEmptySceneID,
		CodeTurnInvalidMode, CodeTurnInvalidThreshold, CodeDiceMissing,
		CodeDiceInvalidSpec, CodeDiceInvalidNotation:
		return http.StatusBadRequest
	case CodeMechanicsUnknownItem, CodeMechanicsInsufficientFunds,
		CodeMechanicsItemNotHeld, CodeMechanicsSpellUnknown,
		CodeMechanicsSpellNotReady, CodeMechanicsNoSpellSlot,
		CodeMechanicsIncapacitated, CodeMechanicsWeaponMissing,
		CodeMechanicsInvalidHitDice:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
