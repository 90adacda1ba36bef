package battle

import "errors"

// Battle errors are plain sentinels so callers can branch with
// errors.Is and report the precise rejection reason. None of these
// indicate a corrupted battle: a rejected move leaves state untouched.
var (
	ErrBattleNotFound       = errors.New("battle: not found")
	ErrBattleFinished       = errors.New("battle: already finished")
	ErrBattleNotStarted     = errors.New("battle: awaiting opponent confirmation")
	ErrNotParticipant       = errors.New("battle: player is not a participant")
	ErrWrongTurn            = errors.New("battle: not this player's turn")
	ErrInvalidMove          = errors.New("battle: invalid move")
	ErrInsufficientResource = errors.New("battle: insufficient resource for move")
	ErrAlreadyInBattle      = errors.New("battle: player already in a battle")
	ErrSelfChallenge        = errors.New("battle: cannot battle yourself")
	ErrInvalidBattleType    = errors.New("battle: unknown battle type")
)
