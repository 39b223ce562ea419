package marketplace

import "github.com/pkg/errors"

// Error taxonomy for the marketplace pipeline. Callers branch on these with
// errors.Is; messages wrapped around them carry the specifics.
var (
	// ErrNotFound indicates a name or id lookup miss
	ErrNotFound = errors.New("not found")

	// ErrDuplicateSource indicates a source id that is already registered
	ErrDuplicateSource = errors.New("source already exists")

	// ErrAlreadyInstalled indicates the manifest already has an entry with
	// that skill name; installs are not implicit upgrades
	ErrAlreadyInstalled = errors.New("skill already installed")

	// ErrNotInstalled indicates an uninstall for a skill the manifest does
	// not know about
	ErrNotInstalled = errors.New("skill not installed")

	// ErrProtectedSource indicates an attempt to remove a verified source
	ErrProtectedSource = errors.New("source is protected")

	// ErrInvalidInstall indicates a staged skill that failed validation;
	// the filesystem change has been rolled back before this surfaces
	ErrInvalidInstall = errors.New("installed skill failed validation")

	// ErrRemoteUnavailable indicates a network or API failure against a
	// remote source
	ErrRemoteUnavailable = errors.New("remote source unavailable")
)
