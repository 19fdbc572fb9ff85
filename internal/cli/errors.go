package cli

import (
	"errors"
	"strings"

	"github.com/Dicklesworthstone/audiopin/internal/app"
	"github.com/Dicklesworthstone/audiopin/internal/audio"
	"github.com/Dicklesworthstone/audiopin/internal/output"
	"github.com/Dicklesworthstone/audiopin/internal/prefs"
	"github.com/Dicklesworthstone/audiopin/internal/system"
)

// toCLIError attaches a code and hint to the errors users can act on.
func toCLIError(err error) *output.CLIError {
	var cliErr *output.CLIError
	if errors.As(err, &cliErr) {
		return cliErr
	}

	e := output.NewCLIError(err.Error())
	switch {
	case errors.Is(err, system.ErrNotInstalled):
		binary, hint := "pactl", output.HintPactlMissing
		if cfg != nil {
			binary = cfg.Audio.Binary
			if strings.Contains(err.Error(), cfg.Window.Binary+":") {
				binary, hint = cfg.Window.Binary, output.HintWmctrlMissing
			}
		}
		return output.BinaryMissingError(binary, hint).WithCause(err.Error())
	case errors.Is(err, audio.ErrDeviceNotFound):
		return e.WithCode("DEVICE_NOT_FOUND").WithHint(output.HintDeviceNotFound)
	case errors.Is(err, prefs.ErrLimitReached):
		return e.WithCode("LIMIT_REACHED").WithHint(output.HintLimitReached)
	case errors.Is(err, prefs.ErrDelayOutOfRange):
		return e.WithCode("DELAY_OUT_OF_RANGE").WithHint(output.HintDelayOutOfRange)
	case errors.Is(err, prefs.ErrDuplicate), errors.Is(err, prefs.ErrNotPresent),
		errors.Is(err, prefs.ErrEmptyName), errors.Is(err, prefs.ErrPositionOutRange):
		return e.WithCode("INVALID_EDIT")
	case errors.Is(err, prefs.ErrCorrupt):
		return e.WithCode("PREFS_CORRUPT").WithHint(output.HintPrefsCorrupt)
	case errors.Is(err, app.ErrPassthrough):
		return e.WithCode("PASSTHROUGH")
	case system.IsTransient(err):
		return e.WithCode("BACKEND_FAILED")
	}
	return e
}
