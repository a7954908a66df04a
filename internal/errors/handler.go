package apperrors

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
)

// ColorProvider supplies ANSI sequences for error output.
// A nil provider produces uncoloured text.
type ColorProvider interface {
	Red() string
	Yellow() string
	ResetCode() string
}

// HandleValuationError writes a user-facing description of err to out and
// returns the matching exit code. A nil err yields ExitSuccess and no output.
func HandleValuationError(err error, duration time.Duration, out io.Writer, colors ColorProvider) int {
	if err == nil {
		return ExitSuccess
	}
	red, yellow, reset := "", "", ""
	if colors != nil {
		red, yellow, reset = colors.Red(), colors.Yellow(), colors.ResetCode()
	}

	var (
		reqErr RequestError
		cfgErr ConfigError
		valErr ValidationError
		svcErr ServiceError
	)
	switch {
	case errors.As(err, &reqErr), errors.As(err, &cfgErr), errors.As(err, &valErr):
		fmt.Fprintf(out, "%sInvalid input: %v%s\n", red, err, reset)
		return ExitErrorConfig
	case IsServiceKind(err, KindTimeout):
		fmt.Fprintf(out, "%sPrediction timed out after %s.%s\n", yellow, duration.Round(time.Millisecond), reset)
		return ExitErrorTimeout
	case errors.As(err, &svcErr):
		fmt.Fprintf(out, "%sPrediction failed: %v%s\n", red, err, reset)
		return ExitErrorService
	case errors.Is(err, context.Canceled):
		fmt.Fprintf(out, "%sValuation canceled.%s\n", yellow, reset)
		return ExitErrorCanceled
	case errors.Is(err, context.DeadlineExceeded):
		fmt.Fprintf(out, "%sPrediction timed out after %s.%s\n", yellow, duration.Round(time.Millisecond), reset)
		return ExitErrorTimeout
	}
	fmt.Fprintf(out, "%sError: %v%s\n", red, err, reset)
	return ExitErrorGeneric
}
