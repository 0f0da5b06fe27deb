package discord

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/keshon/lakebot/internal/gateway"
)

// APIError is a REST failure that kept its HTTP status and Discord error
// code, so the retry layer can tell server errors apart.
type APIError struct {
	Status int
	Code   int
	Err    error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("discord api: status %d code %d: %v", e.Status, e.Code, e.Err)
}

func (e *APIError) Unwrap() error   { return e.Err }
func (e *APIError) StatusCode() int { return e.Status }

// RateLimitError is returned when discordgo gave up on a rate-limited route.
type RateLimitError struct {
	Wait time.Duration
	Err  error
}

func (e *RateLimitError) Error() string             { return "discord api: rate limited: " + e.Err.Error() }
func (e *RateLimitError) Unwrap() error             { return e.Err }
func (e *RateLimitError) StatusCode() int           { return http.StatusTooManyRequests }
func (e *RateLimitError) RetryAfter() time.Duration { return e.Wait }

// mapError translates discordgo errors into the gateway's vocabulary. Missing
// permissions and missing access become gateway.ErrPermission.
func mapError(err error) error {
	if err == nil {
		return nil
	}

	var rl *discordgo.RateLimitError
	if errors.As(err, &rl) {
		var wait time.Duration
		if rl.RateLimit != nil && rl.RateLimit.TooManyRequests != nil {
			wait = rl.RateLimit.TooManyRequests.RetryAfter
		}
		return &RateLimitError{Wait: wait, Err: err}
	}

	var rest *discordgo.RESTError
	if !errors.As(err, &rest) {
		return err
	}
	var status, code int
	if rest.Response != nil {
		status = rest.Response.StatusCode
	}
	if rest.Message != nil {
		code = rest.Message.Code
	}
	apiErr := &APIError{Status: status, Code: code, Err: err}
	if status == http.StatusTooManyRequests {
		return &RateLimitError{Err: apiErr}
	}
	if status == http.StatusForbidden || code == discordgo.ErrCodeMissingPermissions || code == discordgo.ErrCodeMissingAccess {
		return fmt.Errorf("%w: %w", gateway.ErrPermission, apiErr)
	}
	return apiErr
}
