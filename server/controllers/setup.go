// Package controllers serves the HTTP surfaces of the installer.
package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	key "github.com/jfrog/frogbot-installer/server/context"
	"github.com/jfrog/frogbot-installer/server/logging"
	"github.com/jfrog/frogbot-installer/server/metrics"
	"github.com/jfrog/frogbot-installer/server/models"
	"github.com/jfrog/frogbot-installer/server/setup"
	"github.com/pkg/errors"
	"github.com/uber-go/tally/v4"
	"gopkg.in/go-playground/validator.v9"
)

// SetupRequest is the validated setup form.
type SetupRequest struct {
	PlatformURL    string
	AccessToken    string
	InstallationID int64
}

type setupForm struct {
	PlatformURL    string          `json:"platformUrl" validate:"required,url"`
	AccessToken    string          `json:"accessToken" validate:"required"`
	InstallationID json.RawMessage `json:"installationId" validate:"required"`
}

// SetupRequestConverter decodes and validates the setup form body.
type SetupRequestConverter struct {
	validate *validator.Validate
}

func NewSetupRequestConverter() *SetupRequestConverter {
	return &SetupRequestConverter{validate: validator.New()}
}

func (c *SetupRequestConverter) Convert(from *http.Request) (SetupRequest, error) {
	var form setupForm
	if err := json.NewDecoder(from.Body).Decode(&form); err != nil {
		return SetupRequest{}, errors.Wrap(err, "decoding request body")
	}
	if err := c.validate.Struct(form); err != nil {
		return SetupRequest{}, errors.Wrap(err, "validating request body")
	}

	installationID, err := parseInstallationID(form.InstallationID)
	if err != nil {
		return SetupRequest{}, err
	}
	return SetupRequest{
		PlatformURL:    strings.TrimSuffix(form.PlatformURL, "/"),
		AccessToken:    form.AccessToken,
		InstallationID: installationID,
	}, nil
}

// parseInstallationID accepts a JSON number or a string holding one.
func parseInstallationID(raw json.RawMessage) (int64, error) {
	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		var number json.Number
		if err := json.Unmarshal(raw, &number); err != nil {
			return 0, errors.New("installationId must be a string or a number")
		}
		text = number.String()
	}
	id, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.Errorf("installationId %q is not a valid installation id", text)
	}
	return id, nil
}

// SetupRunner runs the setup flow for one installation.
type SetupRunner interface {
	Run(ctx context.Context, platformURL string, accessToken string, installationID int64) (models.BatchResult, error)
}

// SetupController handles the setup form submitted by the installation
// wizard.
type SetupController struct {
	RequestConverter *SetupRequestConverter
	NewCoordinator   func(installationID int64) SetupRunner
	Logger           logging.Logger
	Scope            tally.Scope
}

func NewSetupController(newCoordinator func(installationID int64) *setup.Coordinator, logger logging.Logger, scope tally.Scope) *SetupController {
	return &SetupController{
		RequestConverter: NewSetupRequestConverter(),
		NewCoordinator: func(installationID int64) SetupRunner {
			return newCoordinator(installationID)
		},
		Logger: logger,
		Scope:  scope.SubScope("setup"),
	}
}

func (c *SetupController) Post(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	request, err := c.RequestConverter.Convert(r)
	if err != nil {
		c.Scope.Tagged(map[string]string{metrics.StatusTag: strconv.Itoa(http.StatusBadRequest)}).Counter(metrics.ExecutionErrorMetric).Inc(1)
		c.respondError(ctx, w, http.StatusBadRequest, err)
		return
	}

	ctx = context.WithValue(ctx, key.InstallationIDKey, request.InstallationID)
	result, err := c.NewCoordinator(request.InstallationID).Run(ctx, request.PlatformURL, request.AccessToken, request.InstallationID)

	var credentialErr *setup.CredentialValidationError
	switch {
	case errors.As(err, &credentialErr):
		c.Scope.Tagged(map[string]string{metrics.StatusTag: strconv.Itoa(http.StatusUnauthorized)}).Counter(metrics.ExecutionErrorMetric).Inc(1)
		c.respondError(ctx, w, http.StatusUnauthorized, err)
	case err != nil:
		c.Scope.Tagged(map[string]string{metrics.StatusTag: strconv.Itoa(http.StatusInternalServerError)}).Counter(metrics.ExecutionErrorMetric).Inc(1)
		c.respondError(ctx, w, http.StatusInternalServerError, err)
	case result.IsPartial:
		c.Scope.Counter(metrics.ExecutionPartialMetric).Inc(1)
		c.respond(ctx, w, http.StatusPartialContent, result)
	default:
		c.Scope.Counter(metrics.ExecutionSuccessMetric).Inc(1)
		c.respond(ctx, w, http.StatusOK, result)
	}
}

func (c *SetupController) respondError(ctx context.Context, w http.ResponseWriter, code int, err error) {
	c.Logger.WarnContext(ctx, "setup request failed", map[string]interface{}{
		key.ErrKey.String(): err.Error(),
		"status":            code,
	})
	c.respond(ctx, w, code, map[string]string{"error": err.Error()})
}

func (c *SetupController) respond(ctx context.Context, w http.ResponseWriter, code int, body interface{}) {
	payload, err := json.Marshal(body)
	if err != nil {
		c.Logger.ErrorContext(ctx, "marshalling response", map[string]interface{}{
			key.ErrKey.String(): err.Error(),
		})
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(payload)
}
