package dto

import (
	"strings"
	"testing"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignupRequestValidate(t *testing.T) {
	require.NoError(t, SignupRequest{Email: "a@example.com", Password: "password1"}.Validate())

	err := SignupRequest{Email: "not-an-email", Password: "short"}.Validate()
	var errs validation.Errors
	require.ErrorAs(t, err, &errs)
	assert.Contains(t, errs, "email")
	assert.Contains(t, errs, "password")

	err = SignupRequest{Email: "a@example.com", Password: strings.Repeat("x", 129)}.Validate()
	require.Error(t, err)
}

func TestLoginRequestAllowsShortPasswords(t *testing.T) {
	require.NoError(t, LoginRequest{Email: "a@example.com", Password: "x"}.Validate())
	require.Error(t, LoginRequest{Email: "a@example.com"}.Validate())
}

func TestMissionCreateRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		req     MissionCreateRequest
		wantErr bool
	}{
		{"valid", MissionCreateRequest{Code: "OP-7", Title: "Recon"}, false},
		{"lowercase code", MissionCreateRequest{Code: "op-7", Title: "Recon"}, true},
		{"short code", MissionCreateRequest{Code: "OP", Title: "Recon"}, true},
		{"missing title", MissionCreateRequest{Code: "OP-7"}, true},
		{"blank title", MissionCreateRequest{Code: "OP-7", Title: " \t "}, true},
		{"long notes", MissionCreateRequest{Code: "OP-7", Title: "Recon", Notes: ptr(strings.Repeat("n", 2001))}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestMissionUpdateRequestValidate(t *testing.T) {
	require.NoError(t, MissionUpdateRequest{}.Validate())
	require.Error(t, MissionUpdateRequest{Title: ptr("")}.Validate())
	require.Error(t, MissionUpdateRequest{Title: ptr("   ")}.Validate())
}

func TestMissionTransitionRequestValidate(t *testing.T) {
	require.NoError(t, MissionTransitionRequest{Status: "SCHEDULED"}.Validate())
	require.Error(t, MissionTransitionRequest{Status: "PLANNED"}.Validate())
	require.Error(t, MissionTransitionRequest{}.Validate())
}

func ptr[T any](v T) *T { return &v }
