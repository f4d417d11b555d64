//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobType_Valid(t *testing.T) {
	for _, jt := range JobTypes() {
		assert.True(t, jt.Valid(), jt)
	}
	assert.False(t, JobType("browser").Valid())
}

func TestJobType_UnmarshalText(t *testing.T) {
	var jt JobType
	require.NoError(t, jt.UnmarshalText([]byte(" Member_Joined ")))
	assert.Equal(t, JobTypeMemberJoined, jt)
	assert.Error(t, jt.UnmarshalText([]byte("alert")))
}

func TestCreateJobRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     CreateJobRequest
		wantErr string
	}{
		{name: "valid", req: CreateJobRequest{Type: JobTypeLinked, Payload: json.RawMessage(`{}`)}},
		{name: "bad type", req: CreateJobRequest{Type: "x", Payload: json.RawMessage(`{}`)}, wantErr: "invalid job type"},
		{name: "no payload", req: CreateJobRequest{Type: JobTypeUnlinked}, wantErr: "payload is required"},
		{
			name:    "negative retries",
			req:     CreateJobRequest{Type: JobTypeUnlinked, Payload: json.RawMessage(`{}`), MaxRetries: -1},
			wantErr: "max retries must be >= 0",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.EqualError(t, err, tt.wantErr)
		})
	}
}
