package messaging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		attrs     map[string]string
		wantData  string
		wantSrc   string
		wantCorr  string
		wantID    string
		wantError bool
	}{
		{
			name:     "envelope with data",
			body:     `{"id":"m-1","source":"/v1/app-customers","correlation_id":"c-body","data":{"name":"Ada"}}`,
			attrs:    map[string]string{},
			wantData: `{"name":"Ada"}`,
			wantSrc:  "/v1/app-customers",
			wantCorr: "c-body",
			wantID:   "m-1",
		},
		{
			name:     "payload field",
			body:     `{"payload":{"name":"Ada"}}`,
			attrs:    map[string]string{"source": "attr-source", "correlation_id": "c-attr"},
			wantData: `{"name":"Ada"}`,
			wantSrc:  "attr-source",
			wantCorr: "c-attr",
		},
		{
			name:     "bare body",
			body:     `{"name":"Ada"}`,
			wantData: `{"name":"Ada"}`,
			wantSrc:  DefaultSource,
		},
		{
			name:     "attribute correlation id wins",
			body:     `{"correlation_id":"c-body","data":1}`,
			attrs:    map[string]string{"correlation_id": "c-attr", "ce-id": "ce-9"},
			wantData: `1`,
			wantSrc:  DefaultSource,
			wantCorr: "c-attr",
			wantID:   "ce-9",
		},
		{
			name:     "non-object JSON is the payload",
			body:     `[1,2]`,
			wantData: `[1,2]`,
			wantSrc:  DefaultSource,
		},
		{
			name:      "invalid JSON",
			body:      `{"data":`,
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := Decode([]byte(tt.body), tt.attrs)
			if tt.wantError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.JSONEq(t, tt.wantData, string(msg.Data))
			assert.Equal(t, tt.wantSrc, msg.Source)
			assert.Equal(t, tt.wantCorr, msg.CorrelationID)
			assert.Equal(t, tt.wantID, msg.ID)
		})
	}
}
