package types

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarizeRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     SummarizeRequest
		wantErr bool
	}{
		{"valid", SummarizeRequest{DocURL: "https://example.com/a.pdf", CSRFToken: "tok"}, false},
		{"missing url", SummarizeRequest{CSRFToken: "tok"}, true},
		{"malformed url", SummarizeRequest{DocURL: "not a url", CSRFToken: "tok"}, true},
		{"missing token", SummarizeRequest{DocURL: "https://example.com/a.pdf"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSummarizeRequest_ValidateConcurrent(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req := SummarizeRequest{DocURL: "https://example.com/a.pdf", CSRFToken: "tok"}
			if i%2 == 1 {
				req.CSRFToken = ""
				assert.Error(t, req.Validate())
				return
			}
			assert.NoError(t, req.Validate())
		}(i)
	}
	wg.Wait()
}

func TestSummaryResponse_JSONShape(t *testing.T) {
	data, err := json.Marshal(SummarySucceeded("A quarterly report.", false))
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":true,"summary":"A quarterly report.","cached":false}`, string(data))

	data, err = json.Marshal(SummaryFailed("Access denied"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":false,"cached":false,"error":"Access denied"}`, string(data))
}
