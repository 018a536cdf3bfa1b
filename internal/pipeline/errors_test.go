package pipeline

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConversionError_Matching(t *testing.T) {
	cause := errors.New("codec not supported")

	tests := []struct {
		kind     Kind
		err      error
		sentinel error
	}{
		{KindSessionCreation, cause, ErrExportSessionCreationFailed},
		{KindUnderlying, cause, ErrEncoderFailed},
		{KindGeneral, nil, ErrConversionFailed},
		{KindCancelled, nil, ErrConversionCancelled},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			err := error(conversionError(tt.kind, tt.err))

			assert.ErrorIs(t, err, tt.sentinel)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
			}

			var cerr *ConversionError
			assert.True(t, errors.As(err, &cerr))
			assert.Equal(t, tt.kind, cerr.Kind)
		})
	}
}

func TestConversionError_Error(t *testing.T) {
	assert.Equal(t, "conversion failed", conversionError(KindGeneral, nil).Error())
	assert.Equal(t, "encoder failed: boom", conversionError(KindUnderlying, errors.New("boom")).Error())
}
