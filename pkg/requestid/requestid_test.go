package requestid_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/mamadbah2/batchdesk/pkg/requestid"
)

func TestRoundTrip(t *testing.T) {
	id := requestid.New()
	_, err := uuid.Parse(id)
	assert.NoError(t, err)

	ctx := requestid.With(context.Background(), id)
	assert.Equal(t, id, requestid.From(ctx))
	assert.Equal(t, "", requestid.From(context.Background()))
}
